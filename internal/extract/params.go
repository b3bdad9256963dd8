package extract

import (
	"bufio"
	"fmt"
	"io"

	"github.com/roach88/yodascan/internal/ir"
)

// ReadParameters reads whitespace-separated (name, value) token pairs until
// the end of the stream. There is no quoting or escaping. A trailing name
// without a value is dropped.
func ReadParameters(r io.Reader) (ir.ParameterSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var set ir.ParameterSet
	for scanner.Scan() {
		name := scanner.Text()
		if !scanner.Scan() {
			break
		}
		set.Set(name, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return ir.ParameterSet{}, fmt.Errorf("read parameters: %w", err)
	}

	return set, nil
}
