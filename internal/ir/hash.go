package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainTable      = "yodascan/table/v1"
	DomainOccurrence = "yodascan/occurrence/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TableDigest computes a content digest of a finished table.
// Two runs over identical inputs produce the same digest.
func TableDigest(t *Table) (string, error) {
	canonical, err := MarshalTableCanonical(t)
	if err != nil {
		return "", fmt.Errorf("TableDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTable, canonical), nil
}

// BinningDigest computes a digest of an occurrence's binning only (edges, no
// values). Occurrences that aggregate cleanly share a binning digest.
func BinningDigest(o HistogramOccurrence) (string, error) {
	edges := make([]any, len(o.Bins))
	for i, b := range o.Bins {
		edges[i] = []float64{b.Low, b.High}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"name":  o.Name,
		"edges": edges,
	})
	if err != nil {
		return "", fmt.Errorf("BinningDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOccurrence, canonical), nil
}
