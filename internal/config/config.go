package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/yodascan/internal/ir"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "YODASCAN_"

//go:embed schema.cue
var schemaSource string

// DefaultHistograms are the tracked histograms of the Higgs differential
// analysis, in plotting order.
var DefaultHistograms = []string{
	"N_j_30",
	"pT_yy",
	"pT_j1_30",
	"m_jj_30",
	"Dphi_j_j_30",
	"Dphi_j_j_30_signed",
}

// Config is the merged run configuration.
type Config struct {
	Histograms  []string `yaml:"histograms" json:"histograms" env:"HISTOGRAMS" envSeparator:"," validate:"min=1,unique,dive,required,excludesall=/"`
	ParamFile   string   `yaml:"param_file" json:"param_file" env:"PARAM_FILE" validate:"required,excludesall=/"`
	BundleFile  string   `yaml:"bundle_file" json:"bundle_file" env:"BUNDLE_FILE" validate:"required,excludesall=/"`
	Include     []string `yaml:"include" json:"include" env:"INCLUDE" envSeparator:","`
	Exclude     []string `yaml:"exclude" json:"exclude" env:"EXCLUDE" envSeparator:","`
	Strict      bool     `yaml:"strict" json:"strict" env:"STRICT"`
	Output      string   `yaml:"output" json:"output" env:"OUTPUT"`
	Database    string   `yaml:"database" json:"database" env:"DATABASE"`
	MetricsFile string   `yaml:"metrics_file" json:"metrics_file" env:"METRICS_FILE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Histograms: append([]string(nil), DefaultHistograms...),
		ParamFile:  "param.dat",
		BundleFile: "Higgs-scaled.yoda",
	}
}

// Tracked returns the configured histogram names as a tracked set.
func (c Config) Tracked() ir.TrackedSet {
	return ir.NewTrackedSet(c.Histograms...)
}

// Load returns the defaults overlaid with the file at path. An empty path
// returns the defaults. The format is chosen by extension: .yaml, .yml or
// .cue.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &Error{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}

	var file Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(path, data, &file)
	case ".cue":
		err = decodeCUE(path, data, &file)
	default:
		return cfg, &Error{Code: ErrCodeFormat, Path: path, Message: fmt.Sprintf("unsupported config extension %q", ext)}
	}
	if err != nil {
		return cfg, err
	}

	cfg.overlay(file)
	return cfg, nil
}

func decodeYAML(path string, data []byte, out *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Code: ErrCodeSyntax, Path: path, Message: err.Error()}
	}
	return nil
}

func decodeCUE(path string, data []byte, out *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile embedded schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cueError(ErrCodeSyntax, path, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueError(ErrCodeSchema, path, err)
	}
	if err := unified.Decode(out); err != nil {
		return cueError(ErrCodeSchema, path, err)
	}
	return nil
}

func cueError(code, path string, err error) *Error {
	ce := &Error{Code: code, Path: path, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		ce.Pos = errs[0].Position()
		format, args := errs[0].Msg()
		ce.Message = fmt.Sprintf(format, args...)
	}
	return ce
}

// overlay copies the fields set in o over c.
func (c *Config) overlay(o Config) {
	if o.Histograms != nil {
		c.Histograms = o.Histograms
	}
	if o.ParamFile != "" {
		c.ParamFile = o.ParamFile
	}
	if o.BundleFile != "" {
		c.BundleFile = o.BundleFile
	}
	if o.Include != nil {
		c.Include = o.Include
	}
	if o.Exclude != nil {
		c.Exclude = o.Exclude
	}
	if o.Strict {
		c.Strict = true
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.MetricsFile != "" {
		c.MetricsFile = o.MetricsFile
	}
}

// ApplyEnv overlays YODASCAN_* variables from environ onto c. Unset or
// empty variables leave the field unchanged. A nil environ reads the
// process environment.
func ApplyEnv(c *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return &Error{Code: ErrCodeEnv, Message: err.Error()}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &Error{Code: ErrCodeInvalid, Message: err.Error()}
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return &Error{Code: ErrCodeInvalid, Message: strings.Join(msgs, "; ")}
	}

	for _, group := range []struct {
		kind     string
		patterns []string
	}{{"include", c.Include}, {"exclude", c.Exclude}} {
		for _, p := range group.patterns {
			if !doublestar.ValidatePattern(p) {
				return &Error{Code: ErrCodeBadPattern, Message: fmt.Sprintf("%s pattern %q is malformed", group.kind, p)}
			}
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " must not be empty"
	case "min":
		return field + " needs at least " + fe.Param() + " entry"
	case "unique":
		return field + " must not repeat names"
	case "excludesall":
		return field + " must not contain " + strings.Join(strings.Split(fe.Param(), ""), " ")
	}
	return field + " failed " + fe.Tag()
}
