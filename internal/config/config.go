package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/scan"
	"github.com/roach88/pregen/internal/synth"
	"github.com/roach88/pregen/internal/transform"
)

//go:embed schema.cue
var schemaSource []byte

// Config is the decoded configuration file.
type Config struct {
	FactoryOwner string `yaml:"factory_owner" json:"factory_owner"`
	EntryMethod  string `yaml:"entry_method" json:"entry_method"`
	Workers      int    `yaml:"workers" json:"workers"`
	Ledger       string `yaml:"ledger" json:"ledger"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		FactoryOwner: string(scan.DefaultFactoryOwner),
		EntryMethod:  synth.DefaultEntryMethod,
		Workers:      runtime.GOMAXPROCS(0),
		LogLevel:     "info",
	}
}

// ValidationError is a schema violation.
type ValidationError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads the file at path over Default(). A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks c against the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(c))
	return validationError(v.Validate(cue.Concrete(true)))
}

// validationError reduces a CUE error list to its first entry.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	format, args := first.Msg()
	ve := &ValidationError{
		Field:   strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		ve.Pos = pos[0]
	}
	if ve.Field == "" {
		ve.Field = "config"
	}
	return ve
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Transform returns the transformer settings.
func (c Config) Transform() transform.Config {
	return transform.Config{
		FactoryOwner: ir.TypeDesc(c.FactoryOwner),
		EntryMethod:  c.EntryMethod,
		Workers:      c.Workers,
	}
}
