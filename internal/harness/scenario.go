package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pregen/internal/ir"
)

// DefaultModule is the module of records that name none.
const DefaultModule = "app.base"

// Scenario is one transform test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module is the default module of the scenario's records.
	Module string `yaml:"module,omitempty"`

	// Workers bounds transform concurrency. Zero means 2.
	Workers int `yaml:"workers,omitempty"`

	// EntryMethod overrides the generated entry method name.
	EntryMethod string `yaml:"entry_method,omitempty"`

	// Golden enables comparison against testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`

	Records   []RecordSpec   `yaml:"records"`
	Resources []ResourceSpec `yaml:"resources,omitempty"`
	Expect    Expect         `yaml:"expect"`
}

// RecordSpec declares one input record.
type RecordSpec struct {
	Name    string       `yaml:"name"`
	Module  string       `yaml:"module,omitempty"`
	Host    string       `yaml:"host,omitempty"`
	Members []string     `yaml:"members,omitempty"`
	Methods []MethodSpec `yaml:"methods,omitempty"`
}

// MethodSpec declares one method. Type is in text form, "(int)void".
type MethodSpec struct {
	Name  string     `yaml:"name"`
	Type  string     `yaml:"type"`
	Flags []string   `yaml:"flags,omitempty"`
	Code  []InsnSpec `yaml:"code,omitempty"`
}

// InsnSpec declares one instruction. Exactly one field is set.
type InsnSpec struct {
	Lambda    *LambdaSpec `yaml:"lambda,omitempty"`
	AltLambda *LambdaSpec `yaml:"alt_lambda,omitempty"`
	Load      *LoadSpec   `yaml:"load,omitempty"`
	Const     *string     `yaml:"const,omitempty"`
	Dup       bool        `yaml:"dup,omitempty"`
	Return    *string     `yaml:"return,omitempty"`
}

// LambdaSpec is a factory call site. Iface, Impl and Dynamic are the three
// bootstrap arguments in text form; Type is the invoked type.
type LambdaSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Iface   string `yaml:"iface"`
	Impl    string `yaml:"impl"`
	Dynamic string `yaml:"dynamic"`
	Flags   int64  `yaml:"flags,omitempty"`
}

// LoadSpec pushes a local slot.
type LoadSpec struct {
	Slot int    `yaml:"slot"`
	Type string `yaml:"type"`
}

// ResourceSpec declares a non-record entry.
type ResourceSpec struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// Expect lists what the run must produce.
type Expect struct {
	Error      string              `yaml:"error,omitempty"`
	Rewritten  []string            `yaml:"rewritten,omitempty"`
	Generated  []string            `yaml:"generated,omitempty"`
	Failures   []string            `yaml:"failures,omitempty"`
	Unresolved []string            `yaml:"unresolved,omitempty"`
	Members    map[string][]string `yaml:"members,omitempty"`
	Unchanged  []string            `yaml:"unchanged,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Module == "" {
		scenario.Module = DefaultModule
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Records) == 0 {
		return fmt.Errorf("records list is required and must be non-empty")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	for i, r := range s.Records {
		if r.Name == "" {
			return fmt.Errorf("records[%d]: name is required", i)
		}
		for j, m := range r.Methods {
			where := fmt.Sprintf("records[%d].methods[%d]", i, j)
			if m.Name == "" {
				return fmt.Errorf("%s: name is required", where)
			}
			if _, err := ir.ParseMethodType(m.Type); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
			if _, err := parseFlags(m.Flags); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
			for k, in := range m.Code {
				if err := validateInsn(in); err != nil {
					return fmt.Errorf("%s.code[%d]: %w", where, k, err)
				}
			}
		}
	}

	for i, r := range s.Resources {
		if r.Path == "" {
			return fmt.Errorf("resources[%d]: path is required", i)
		}
	}
	return nil
}

func validateInsn(in InsnSpec) error {
	set := 0
	for _, ok := range []bool{in.Lambda != nil, in.AltLambda != nil, in.Load != nil, in.Const != nil, in.Dup, in.Return != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one instruction field must be set, got %d", set)
	}

	for _, l := range []*LambdaSpec{in.Lambda, in.AltLambda} {
		if l == nil {
			continue
		}
		for _, mt := range []string{l.Type, l.Iface, l.Dynamic} {
			if _, err := ir.ParseMethodType(mt); err != nil {
				return err
			}
		}
		if _, err := ir.ParseMethodHandle(l.Impl); err != nil {
			return err
		}
	}
	return nil
}

var flagsByName = map[string]ir.AccessFlags{
	"public":    ir.AccPublic,
	"private":   ir.AccPrivate,
	"protected": ir.AccProtected,
	"static":    ir.AccStatic,
	"final":     ir.AccFinal,
	"synthetic": ir.AccSynthetic,
	"abstract":  ir.AccAbstract,
}

func parseFlags(names []string) (ir.AccessFlags, error) {
	var f ir.AccessFlags
	for _, n := range names {
		bit, ok := flagsByName[n]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", n)
		}
		f |= bit
	}
	return f, nil
}
