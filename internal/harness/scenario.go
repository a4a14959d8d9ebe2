package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end check of a kernel.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kernel is the path of the kernel file (YAML or CUE).
	Kernel string `yaml:"kernel"`

	// Target selects the renderer, "c" or "opencl". Defaults to "c".
	Target string `yaml:"target,omitempty"`

	// Params lists the parameter values the generated code is run with.
	Params []map[string]int64 `yaml:"params,omitempty"`

	// Assertions validate the lowering result.
	Assertions []Assertion `yaml:"assertions"`

	// Golden compares the rendered code with a golden file.
	Golden bool `yaml:"golden,omitempty"`
}

// Assertion validates one aspect of a lowering result.
type Assertion struct {
	// Type is one of covers, code_contains, code_excludes, decision_count
	// or error.
	Type string `yaml:"type"`

	// Text is the substring for code_contains and code_excludes.
	Text string `yaml:"text,omitempty"`

	// Action is the decision action counted by decision_count.
	Action string `yaml:"action,omitempty"`

	// Count is the expected number of decisions for decision_count.
	Count int `yaml:"count,omitempty"`

	// Code is the expected lowering error code for error.
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertCovers        = "covers"
	AssertCodeContains  = "code_contains"
	AssertCodeExcludes  = "code_excludes"
	AssertDecisionCount = "decision_count"
	AssertError         = "error"
)

// LoadScenario reads and parses a scenario YAML file. The kernel path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Kernel != "" && !filepath.IsAbs(scenario.Kernel) {
		scenario.Kernel = filepath.Join(filepath.Dir(path), scenario.Kernel)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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
	if s.Kernel == "" {
		return fmt.Errorf("kernel is required")
	}
	if _, err := os.Stat(s.Kernel); os.IsNotExist(err) {
		return fmt.Errorf("kernel file not found: %s", s.Kernel)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, s *Scenario) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertCovers:
		if len(s.Params) == 0 {
			return fmt.Errorf("assertions[%d]: covers needs at least one params entry", index)
		}
	case AssertCodeContains, AssertCodeExcludes:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertDecisionCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for decision_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for decision_count", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
