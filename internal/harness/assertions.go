package harness

import (
	"fmt"
	"strings"
)

// EvaluateAssertions checks every assertion of scenario against result and
// returns one message per failure.
func EvaluateAssertions(result *Result, scenario *Scenario) []string {
	var failures []string
	for i, a := range scenario.Assertions {
		if msg := evaluate(result, scenario, a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertions[%d] %s: %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluate(result *Result, scenario *Scenario, a Assertion) string {
	if a.Type != AssertError && result.ErrorCode != "" {
		return "lowering failed with " + result.ErrorCode
	}

	switch a.Type {
	case AssertCovers:
		for _, params := range scenario.Params {
			msg, err := Coverage(result.kernel, result.gen, params)
			if err != nil {
				return err.Error()
			}
			if msg != "" {
				return msg
			}
		}
	case AssertCodeContains:
		if !strings.Contains(result.Code, a.Text) {
			return fmt.Sprintf("code does not contain %q", a.Text)
		}
	case AssertCodeExcludes:
		if strings.Contains(result.Code, a.Text) {
			return fmt.Sprintf("code contains %q", a.Text)
		}
	case AssertDecisionCount:
		n := 0
		for _, d := range result.Decisions {
			if d.Action == a.Action {
				n++
			}
		}
		if n != a.Count {
			return fmt.Sprintf("expected %d %q decisions, got %d", a.Count, a.Action, n)
		}
	case AssertError:
		if result.ErrorCode != a.Code {
			got := result.ErrorCode
			if got == "" {
				got = "success"
			}
			return fmt.Sprintf("expected %s, got %s", a.Code, got)
		}
	default:
		return "unknown assertion type"
	}
	return ""
}
