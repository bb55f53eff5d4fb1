package ballot

import (
	"strings"

	"github.com/google/uuid"
)

const (
	OptionYes = "yes"
	OptionNo  = "no"
)

// yes/no options are never persisted on the ballot row.
var yesNoOptions = [...]Option{
	{ID: OptionYes, Label: "Yes"},
	{ID: OptionNo, Label: "No"},
}

// ResolveOptions materializes the ordered option set for a question type.
func ResolveOptions(t QuestionType, stored []Option) []Option {
	if t == YesNo {
		out := make([]Option, len(yesNoOptions))
		copy(out, yesNoOptions[:])
		return out
	}
	out := make([]Option, len(stored))
	copy(out, stored)
	return out
}

// MaxSelections is the number of options a single vote may select.
func MaxSelections(t QuestionType, options []Option) int {
	if t == MultiChoice {
		return len(options)
	}
	return 1
}

// NormalizeOptions prepares submitted options for storage: labels are
// trimmed, empty-label entries dropped and missing ids generated.
func NormalizeOptions(t QuestionType, in []Option) ([]Option, error) {
	if t == YesNo {
		return nil, nil
	}

	out := make([]Option, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, o := range in {
		label := strings.TrimSpace(o.Label)
		if label == "" {
			continue
		}
		id := strings.TrimSpace(o.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if _, dup := seen[id]; dup {
			return nil, invalid("options", "duplicate option id "+id)
		}
		seen[id] = struct{}{}
		out = append(out, Option{ID: id, Label: label})
	}
	if err := checkOptionCount(t, out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkOptionCount(t QuestionType, options []Option) error {
	if t == YesNo {
		return nil
	}
	if len(options) < 2 {
		return invalid("options", "at least 2 options with non-empty labels are required")
	}
	return nil
}
