package closure

import (
	"bytes"
	"encoding/json"

	"phasetrack/internal/model"
)

const (
	pendingNoClosureDocument = "Closure document not found"
	pendingMalformedPayload  = "Closure checklist could not be read"
)

// EvaluateChecklist validates the checklist attached to the closure document
// artifact. doc is nil when the phase has no closure document at all.
//
// An absent or empty checklist payload validates with zero pending items: a
// checklist nobody filled out has nothing outstanding. A payload that fails to
// deserialize degrades to invalid with one diagnostic item instead of
// surfacing a parse error.
func EvaluateChecklist(doc *model.Artifact) model.ChecklistValidation {
	if doc == nil {
		return model.ChecklistValidation{
			Valid:        false,
			PendingItems: []string{pendingNoClosureDocument},
		}
	}

	raw := bytes.TrimSpace(doc.Checklist)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return model.ChecklistValidation{Valid: true, PendingItems: []string{}}
	}

	var items []model.ChecklistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return model.ChecklistValidation{
			Valid:        false,
			PendingItems: []string{pendingMalformedPayload},
		}
	}

	pending := []string{}
	for _, item := range items {
		if item.Mandatory && !item.Completed {
			pending = append(pending, item.Description)
		}
	}

	return model.ChecklistValidation{
		Valid:        len(pending) == 0,
		PendingItems: pending,
	}
}
