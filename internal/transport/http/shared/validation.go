package shared

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"feedbackportal/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field issues for checks that struct tags cannot express,
// such as date ordering or ids nested in lists.
type Validator struct {
	issues []ValidationIssue
	seen   map[ValidationIssue]bool
}

func NewValidator() *Validator {
	return &Validator{seen: map[ValidationIssue]bool{}}
}

// Add records an issue once; repeated identical issues are dropped.
func (v *Validator) Add(field, reason string) {
	issue := ValidationIssue{Field: strings.TrimSpace(field), Reason: strings.TrimSpace(reason)}
	if issue.Reason == "" || v.seen[issue] {
		return
	}
	v.seen[issue] = true
	v.issues = append(v.issues, issue)
}

func (v *Validator) ID(field, raw string) bool {
	if ValidID(raw) {
		return true
	}
	v.Add(field, "must be a valid id")
	return false
}

func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(startField, "must be on or before "+endField)
	v.Add(endField, "must be on or after "+startField)
}

func (v *Validator) HasIssues() bool {
	return len(v.issues) > 0
}

// Issues returns the collected issues ordered by field then reason.
func (v *Validator) Issues() []ValidationIssue {
	if len(v.issues) == 0 {
		return nil
	}
	out := append([]ValidationIssue(nil), v.issues...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}

// InvalidField rejects a request over a single field.
func InvalidField(w http.ResponseWriter, requestID, field, reason string) {
	FailValidation(w, requestID, []ValidationIssue{{Field: field, Reason: reason}})
}
