package scoring

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// Skipped records an assessment left out of a batch and why.
type Skipped struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
	Reason       string    `json:"reason"`
}

// Batch is the flattened response set of many assessments.
type Batch struct {
	Responses   []store.Response `json:"-"`
	Assessments int              `json:"assessments"`
	From        *time.Time       `json:"from,omitempty"`
	To          *time.Time       `json:"to,omitempty"`
	Skipped     []Skipped        `json:"skipped,omitempty"`
}

// CollectResponses flattens the responses of every valid assessment. An
// assessment whose stored responses no longer re-derive to their scored values
// is skipped on its own; the rest of the batch is unaffected.
func CollectResponses(assessments []*store.Assessment, logger *slog.Logger) Batch {
	var b Batch
	for _, a := range assessments {
		if reason := verify(a); reason != "" {
			logger.Warn("skipping assessment", "assessment_id", a.ID, "reason", reason)
			b.Skipped = append(b.Skipped, Skipped{AssessmentID: a.ID, Reason: reason})
			continue
		}
		b.Responses = append(b.Responses, a.Responses...)
		b.Assessments++
		at := a.SubmittedAt
		if b.From == nil || at.Before(*b.From) {
			b.From = &at
		}
		if b.To == nil || at.After(*b.To) {
			b.To = &at
		}
	}
	return b
}

func verify(a *store.Assessment) string {
	if len(a.Responses) == 0 {
		return "no responses"
	}
	seen := make(map[uuid.UUID]bool, len(a.Responses))
	for _, r := range a.Responses {
		if seen[r.QuestionID] {
			return fmt.Sprintf("duplicate response for question %s", r.QuestionID)
		}
		seen[r.QuestionID] = true
		if r.ScaleMax <= 0 {
			return fmt.Sprintf("response %s has no scale snapshot", r.ID)
		}
		if !RoundTrips(r) {
			return fmt.Sprintf("response %s scored %v, expected %v", r.ID, r.ScoredValue, Rescore(r))
		}
	}
	return ""
}
