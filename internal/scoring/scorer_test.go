package scoring

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func likert() Scale {
	return NewScale([]store.ScaleItem{
		{Label: "Never", Value: 0, Order: 1},
		{Label: "Rarely", Value: 20, Order: 2},
		{Label: "Sometimes", Value: 40, Order: 3},
		{Label: "Often", Value: 60, Order: 4},
		{Label: "Usually", Value: 80, Order: 5},
		{Label: "Always", Value: 100, Order: 6},
	})
}

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestScoreEndToEndCategory(t *testing.T) {
	cat := uuid.New()
	q1 := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Polarity: store.PolarityDirect, Order: 1}
	q2 := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Polarity: store.PolarityDirect, Order: 2}
	q3 := store.Question{ID: uuid.New(), CategoryID: uuidPtr(cat), Polarity: store.PolarityInverse, Order: 3}
	questions := []store.Question{q1, q2, q3}

	s := NewScorer(likert(), questions, discardLogger())
	scored, err := s.Score([]Answer{
		{QuestionID: q1.ID, Value: 80},
		{QuestionID: q2.ID, Value: 60},
		{QuestionID: q3.ID, Value: 20},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := scored.Responses[2].ScoredValue; got != 80 {
		t.Errorf("inverse response scored %v, want 80", got)
	}
	if !scored.Responses[2].IsInverse || scored.Responses[2].ScaleMax != 100 {
		t.Errorf("expected inverse snapshot with scale max 100, got %+v", scored.Responses[2])
	}
	if scored.OverallScore != 73.3 {
		t.Errorf("overall %v, want 73.3", scored.OverallScore)
	}

	res := Aggregate(scored.Responses, questions, []store.Category{{ID: cat, Name: "Demands"}})
	c, ok := res.Category(cat)
	if !ok {
		t.Fatal("category missing from result")
	}
	if !approx(c.Average, 73.33) {
		t.Errorf("category average %v, want 73.33", c.Average)
	}
	if c.Zone != ZoneModerate {
		t.Errorf("zone %s, want moderate", c.Zone)
	}
}

func TestScoreRejections(t *testing.T) {
	q1 := store.Question{ID: uuid.New(), Order: 1}
	q2 := store.Question{ID: uuid.New(), Order: 2}
	s := NewScorer(likert(), []store.Question{q1, q2}, discardLogger())

	tests := []struct {
		name    string
		answers []Answer
		want    error
	}{
		{"value not on scale", []Answer{{q1.ID, 50}, {q2.ID, 40}}, ErrInvalidAnswerValue},
		{"unknown question", []Answer{{q1.ID, 40}, {q2.ID, 40}, {uuid.New(), 40}}, ErrUnknownQuestion},
		{"duplicate", []Answer{{q1.ID, 40}, {q1.ID, 60}, {q2.ID, 40}}, ErrDuplicateAnswer},
		{"missing answer", []Answer{{q1.ID, 40}}, ErrIncompleteAssessment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored, err := s.Score(tt.answers)
			if scored != nil {
				t.Error("expected nothing scored")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			var ae *AnswerError
			if !errors.As(err, &ae) {
				t.Error("expected an AnswerError in the chain")
			}
		})
	}
}

func TestScoreAllProblemsReported(t *testing.T) {
	q1 := store.Question{ID: uuid.New(), Order: 1}
	q2 := store.Question{ID: uuid.New(), Order: 2}
	s := NewScorer(likert(), []store.Question{q1, q2}, discardLogger())

	_, err := s.Score([]Answer{{q1.ID, 55}})
	if got := CountRejected(err); got != 2 {
		t.Errorf("expected 2 problems, got %d (%v)", got, err)
	}
	if CountRejected(nil) != 0 {
		t.Error("nil error should count zero")
	}
}

func TestScoreEmptyScale(t *testing.T) {
	s := NewScorer(nil, nil, discardLogger())
	if _, err := s.Score(nil); !errors.Is(err, ErrEmptyScale) {
		t.Errorf("expected ErrEmptyScale, got %v", err)
	}
}

func TestCollectResponsesSkipsCorrupt(t *testing.T) {
	q := uuid.New()
	good := &store.Assessment{ID: uuid.New(), Responses: []store.Response{
		{QuestionID: q, AnswerValue: 20, IsInverse: true, ScaleMax: 100, ScoredValue: 80},
	}}
	corrupt := &store.Assessment{ID: uuid.New(), Responses: []store.Response{
		{QuestionID: q, AnswerValue: 20, IsInverse: true, ScaleMax: 100, ScoredValue: 20},
	}}
	empty := &store.Assessment{ID: uuid.New()}

	b := CollectResponses([]*store.Assessment{good, corrupt, empty}, discardLogger())
	if b.Assessments != 1 {
		t.Errorf("expected 1 assessment collected, got %d", b.Assessments)
	}
	if len(b.Responses) != 1 || b.Responses[0].ScoredValue != 80 {
		t.Errorf("unexpected responses: %+v", b.Responses)
	}
	if len(b.Skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d", len(b.Skipped))
	}
	if b.Skipped[0].AssessmentID != corrupt.ID || b.Skipped[1].AssessmentID != empty.ID {
		t.Errorf("skipped in wrong order: %+v", b.Skipped)
	}
}
