package scoring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

var (
	ErrUnknownQuestion      = errors.New("unknown question")
	ErrDuplicateAnswer      = errors.New("duplicate answer")
	ErrIncompleteAssessment = errors.New("incomplete assessment")
	ErrEmptyScale           = errors.New("no scale configured")
)

// Answer is one raw selection as submitted by a respondent.
type Answer struct {
	QuestionID uuid.UUID `json:"question_id" yaml:"question_id"`
	Value      float64   `json:"value" yaml:"value"`
}

// AnswerError ties a rejection to the question it concerns.
type AnswerError struct {
	QuestionID uuid.UUID
	Err        error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("question %s: %v", e.QuestionID, e.Err)
}

func (e *AnswerError) Unwrap() error { return e.Err }

// ScoredAssessment is a fully scored submission ready for persistence.
type ScoredAssessment struct {
	Responses    []store.Response `json:"responses"`
	OverallScore float64          `json:"overall_score"`
	Zone         Zone             `json:"zone"`
}

// Scorer turns raw answers into responses against one tenant's catalog.
type Scorer struct {
	scale     Scale
	scaleMax  float64
	questions []store.Question
	byID      map[uuid.UUID]store.Question
	logger    *slog.Logger
}

// NewScorer creates a Scorer for the given scale and question catalog.
func NewScorer(scale Scale, questions []store.Question, logger *slog.Logger) *Scorer {
	byID := make(map[uuid.UUID]store.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &Scorer{
		scale:     scale,
		scaleMax:  scale.Max(),
		questions: questions,
		byID:      byID,
		logger:    logger,
	}
}

// Score validates and scores a complete submission. Every catalog question must
// be answered exactly once with a configured scale value; otherwise nothing is
// scored and all problems are returned joined together.
func (s *Scorer) Score(answers []Answer) (*ScoredAssessment, error) {
	if len(s.scale) == 0 {
		return nil, ErrEmptyScale
	}

	var errs []error
	seen := make(map[uuid.UUID]bool, len(answers))
	responses := make([]store.Response, 0, len(answers))

	for _, a := range answers {
		q, ok := s.byID[a.QuestionID]
		if !ok {
			errs = append(errs, &AnswerError{QuestionID: a.QuestionID, Err: ErrUnknownQuestion})
			continue
		}
		if seen[a.QuestionID] {
			errs = append(errs, &AnswerError{QuestionID: a.QuestionID, Err: ErrDuplicateAnswer})
			continue
		}
		seen[a.QuestionID] = true

		if err := ValidateAnswer(s.scale, a.Value); err != nil {
			errs = append(errs, &AnswerError{QuestionID: a.QuestionID, Err: err})
			continue
		}

		inverse := q.Inverse()
		responses = append(responses, store.Response{
			QuestionID:  q.ID,
			AnswerValue: a.Value,
			IsInverse:   inverse,
			ScaleMax:    s.scaleMax,
			ScoredValue: Resolve(a.Value, inverse, s.scaleMax),
		})
	}

	for _, q := range s.questions {
		if !seen[q.ID] {
			errs = append(errs, &AnswerError{QuestionID: q.ID, Err: ErrIncompleteAssessment})
		}
	}

	if len(errs) > 0 {
		s.logger.Debug("submission rejected", "problems", len(errs))
		return nil, errors.Join(errs...)
	}

	var sum float64
	for _, r := range responses {
		sum += r.ScoredValue
	}
	overall := 0.0
	if len(responses) > 0 {
		overall = Round1(sum / float64(len(responses)))
	}

	return &ScoredAssessment{
		Responses:    responses,
		OverallScore: overall,
		Zone:         Classify(overall),
	}, nil
}

// CountRejected returns how many answer-level problems err carries.
func CountRejected(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
