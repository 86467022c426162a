package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
	"github.com/MikeSquared-Agency/Psyche/internal/report"
	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// problem is one entry of a 422 response.
type problem struct {
	QuestionID *uuid.UUID `json:"question_id,omitempty"`
	Path       string     `json:"path,omitempty"`
	Error      string     `json:"error"`
}

// writeError maps service errors to statuses. Validation failures list every
// problem found so a client can fix them all in one round.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrCompanyNotFound),
		errors.Is(err, pipeline.ErrAssessmentNotFound),
		errors.Is(err, pipeline.ErrTemplateNotFound),
		errors.Is(err, report.ErrSectionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case pipeline.IsRejection(err):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":    "submission rejected",
			"problems": problems(err),
		})
	case errors.Is(err, report.ErrInvalidPatch), errors.Is(err, pipeline.ErrTemplateName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, pipeline.ErrExportDisabled):
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func problems(err error) []problem {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	out := make([]problem, 0, len(errs))
	for _, e := range errs {
		p := problem{Error: e.Error()}
		var ae *scoring.AnswerError
		var se *report.SchemaError
		switch {
		case errors.As(e, &ae):
			id := ae.QuestionID
			p.QuestionID = &id
			p.Error = ae.Err.Error()
		case errors.As(e, &se):
			p.Path = se.Path
			p.Error = se.Msg
		}
		out = append(out, p)
	}
	return out
}

// writeBadBody reports an undecodable request body. Section payload problems
// are listed individually.
func writeBadBody(w http.ResponseWriter, err error) {
	var se *report.SchemaError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "invalid sections",
			"problems": problems(err),
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
}

func parseUUIDParam(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// parseTime accepts RFC 3339 timestamps or plain dates. A plain "to" date
// covers the whole day.
func parseTime(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}
