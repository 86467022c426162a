package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
	"github.com/MikeSquared-Agency/Psyche/internal/scoring"
	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

type AssessmentsHandler struct {
	svc *pipeline.Service
}

func NewAssessmentsHandler(svc *pipeline.Service) *AssessmentsHandler {
	return &AssessmentsHandler{svc: svc}
}

type SubmitRequest struct {
	CompanyID    string             `json:"company_id"`
	Demographics store.Demographics `json:"demographics"`
	Answers      []scoring.Answer   `json:"answers"`
	SubmittedAt  *time.Time         `json:"submitted_at,omitempty"`
}

func (h *AssessmentsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadBody(w, err)
		return
	}
	companyID, ok := parseUUIDParam(w, req.CompanyID, "company_id")
	if !ok {
		return
	}

	a, err := h.svc.Submit(r.Context(), pipeline.Submission{
		TenantID:     TenantID(r.Context()),
		CompanyID:    companyID,
		Demographics: req.Demographics,
		Answers:      req.Answers,
		SubmittedAt:  req.SubmittedAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AssessmentFilter{
		TenantID:   TenantID(r.Context()),
		Department: q.Get("department"),
	}
	if raw := q.Get("company_id"); raw != "" {
		id, ok := parseUUIDParam(w, raw, "company_id")
		if !ok {
			return
		}
		filter.CompanyID = &id
	}
	var err error
	if filter.From, err = parseTime(q.Get("from"), false); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
		return
	}
	if filter.To, err = parseTime(q.Get("to"), true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
		return
	}
	if filter.Limit, err = parseInt(q.Get("limit")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit " + err.Error()})
		return
	}
	if filter.Offset, err = parseInt(q.Get("offset")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset " + err.Error()})
		return
	}

	list, err := h.svc.ListAssessments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*store.Assessment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AssessmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "assessment id")
	if !ok {
		return
	}
	a, err := h.svc.GetAssessment(r.Context(), TenantID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Relabel replaces demographics only; answers and scores cannot be edited.
func (h *AssessmentsHandler) Relabel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "assessment id")
	if !ok {
		return
	}
	var d store.Demographics
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	a, err := h.svc.Relabel(r.Context(), TenantID(r.Context()), id, d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// scopeFromRequest reads the company id path parameter and the from, to and
// department query parameters.
func scopeFromRequest(w http.ResponseWriter, r *http.Request) (pipeline.Scope, bool) {
	companyID, ok := parseUUIDParam(w, chi.URLParam(r, "company_id"), "company id")
	if !ok {
		return pipeline.Scope{}, false
	}
	q := r.URL.Query()
	sc := pipeline.Scope{
		TenantID:   TenantID(r.Context()),
		CompanyID:  companyID,
		Department: q.Get("department"),
	}
	var err error
	if sc.From, err = parseTime(q.Get("from"), false); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
		return pipeline.Scope{}, false
	}
	if sc.To, err = parseTime(q.Get("to"), true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
		return pipeline.Scope{}, false
	}
	return sc, true
}

func optionalUUID(w http.ResponseWriter, raw, name string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, ok := parseUUIDParam(w, raw, name)
	if !ok {
		return nil, false
	}
	return &id, true
}
