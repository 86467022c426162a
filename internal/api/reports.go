package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Psyche/internal/actionplan"
	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
	"github.com/MikeSquared-Agency/Psyche/internal/render"
)

type ReportsHandler struct {
	svc *pipeline.Service
}

func NewReportsHandler(svc *pipeline.Service) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

func (h *ReportsHandler) Results(w http.ResponseWriter, r *http.Request) {
	sc, ok := scopeFromRequest(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Results(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ActionPlans returns only the selected plans for the scope.
func (h *ReportsHandler) ActionPlans(w http.ResponseWriter, r *http.Request) {
	sc, ok := scopeFromRequest(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Results(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	plans := res.ActionPlans
	if plans == nil {
		plans = actionplan.Selections{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"company_id":   res.CompanyID,
		"overall":      res.Result.Overall,
		"action_plans": plans,
	})
}

// Report composes the report document. format=md returns the Markdown rendition.
func (h *ReportsHandler) Report(w http.ResponseWriter, r *http.Request) {
	sc, ok := scopeFromRequest(w, r)
	if !ok {
		return
	}
	templateID, ok := optionalUUID(w, r.URL.Query().Get("template_id"), "template_id")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "md" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or md"})
		return
	}

	doc, err := h.svc.ComposeReport(r.Context(), sc, templateID)
	if err != nil {
		writeError(w, err)
		return
	}
	if format == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(render.Markdown(doc)))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type ExportRequest struct {
	TemplateID string `json:"template_id,omitempty"`
	Format     string `json:"format,omitempty"`
}

func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	sc, ok := scopeFromRequest(w, r)
	if !ok {
		return
	}
	var req ExportRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	templateID, ok := optionalUUID(w, req.TemplateID, "template_id")
	if !ok {
		return
	}

	art, err := h.svc.Export(r.Context(), sc, templateID, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, art)
}
