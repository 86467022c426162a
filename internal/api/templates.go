package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
	"github.com/MikeSquared-Agency/Psyche/internal/report"
)

type TemplatesHandler struct {
	svc *pipeline.Service
}

func NewTemplatesHandler(svc *pipeline.Service) *TemplatesHandler {
	return &TemplatesHandler{svc: svc}
}

type CreateTemplateRequest struct {
	Name     string              `json:"name"`
	Sections *report.SectionList `json:"sections,omitempty"`
}

type UpdateTemplateRequest struct {
	Name string `json:"name"`
}

type DuplicateTemplateRequest struct {
	Name string `json:"name,omitempty"`
}

func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTemplates(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TemplatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadBody(w, err)
		return
	}
	var sections []report.Section
	if req.Sections != nil {
		sections = *req.Sections
	}
	t, err := h.svc.CreateTemplate(r.Context(), TenantID(r.Context()), req.Name, sections)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "template id")
	if !ok {
		return
	}
	t, err := h.svc.GetTemplate(r.Context(), TenantID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "template id")
	if !ok {
		return
	}
	var req UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	t, err := h.svc.RenameTemplate(r.Context(), TenantID(r.Context()), id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplatesHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "template id")
	if !ok {
		return
	}
	var patch report.SectionPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	t, err := h.svc.UpdateSection(r.Context(), TenantID(r.Context()), id, chi.URLParam(r, "section_id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplatesHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "template id")
	if !ok {
		return
	}
	var req DuplicateTemplateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	t, err := h.svc.DuplicateTemplate(r.Context(), TenantID(r.Context()), id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TemplatesHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "template id")
	if !ok {
		return
	}
	t, err := h.svc.SetDefaultTemplate(r.Context(), TenantID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "template id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTemplate(r.Context(), TenantID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
