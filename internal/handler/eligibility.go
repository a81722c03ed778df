package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pass-eligibility-api/internal/validation"
)

// CheckEligibility handles GET /me/beneficiaries/{id}/eligibility
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	id := validation.SanitizeString(chi.URLParam(r, "id"))
	result, err := h.service.CheckEligibility(r.Context(), profileID, id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// CheckAllEligibility handles GET /me/eligibility
func (h *Handler) CheckAllEligibility(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	response, err := h.service.CheckAllEligibility(r.Context(), profileID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// AvailablePasses handles GET /me/passes?group=...
func (h *Handler) AvailablePasses(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	group := validation.SanitizeString(r.URL.Query().Get("group"))
	offers, err := h.service.AvailablePasses(r.Context(), profileID, group)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, offers)
}

// NoNameImpact handles GET /me/no-name-impact
func (h *Handler) NoNameImpact(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	warnings, err := h.service.NoNameImpact(r.Context(), profileID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, warnings)
}
