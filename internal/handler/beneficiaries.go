package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/validation"
)

// ListBeneficiaries handles GET /me/beneficiaries
func (h *Handler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	beneficiaries, err := h.service.ListBeneficiaries(r.Context(), profileID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, beneficiaries)
}

// CreateBeneficiary handles POST /me/beneficiaries
func (h *Handler) CreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	var req models.BeneficiaryRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.CreateBeneficiary(r.Context(), profileID, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, b)
}

// UpdateBeneficiary handles PUT /me/beneficiaries/{id}
func (h *Handler) UpdateBeneficiary(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	var req models.BeneficiaryRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := validation.SanitizeString(chi.URLParam(r, "id"))
	b, err := h.service.UpdateBeneficiary(r.Context(), profileID, id, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, b)
}

// DeleteBeneficiary handles DELETE /me/beneficiaries/{id}
func (h *Handler) DeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	id := validation.SanitizeString(chi.URLParam(r, "id"))
	if err := h.service.DeleteBeneficiary(r.Context(), profileID, id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTransfers handles GET /me/transfers
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	transfers, err := h.service.ListTransfers(r.Context(), profileID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, transfers)
}

// CreateTransfer handles POST /me/transfers
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}

	var req models.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	transfer, err := h.service.CreateTransfer(r.Context(), profileID, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, transfer)
}
