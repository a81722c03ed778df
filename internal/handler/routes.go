package handler

import (
	"github.com/go-chi/chi/v5"

	"pass-eligibility-api/internal/middleware"
)

// Mount registers every API route on r. Routes under /me require a bearer
// token accepted by validator.
func (h *Handler) Mount(r chi.Router, validator middleware.TokenValidator) {
	r.Get("/health", h.Health)
	r.Get("/blackout", h.GetBlackout)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator))

		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)

		r.Get("/eligibility", h.CheckAllEligibility)
		r.Get("/passes", h.AvailablePasses)
		r.Get("/no-name-impact", h.NoNameImpact)

		r.Route("/beneficiaries", func(r chi.Router) {
			r.Get("/", h.ListBeneficiaries)
			r.Post("/", h.CreateBeneficiary)
			r.Put("/{id}", h.UpdateBeneficiary)
			r.Delete("/{id}", h.DeleteBeneficiary)
			r.Get("/{id}/eligibility", h.CheckEligibility)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/", h.ListTransfers)
			r.Post("/", h.CreateTransfer)
		})
	})
}
