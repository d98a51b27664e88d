package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aport-academy/appraisal-api/internal/core"
)

type Handler struct {
	service   *Service
	system    *SystemHandler
	validator *validator.Validate
}

func NewHandler(service *Service, system *SystemHandler) *Handler {
	return &Handler{
		service:   service,
		system:    system,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Delete("/users/{username}", h.DeleteUser)

		r.Get("/branches", h.ListBranches)
		r.Post("/branches", h.CreateBranch)
		r.Delete("/branches/{branchID}", h.DeleteBranch)

		if h.system != nil {
			h.system.RegisterRoutes(r)
		}
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.ListUsers(r.Context()))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.service.DeleteUser(r.Context(), username); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.service.ListBranches(r.Context()))
}

func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateBranch(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")

	if err := h.service.DeleteBranch(r.Context(), branchID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}
