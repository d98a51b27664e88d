package inspection

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/inspections", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/", h.List)
		r.Post("/", h.Submit)
		r.Get("/checklists", h.Checklists)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rec, err := h.service.Submit(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToRecordResponse(*rec))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	records, total := h.service.History(r.Context(), page, pageSize)
	core.Paginated(w, records, page, pageSize, total)
}

func (h *Handler) Checklists(w http.ResponseWriter, r *http.Request) {
	schemas := make([]ChecklistSchemaResponse, 0, len(CategoryOrder))
	for _, category := range CategoryOrder {
		schemas = append(schemas, ChecklistSchemaResponse{
			Category: string(category),
			Labels:   ChecklistSchemas[category],
		})
	}
	core.OK(w, schemas)
}

func paginationParams(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= maxPageSize {
			pageSize = v
		}
	}
	return page, pageSize
}
