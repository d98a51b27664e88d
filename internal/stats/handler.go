package stats

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/middleware"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/store"
)

type Handler struct {
	state *state.Manager
}

func NewHandler(st *state.Manager) *Handler {
	return &Handler{state: st}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/stats", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/leaderboard", h.Leaderboard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(store.RoleAdmin, store.RoleHead))
			r.Get("/", h.Report)
		})

		r.With(adminOnly).Get("/branches", h.Branches)
	})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	period := Period(query.Get("period"))
	switch period {
	case "":
		period = PeriodDay
	case PeriodDay, PeriodMonth, PeriodCustom:
	default:
		core.BadRequest(w, "period must be day, month or custom")
		return
	}

	q := Query{
		Period:   period,
		BranchID: query.Get("branch"),
		Start:    query.Get("start"),
		End:      query.Get("end"),
	}

	var report Report
	now := time.Now()
	h.state.View(func(snap *store.Snapshot) {
		report = Compute(snap.History, q, now)
	})

	core.OK(w, toReportResponse(report))
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var top []store.User
	h.state.View(func(snap *store.Snapshot) {
		top = TopInCity(snap.Users(), snap.Branches, userID)
	})

	entries := make([]LeaderboardEntryResponse, 0, len(top))
	for i, u := range top {
		entries = append(entries, LeaderboardEntryResponse{
			Position: i + 1,
			UserID:   u.ID,
			Name:     u.Name,
			Rank:     u.Stats.Rank,
			XP:       u.Stats.XP,
		})
	}

	core.OK(w, entries)
}

func (h *Handler) Branches(w http.ResponseWriter, r *http.Request) {
	var perf []BranchPerformance
	h.state.View(func(snap *store.Snapshot) {
		perf = PerformanceByBranch(snap.History, snap.Branches, snap.Users())
	})

	out := make([]BranchPerformanceResponse, 0, len(perf))
	for _, p := range perf {
		out = append(out, BranchPerformanceResponse{
			BranchID:        p.Branch.ID,
			Name:            p.Branch.Name,
			City:            p.Branch.City,
			UserCount:       p.UserCount,
			TotalCount:      p.TotalCount,
			TotalLoanVolume: p.TotalLoanVolume,
			AverageTicket:   p.AverageTicket,
		})
	}

	core.OK(w, out)
}
