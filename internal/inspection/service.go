package inspection

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/store"
)

const (
	xpPerInspection     = 50
	loanRate            = 0.6
	commentSerialPrefix = "S/N: "
)

type Service struct {
	state *state.Manager
}

func NewService(st *state.Manager) *Service {
	return &Service{state: st}
}

// LoanAmount is the offer for a given market price. Always rounded down.
func LoanAmount(marketPrice float64) int64 {
	if marketPrice <= 0 || math.IsNaN(marketPrice) || math.IsInf(marketPrice, 0) {
		return 0
	}
	return int64(math.Floor(marketPrice * loanRate))
}

// parsePrice mirrors the form behavior: the field is mandatory, but a
// non-numeric value degrades to 0 rather than erroring.
func parsePrice(raw string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// Submit appends an inspection record and credits the inspector inside one
// state update: the record, the 500-cap truncation and the stat increments
// land in the same persisted snapshot or not at all.
func (s *Service) Submit(
	ctx context.Context,
	userID string,
	req SubmitRequest,
) (*store.InspectionRecord, error) {
	category := store.Category(req.Category)
	if !store.ValidCategory(category) {
		return nil, core.ValidationError(
			fmt.Sprintf("unknown category %q", req.Category),
		)
	}

	if PhoneBlacklisted(req.Phone) {
		return nil, core.NewAppError(
			core.ErrInvalidInput,
			"client phone is blacklisted",
			http.StatusUnprocessableEntity,
			"PHONE_BLACKLISTED",
		)
	}

	checklist, err := normalizeChecklist(category, req.Checklist)
	if err != nil {
		return nil, err
	}

	price := parsePrice(req.MarketPrice)

	comment := req.Comment
	if req.Serial != "" || comment != "" {
		comment = commentSerialPrefix + req.Serial + "\n" + req.Comment
	}

	var saved store.InspectionRecord
	err = s.state.Update(ctx, func(snap *store.Snapshot) error {
		user := snap.UserByID(userID)
		if user == nil {
			return core.UnauthorizedError("unknown session user")
		}

		branchID := user.BranchID
		if branchID == "" {
			branchID = store.BranchGlobal
		}

		saved = store.InspectionRecord{
			ID:            uuid.NewString(),
			Timestamp:     time.Now().UTC(),
			BranchID:      branchID,
			InspectorID:   user.ID,
			InspectorName: user.Name,
			Phone:         req.Phone,
			Category:      category,
			Model:         req.Model,
			MarketPrice:   price,
			LoanAmount:    LoanAmount(price),
			Checklist:     checklist,
			Comment:       comment,
		}

		snap.History = append([]store.InspectionRecord{saved}, snap.History...)
		if len(snap.History) > store.HistoryCap {
			snap.History = snap.History[:store.HistoryCap]
		}

		user.Stats.CompletedChecks++
		user.Stats.XP += xpPerInspection
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// normalizeChecklist accepts a partial checklist and fills the remaining
// schema labels as unset. Labels outside the schema are rejected.
func normalizeChecklist(
	category store.Category,
	marks map[string]string,
) (map[string]store.Mark, error) {
	schema := ChecklistSchemas[category]
	allowed := make(map[string]struct{}, len(schema))
	for _, label := range schema {
		allowed[label] = struct{}{}
	}

	out := make(map[string]store.Mark, len(schema))
	for _, label := range schema {
		out[label] = store.MarkUnset
	}

	for label, raw := range marks {
		if _, ok := allowed[label]; !ok {
			return nil, core.ValidationError(
				fmt.Sprintf("checklist label %q is not part of the %s schema", label, category),
			)
		}
		switch store.Mark(raw) {
		case store.MarkOK, store.MarkBad, store.MarkUnset:
			out[label] = store.Mark(raw)
		default:
			return nil, core.ValidationError(
				fmt.Sprintf("invalid checklist mark %q for %q", raw, label),
			)
		}
	}
	return out, nil
}

// History returns the newest-first page of records visible to the caller.
func (s *Service) History(
	_ context.Context,
	page, pageSize int,
) (records []RecordResponse, total int) {
	s.state.View(func(snap *store.Snapshot) {
		total = len(snap.History)

		start := (page - 1) * pageSize
		if start >= total {
			records = []RecordResponse{}
			return
		}
		end := start + pageSize
		if end > total {
			end = total
		}

		records = make([]RecordResponse, 0, end-start)
		for _, rec := range snap.History[start:end] {
			records = append(records, ToRecordResponse(rec))
		}
	})
	return records, total
}
