package inspection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/store"
)

func newTestService(t *testing.T) (*Service, *state.Manager) {
	t.Helper()

	mgr, err := state.NewManager(
		context.Background(),
		store.NewMemoryStore(),
		"123",
		slog.New(slog.DiscardHandler),
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewService(mgr), mgr
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		Category:    string(store.CategorySmartphone),
		Model:       "iPhone 15 Pro",
		Serial:      "F2LLD0AAQ1GC",
		MarketPrice: "100000",
		Checklist:   map[string]string{"Камеры": "ok", "TrueTone": "bad"},
		Comment:     "царапина на рамке",
	}
}

func TestLoanAmount(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{100000, 60000},
		{99999, 59999}, // 59999.4 floors down
		{1, 0},
		{0, 0},
		{-50, 0},
	}
	for _, tt := range tests {
		if got := LoanAmount(tt.price); got != tt.want {
			t.Errorf("LoanAmount(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestParsePriceUnparseableIsZero(t *testing.T) {
	for _, raw := range []string{"abc", "", "12,5", "NaN", "Inf", "-100"} {
		if got := parsePrice(raw); got != 0 {
			t.Errorf("parsePrice(%q) = %v, want 0", raw, got)
		}
	}
	if got := parsePrice(" 150000.5 "); got != 150000.5 {
		t.Errorf("parsePrice trimmed = %v, want 150000.5", got)
	}
}

func TestSubmitAppendsRecordAndCreditsInspector(t *testing.T) {
	svc, mgr := newTestService(t)

	// manager_user, id 3, branch b1, seeded with 18000 XP / 120 checks
	rec, err := svc.Submit(context.Background(), "3", validRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if rec.LoanAmount != 60000 {
		t.Errorf("LoanAmount = %d, want 60000", rec.LoanAmount)
	}
	if rec.BranchID != "b1" {
		t.Errorf("BranchID = %q, want b1", rec.BranchID)
	}
	if rec.InspectorName != "Дмитрий В." {
		t.Errorf("InspectorName = %q", rec.InspectorName)
	}
	if !strings.HasPrefix(rec.Comment, "S/N: F2LLD0AAQ1GC\n") {
		t.Errorf("Comment = %q, want S/N prefix", rec.Comment)
	}
	// partial checklist is filled with unset marks
	if rec.Checklist["Камеры"] != store.MarkOK {
		t.Errorf("Камеры = %q, want ok", rec.Checklist["Камеры"])
	}
	if rec.Checklist["АКБ (%)"] != store.MarkUnset {
		t.Errorf("АКБ (%%) = %q, want unset", rec.Checklist["АКБ (%)"])
	}

	mgr.View(func(snap *store.Snapshot) {
		if len(snap.History) != 1 {
			t.Fatalf("history size = %d, want 1", len(snap.History))
		}
		if snap.History[0].ID != rec.ID {
			t.Error("newest record is not at index 0")
		}
		u := snap.UserByID("3")
		if u.Stats.XP != 18050 {
			t.Errorf("XP = %d, want 18050", u.Stats.XP)
		}
		if u.Stats.CompletedChecks != 121 {
			t.Errorf("CompletedChecks = %d, want 121", u.Stats.CompletedChecks)
		}
	})
}

func TestSubmitUnparseablePriceSavesZeroLoan(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.MarketPrice = "дорого"

	rec, err := svc.Submit(context.Background(), "3", req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.MarketPrice != 0 || rec.LoanAmount != 0 {
		t.Errorf("price=%v loan=%d, want both 0", rec.MarketPrice, rec.LoanAmount)
	}
}

func TestSubmitHistoryCapIsFIFO(t *testing.T) {
	svc, mgr := newTestService(t)
	ctx := context.Background()

	for i := 0; i < store.HistoryCap+10; i++ {
		req := validRequest()
		req.Model = fmt.Sprintf("device-%d", i)
		if _, err := svc.Submit(ctx, "3", req); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	mgr.View(func(snap *store.Snapshot) {
		if len(snap.History) != store.HistoryCap {
			t.Fatalf("history size = %d, want %d", len(snap.History), store.HistoryCap)
		}
		if snap.History[0].Model != fmt.Sprintf("device-%d", store.HistoryCap+9) {
			t.Errorf("newest = %q, want the last submission", snap.History[0].Model)
		}
		// the 10 oldest submissions were evicted
		oldest := snap.History[len(snap.History)-1].Model
		if oldest != "device-10" {
			t.Errorf("oldest = %q, want device-10", oldest)
		}
	})
}

func TestSubmitUnsetBranchFallsBackToGlobal(t *testing.T) {
	svc, _ := newTestService(t)

	// master, id 1, has no branch assignment
	rec, err := svc.Submit(context.Background(), "1", validRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.BranchID != store.BranchGlobal {
		t.Errorf("BranchID = %q, want %q", rec.BranchID, store.BranchGlobal)
	}
}

func TestSubmitRejectsBlacklistedPhone(t *testing.T) {
	svc, mgr := newTestService(t)

	req := validRequest()
	req.Phone = "+7 (777) 111-22-33"

	_, err := svc.Submit(context.Background(), "3", req)
	if err == nil {
		t.Fatal("expected a rejection for a blacklisted phone")
	}

	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "PHONE_BLACKLISTED" {
		t.Fatalf("err = %v, want PHONE_BLACKLISTED", err)
	}

	mgr.View(func(snap *store.Snapshot) {
		if len(snap.History) != 0 {
			t.Error("rejected submission still reached the history")
		}
		if snap.UserByID("3").Stats.XP != 18000 {
			t.Error("rejected submission still credited XP")
		}
	})
}

func TestSubmitRejectsUnknownCategoryAndLabels(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := validRequest()
	req.Category = "Телевизор"
	if _, err := svc.Submit(ctx, "3", req); err == nil {
		t.Error("unknown category accepted")
	}

	req = validRequest()
	req.Checklist = map[string]string{"Матрица": "ok"} // laptop label on a smartphone
	if _, err := svc.Submit(ctx, "3", req); err == nil {
		t.Error("out-of-schema label accepted")
	}

	req = validRequest()
	req.Checklist = map[string]string{"Камеры": "maybe"}
	if _, err := svc.Submit(ctx, "3", req); err == nil {
		t.Error("invalid mark accepted")
	}
}

func TestPhoneBlacklisted(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"77771112233", true},
		{"+7 777 111 22 33", true},
		{"7071234567", true},
		{"87071234567", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := PhoneBlacklisted(tt.phone); got != tt.want {
			t.Errorf("PhoneBlacklisted(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestHistoryPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		req := validRequest()
		req.Model = fmt.Sprintf("device-%d", i)
		if _, err := svc.Submit(ctx, "3", req); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	page1, total := svc.History(ctx, 1, 2)
	if total != 5 || len(page1) != 2 {
		t.Fatalf("page1: len=%d total=%d, want 2/5", len(page1), total)
	}
	if page1[0].Model != "device-4" {
		t.Errorf("first item = %q, want newest", page1[0].Model)
	}

	page3, _ := svc.History(ctx, 3, 2)
	if len(page3) != 1 {
		t.Errorf("page3 len = %d, want 1", len(page3))
	}

	beyond, _ := svc.History(ctx, 4, 2)
	if len(beyond) != 0 {
		t.Errorf("out-of-range page returned %d items", len(beyond))
	}
}
