package inspection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aport-academy/appraisal-api/internal/middleware"
	"github.com/aport-academy/appraisal-api/internal/store"
)

func postSubmit(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/inspections", strings.NewReader(body))
	req = req.WithContext(
		context.WithValue(req.Context(), middleware.UserIDKey, "3"),
	)
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestSubmitHandlerRejectsMissingMandatoryFields(t *testing.T) {
	svc, mgr := newTestService(t)
	h := NewHandler(svc)

	cases := []struct {
		name string
		body string
	}{
		{"empty model", `{"category":"Смартфон","model":"","market_price":"100000"}`},
		{"missing model", `{"category":"Смартфон","market_price":"100000"}`},
		{"missing price", `{"category":"Смартфон","model":"iPhone 15"}`},
		{"malformed body", `{"category":`},
	}

	for _, tc := range cases {
		rec := postSubmit(t, h, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}

	// rejected submissions leave no trace
	mgr.View(func(snap *store.Snapshot) {
		if len(snap.History) != 0 {
			t.Errorf("history has %d records after rejected submits, want 0", len(snap.History))
		}
		if snap.UserByID("3").Stats.XP != 18000 {
			t.Error("rejected submit credited XP")
		}
	})
}

func TestSubmitHandlerAcceptsValidRequest(t *testing.T) {
	svc, mgr := newTestService(t)
	h := NewHandler(svc)

	rec := postSubmit(t, h,
		`{"category":"Смартфон","model":"iPhone 15","market_price":"100000"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	mgr.View(func(snap *store.Snapshot) {
		if len(snap.History) != 1 {
			t.Fatalf("history has %d records, want 1", len(snap.History))
		}
		if snap.History[0].LoanAmount != 60000 {
			t.Errorf("loan = %d, want 60000", snap.History[0].LoanAmount)
		}
	})
}
