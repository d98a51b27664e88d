package stats

import (
	"testing"
	"time"

	"github.com/aport-academy/appraisal-api/internal/store"
)

func record(id, branchID string, category store.Category, loan int64, ts time.Time) store.InspectionRecord {
	return store.InspectionRecord{
		ID:         id,
		BranchID:   branchID,
		Category:   category,
		LoanAmount: loan,
		Timestamp:  ts,
	}
}

func TestComputeDayWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	history := []store.InspectionRecord{
		record("today", "b1", store.CategorySmartphone, 100, now.Add(-2*time.Hour)),
		record("yesterday", "b1", store.CategorySmartphone, 900, now.Add(-24*time.Hour)),
	}

	report := Compute(history, Query{Period: PeriodDay}, now)

	if report.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", report.TotalCount)
	}
	if report.TotalLoanVolume != 100 {
		t.Errorf("TotalLoanVolume = %d, want 100", report.TotalLoanVolume)
	}
}

func TestComputeMonthWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	history := []store.InspectionRecord{
		record("this-month", "b1", store.CategoryLaptop, 500, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
		record("last-month", "b1", store.CategoryLaptop, 500, time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)),
	}

	report := Compute(history, Query{Period: PeriodMonth}, now)

	if report.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", report.TotalCount)
	}
}

func TestComputeBranchFilterAppliedFirst(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	history := []store.InspectionRecord{
		record("a", "b1", store.CategorySmartphone, 100, now),
		record("b", "b2", store.CategorySmartphone, 200, now),
		record("c", "b1", store.CategoryWatch, 300, now),
	}

	all := Compute(history, Query{Period: PeriodDay, BranchID: AllBranches}, now)
	b1 := Compute(history, Query{Period: PeriodDay, BranchID: "b1"}, now)

	if all.TotalCount != 3 {
		t.Fatalf("all branches TotalCount = %d, want 3", all.TotalCount)
	}
	if b1.TotalCount != 2 {
		t.Fatalf("b1 TotalCount = %d, want 2", b1.TotalCount)
	}
	// narrowing the branch can never increase any aggregate
	if b1.TotalLoanVolume > all.TotalLoanVolume {
		t.Errorf("branch filter increased volume: %d > %d", b1.TotalLoanVolume, all.TotalLoanVolume)
	}
}

func TestComputeCustomRange(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	history := []store.InspectionRecord{
		record("in", "b1", store.CategorySmartphone, 100, time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)),
		// end day is included in full
		record("end-day", "b1", store.CategorySmartphone, 100, time.Date(2026, 8, 15, 23, 0, 0, 0, time.UTC)),
		record("out", "b1", store.CategorySmartphone, 100, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)),
	}

	report := Compute(history, Query{
		Period: PeriodCustom,
		Start:  "2026-08-10",
		End:    "2026-08-15",
	}, now)

	if report.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", report.TotalCount)
	}
}

func TestComputeCustomRangeMissingBoundMatchesNothing(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	history := []store.InspectionRecord{
		record("a", "b1", store.CategorySmartphone, 100, now),
	}

	for _, q := range []Query{
		{Period: PeriodCustom, Start: "2026-08-01"},
		{Period: PeriodCustom, End: "2026-08-28"},
		{Period: PeriodCustom},
	} {
		report := Compute(history, q, now)
		if report.TotalCount != 0 {
			t.Errorf("query %+v matched %d records, want 0", q, report.TotalCount)
		}
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	now := time.Now()

	report := Compute(nil, Query{Period: PeriodDay}, now)

	if report.TotalCount != 0 || report.TotalLoanVolume != 0 || report.AverageTicket != 0 {
		t.Fatalf("empty history produced non-zero report: %+v", report)
	}
	if len(report.Categories) != 0 {
		t.Fatalf("empty history produced categories: %+v", report.Categories)
	}
}

func TestComputeAverageTicketFloors(t *testing.T) {
	now := time.Now()
	history := []store.InspectionRecord{
		record("a", "b1", store.CategorySmartphone, 100, now),
		record("b", "b1", store.CategorySmartphone, 101, now),
		record("c", "b1", store.CategorySmartphone, 101, now),
	}

	report := Compute(history, Query{Period: PeriodDay}, now)

	if report.AverageTicket != 100 {
		t.Errorf("AverageTicket = %d, want 100 (302/3 floored)", report.AverageTicket)
	}
}

func TestComputeCategoryFirstSeenOrder(t *testing.T) {
	now := time.Now()
	history := []store.InspectionRecord{
		record("1", "b1", store.CategoryWatch, 10, now),
		record("2", "b1", store.CategorySmartphone, 10, now),
		record("3", "b1", store.CategoryWatch, 10, now),
		record("4", "b1", store.CategoryLaptop, 10, now),
	}

	report := Compute(history, Query{Period: PeriodDay}, now)

	want := []store.Category{store.CategoryWatch, store.CategorySmartphone, store.CategoryLaptop}
	if len(report.Categories) != len(want) {
		t.Fatalf("got %d categories, want %d", len(report.Categories), len(want))
	}
	for i, w := range want {
		if report.Categories[i].Category != w {
			t.Errorf("categories[%d] = %s, want %s", i, report.Categories[i].Category, w)
		}
	}
	if report.Categories[0].Count != 2 {
		t.Errorf("watch count = %d, want 2", report.Categories[0].Count)
	}
}

func TestComputeIsPure(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	history := []store.InspectionRecord{
		record("a", "b1", store.CategorySmartphone, 100, now),
		record("b", "b2", store.CategoryLaptop, 200, now),
	}
	q := Query{Period: PeriodDay, BranchID: AllBranches}

	first := Compute(history, q, now)
	second := Compute(history, q, now)

	if first.TotalCount != second.TotalCount ||
		first.TotalLoanVolume != second.TotalLoanVolume ||
		first.AverageTicket != second.AverageTicket {
		t.Errorf("identical inputs produced different reports: %+v vs %+v", first, second)
	}
	if history[0].LoanAmount != 100 || history[1].LoanAmount != 200 {
		t.Error("Compute mutated its input history")
	}
}
