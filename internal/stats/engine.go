// Package stats derives analytics from the inspection history. The engine
// is a pure function over a history slice: it never touches the state
// manager, so identical inputs always produce identical reports.
package stats

import (
	"time"

	"github.com/aport-academy/appraisal-api/internal/store"
)

type Period string

const (
	PeriodDay    Period = "day"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

const dateLayout = "2006-01-02"

// AllBranches disables branch filtering in a Query.
const AllBranches = "all"

type Query struct {
	Period   Period
	BranchID string
	// Start and End bound a custom period, formatted as 2006-01-02. The
	// end day is included in full. A custom query with either bound unset
	// matches nothing.
	Start string
	End   string
}

type CategoryCount struct {
	Category store.Category
	Count    int
	Percent  int
}

type Report struct {
	TotalLoanVolume int64
	TotalCount      int
	AverageTicket   int64
	Categories      []CategoryCount
}

// Compute filters the history by branch, then by period, and aggregates.
// now is captured once by the caller so every window in one report is cut
// against the same instant.
func Compute(history []store.InspectionRecord, q Query, now time.Time) Report {
	cutoff, until, bounded := periodWindow(q, now)

	var report Report
	categoryIndex := make(map[store.Category]int)

	for _, rec := range history {
		if q.BranchID != "" && q.BranchID != AllBranches && rec.BranchID != q.BranchID {
			continue
		}
		if bounded {
			if rec.Timestamp.Before(cutoff) {
				continue
			}
			if !until.IsZero() && rec.Timestamp.After(until) {
				continue
			}
		} else {
			continue
		}

		report.TotalCount++
		if rec.LoanAmount > 0 {
			report.TotalLoanVolume += rec.LoanAmount
		}

		// categories keep first-seen order
		idx, ok := categoryIndex[rec.Category]
		if !ok {
			idx = len(report.Categories)
			categoryIndex[rec.Category] = idx
			report.Categories = append(report.Categories, CategoryCount{
				Category: rec.Category,
			})
		}
		report.Categories[idx].Count++
	}

	if report.TotalCount > 0 {
		report.AverageTicket = report.TotalLoanVolume / int64(report.TotalCount)
		for i := range report.Categories {
			report.Categories[i].Percent = percent(
				report.Categories[i].Count,
				report.TotalCount,
			)
		}
	}
	return report
}

// periodWindow returns the inclusive window for the query. bounded=false
// means the query can never match (custom period with missing bounds).
func periodWindow(q Query, now time.Time) (cutoff, until time.Time, bounded bool) {
	switch q.Period {
	case PeriodDay:
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return cutoff, time.Time{}, true
	case PeriodMonth:
		cutoff = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return cutoff, time.Time{}, true
	case PeriodCustom:
		if q.Start == "" || q.End == "" {
			return time.Time{}, time.Time{}, false
		}
		start, err := time.ParseInLocation(dateLayout, q.Start, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		end, err := time.ParseInLocation(dateLayout, q.End, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return start, end.Add(24 * time.Hour), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	// round half away from zero, matching integer percentage display
	return (part*100 + total/2) / total
}
