package stats

type CategoryCountResponse struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Percent  int    `json:"percent"`
}

type ReportResponse struct {
	TotalLoanVolume int64                   `json:"total_loan_volume"`
	TotalCount      int                     `json:"total_count"`
	AverageTicket   int64                   `json:"average_ticket"`
	Categories      []CategoryCountResponse `json:"categories"`
}

type LeaderboardEntryResponse struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Rank     string `json:"rank"`
	XP       int    `json:"xp"`
}

type BranchPerformanceResponse struct {
	BranchID        string `json:"branch_id"`
	Name            string `json:"name"`
	City            string `json:"city"`
	UserCount       int    `json:"user_count"`
	TotalCount      int    `json:"total_count"`
	TotalLoanVolume int64  `json:"total_loan_volume"`
	AverageTicket   int64  `json:"average_ticket"`
}

func toReportResponse(report Report) ReportResponse {
	categories := make([]CategoryCountResponse, 0, len(report.Categories))
	for _, c := range report.Categories {
		categories = append(categories, CategoryCountResponse{
			Category: string(c.Category),
			Count:    c.Count,
			Percent:  c.Percent,
		})
	}
	return ReportResponse{
		TotalLoanVolume: report.TotalLoanVolume,
		TotalCount:      report.TotalCount,
		AverageTicket:   report.AverageTicket,
		Categories:      categories,
	}
}
