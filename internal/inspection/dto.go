package inspection

import (
	"time"

	"github.com/aport-academy/appraisal-api/internal/store"
)

type SubmitRequest struct {
	Category    string            `json:"category"     validate:"required"`
	Model       string            `json:"model"        validate:"required,max=128"`
	Serial      string            `json:"serial"       validate:"max=64"`
	Phone       string            `json:"phone"        validate:"max=32"`
	MarketPrice string            `json:"market_price" validate:"required,max=32"`
	Checklist   map[string]string `json:"checklist"`
	Comment     string            `json:"comment"      validate:"max=2000"`
}

type RecordResponse struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	BranchID      string            `json:"branch_id"`
	InspectorID   string            `json:"inspector_id"`
	InspectorName string            `json:"inspector_name"`
	Phone         string            `json:"phone,omitempty"`
	Category      string            `json:"category"`
	Model         string            `json:"model"`
	MarketPrice   float64           `json:"market_price"`
	LoanAmount    int64             `json:"loan_amount"`
	Checklist     map[string]string `json:"checklist"`
	Comment       string            `json:"comment,omitempty"`
}

type ChecklistSchemaResponse struct {
	Category string   `json:"category"`
	Labels   []string `json:"labels"`
}

func ToRecordResponse(rec store.InspectionRecord) RecordResponse {
	checklist := make(map[string]string, len(rec.Checklist))
	for label, mark := range rec.Checklist {
		checklist[label] = string(mark)
	}
	return RecordResponse{
		ID:            rec.ID,
		Timestamp:     rec.Timestamp,
		BranchID:      rec.BranchID,
		InspectorID:   rec.InspectorID,
		InspectorName: rec.InspectorName,
		Phone:         rec.Phone,
		Category:      string(rec.Category),
		Model:         rec.Model,
		MarketPrice:   rec.MarketPrice,
		LoanAmount:    rec.LoanAmount,
		Checklist:     checklist,
		Comment:       rec.Comment,
	}
}
