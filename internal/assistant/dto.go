package assistant

type ChatMessage struct {
	Role string `json:"role" validate:"required,oneof=user model"`
	Text string `json:"text" validate:"required,max=8000"`
}

type ChatRequest struct {
	History []ChatMessage `json:"history" validate:"max=50,dive"`
	Message string        `json:"message" validate:"required,max=8000"`
}

type ChatResponse struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

type EstimateRequest struct {
	Model string `json:"model" validate:"required,max=128"`
}

type EstimateResponse struct {
	Text string `json:"text"`
}

type ScanRequest struct {
	Image string `json:"image" validate:"required"`
}

type ScanResponse struct {
	Serial string `json:"serial"`
}

type AnalyzeRequest struct {
	Image  string `json:"image"  validate:"required"`
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

type AnalyzeResponse struct {
	Text string `json:"text"`
}
