// Package assistant proxies the AI gateway used for price estimation, IMEI
// sticker OCR and the in-app expert chat. The browser never talks to the
// gateway directly: the API key stays server-side and every failure maps to
// a fixed user-facing fallback phrase.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aport-academy/appraisal-api/internal/config"
	"github.com/aport-academy/appraisal-api/internal/core"
)

const systemInstruction = `
Ты — ИИ-ядро APORT ACADEMY PRO v6.
Твоя специализация: оценка электроники, техническая диагностика и рынок б/у техники Казахстана (OLX, Kaspi, Forte).

ПРОТОКОЛЫ:
1. ОЦЕНКА РЫНКА: При запросе цен всегда используй актуальные данные. Указывай 'Рыночную цену', 'Цена для выкупа' и 'Рекомендуемый залог' (60%).
2. OCR: При получении фото стикеров, извлекай ТОЛЬКО IMEI или Serial Number. Игнорируй остальной текст.
3. ДИАГНОСТИКА: По фото определяй выгорания экрана, трещины и неоригинальные запчасти.

Стиль ответов: Профессиональный, лаконичный, экспертный. Язык: Русский.
`

type Client struct {
	http   *http.Client
	config config.AssistantConfig
}

func NewClient(cfg config.AssistantConfig) *Client {
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Tools             []tool    `json:"tools,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// Citation is a web source the gateway grounded its answer on.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Result struct {
	Text      string
	Citations []Citation
}

type generateOptions struct {
	model      string
	withSearch bool
}

func (c *Client) generate(
	ctx context.Context,
	contents []Content,
	opts generateOptions,
) (*Result, error) {
	reqBody := generateRequest{
		Contents: contents,
		SystemInstruction: &Content{
			Parts: []Part{{Text: systemInstruction}},
		},
	}
	if opts.withSearch {
		reqBody.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding gateway request: %w", err)
	}

	url := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.config.BaseURL, "/"),
		opts.model,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"%w: gateway returned %d",
			core.ErrGatewayUnavailable,
			resp.StatusCode,
		)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", core.ErrGatewayUnavailable, err)
	}

	result := &Result{}
	if len(decoded.Candidates) > 0 {
		cand := decoded.Candidates[0]

		var text strings.Builder
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
		result.Text = text.String()

		if cand.GroundingMetadata != nil {
			for _, chunk := range cand.GroundingMetadata.GroundingChunks {
				if chunk.Web == nil || chunk.Web.URI == "" {
					continue
				}
				title := chunk.Web.Title
				if title == "" {
					title = "Источник"
				}
				result.Citations = append(result.Citations, Citation{
					Title: title,
					URI:   chunk.Web.URI,
				})
			}
		}
	}
	return result, nil
}

// stripDataURL drops a data:image/...;base64, prefix if the browser sent one.
func stripDataURL(image string) string {
	if idx := strings.Index(image, ","); idx >= 0 && strings.HasPrefix(image, "data:") {
		return image[idx+1:]
	}
	return image
}

func (c *Client) Generate(
	ctx context.Context,
	contents []Content,
	model string,
	withSearch bool,
) (*Result, error) {
	return c.generate(ctx, contents, generateOptions{
		model:      model,
		withSearch: withSearch,
	})
}
