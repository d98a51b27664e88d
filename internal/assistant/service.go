package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/aport-academy/appraisal-api/internal/config"
)

// Fixed user-facing fallbacks. The gateway error itself is logged, never
// shown: the counter UI expects these exact phrases.
const (
	fallbackEstimate     = "Не удалось связаться с ИИ для оценки."
	fallbackEstimateNone = "Ошибка оценки."
	fallbackScanNone     = "Не удалось распознать."
	fallbackScan         = "Ошибка сканирования."
	fallbackChat         = "Ошибка связи с ИИ."
	fallbackAnalyze      = "Ошибка анализа."
)

const estimateCachePrefix = "assistant:estimate:"

type Service struct {
	client *Client
	redis  *redis.Client
	config config.AssistantConfig
	logger *slog.Logger
}

func NewService(
	client *Client,
	rdb *redis.Client,
	cfg config.AssistantConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		client: client,
		redis:  rdb,
		config: cfg,
		logger: logger,
	}
}

// EstimatePrice asks the gateway for a market valuation of a device model.
// Results are cached: price quotes for the same model are stable within
// the configured TTL and repeat lookups skip a paid gateway call.
func (s *Service) EstimatePrice(ctx context.Context, model string) string {
	cacheKey := estimateCachePrefix + hashKey(model)
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		return cached
	}

	prompt := fmt.Sprintf(
		"Дай оценку для: %s в Казахстане. Только цифры и краткие рекомендации.",
		model,
	)
	result, err := s.client.Generate(
		ctx,
		[]Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		s.config.ChatModel,
		true,
	)
	if err != nil {
		s.logger.Warn("price estimate failed", "error", err)
		return fallbackEstimate
	}
	if result.Text == "" {
		return fallbackEstimateNone
	}

	if err := s.redis.Set(ctx, cacheKey, result.Text, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn("estimate cache write failed", "error", err)
	}
	return result.Text
}

// ScanSerial extracts an IMEI or serial number from a sticker photo.
func (s *Service) ScanSerial(ctx context.Context, base64Image string) string {
	result, err := s.client.Generate(
		ctx,
		[]Content{{
			Role: "user",
			Parts: []Part{
				{InlineData: &InlineData{
					MimeType: "image/jpeg",
					Data:     stripDataURL(base64Image),
				}},
				{Text: "Найди IMEI или S/N на этом фото. Выведи только их."},
			},
		}},
		s.config.ScanModel,
		false,
	)
	if err != nil {
		s.logger.Warn("serial scan failed", "error", err)
		return fallbackScan
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return fallbackScanNone
	}
	return text
}

type ChatTurn struct {
	Role string
	Text string
}

// Chat relays a conversation to the gateway with web grounding enabled and
// returns the answer plus its source citations.
func (s *Service) Chat(
	ctx context.Context,
	history []ChatTurn,
	message string,
) (string, []Citation) {
	contents := make([]Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, Content{
			Role:  turn.Role,
			Parts: []Part{{Text: turn.Text}},
		})
	}
	contents = append(contents, Content{
		Role:  "user",
		Parts: []Part{{Text: message}},
	})

	result, err := s.client.Generate(ctx, contents, s.config.ChatModel, true)
	if err != nil {
		s.logger.Warn("assistant chat failed", "error", err)
		return fallbackChat, nil
	}
	if result.Text == "" {
		return "...", result.Citations
	}
	return result.Text, result.Citations
}

// AnalyzeImage runs a free-form diagnostic prompt against a device photo.
func (s *Service) AnalyzeImage(ctx context.Context, base64Image, prompt string) string {
	result, err := s.client.Generate(
		ctx,
		[]Content{{
			Role: "user",
			Parts: []Part{
				{InlineData: &InlineData{
					MimeType: "image/jpeg",
					Data:     stripDataURL(base64Image),
				}},
				{Text: prompt},
			},
		}},
		s.config.ScanModel,
		false,
	)
	if err != nil || result.Text == "" {
		if err != nil {
			s.logger.Warn("image analysis failed", "error", err)
		}
		return fallbackAnalyze
	}
	return result.Text
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(s))))
	return hex.EncodeToString(sum[:16])
}
