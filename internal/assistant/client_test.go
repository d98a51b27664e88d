package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aport-academy/appraisal-api/internal/config"
	"github.com/aport-academy/appraisal-api/internal/core"
)

func gatewayConfig(baseURL string) config.AssistantConfig {
	return config.AssistantConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		ChatModel: "gemini-3-pro-preview",
		ScanModel: "gemini-3-flash-preview",
		Timeout:   5 * time.Second,
		CacheTTL:  time.Minute,
	}
}

func newTestServiceAt(t *testing.T, baseURL string) *Service {
	t.Helper()
	// Cache lookups fail open on an unreachable redis, which is exactly
	// the cache-miss path these tests want.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := gatewayConfig(baseURL)
	return NewService(NewClient(cfg), rdb, cfg, slog.New(slog.DiscardHandler))
}

func TestGenerateSendsModelAndKeyAndParsesCitations(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("request body: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "iPhone 15: "}, {"text": "450000 тг"}]},
				"groundingMetadata": {"groundingChunks": [
					{"web": {"title": "Kaspi", "uri": "https://kaspi.kz/p/1"}},
					{"web": {"title": "", "uri": "https://olx.kz/q/2"}},
					{"web": {"title": "dead", "uri": ""}}
				]}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(gatewayConfig(srv.URL))
	result, err := client.Generate(
		context.Background(),
		[]Content{{Role: "user", Parts: []Part{{Text: "оцени iPhone 15"}}}},
		"gemini-3-pro-preview",
		true,
	)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotPath != "/v1beta/models/gemini-3-pro-preview:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotReq.SystemInstruction == nil || len(gotReq.SystemInstruction.Parts) == 0 {
		t.Error("system instruction missing from request")
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].GoogleSearch == nil {
		t.Error("search tool missing from request")
	}

	if result.Text != "iPhone 15: 450000 тг" {
		t.Errorf("text = %q", result.Text)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("citations = %d, want 2 (empty URI dropped)", len(result.Citations))
	}
	if result.Citations[0].Title != "Kaspi" {
		t.Errorf("citation title = %q", result.Citations[0].Title)
	}
	if result.Citations[1].Title != "Источник" {
		t.Errorf("untitled citation = %q, want default", result.Citations[1].Title)
	}
}

func TestGenerateOmitsSearchToolWhenDisabled(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(gatewayConfig(srv.URL))
	if _, err := client.Generate(
		context.Background(),
		[]Content{{Role: "user", Parts: []Part{{Text: "hi"}}}},
		"gemini-3-flash-preview",
		false,
	); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(gotReq.Tools) != 0 {
		t.Error("search tool sent with search disabled")
	}
}

func TestGenerateGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(gatewayConfig(srv.URL))
	_, err := client.Generate(
		context.Background(),
		[]Content{{Parts: []Part{{Text: "x"}}}},
		"gemini-3-pro-preview",
		false,
	)
	if !errors.Is(err, core.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}

func TestServiceFallbacksOnGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	svc := newTestServiceAt(t, srv.URL)
	ctx := context.Background()

	if got := svc.EstimatePrice(ctx, "iPhone 15"); got != "Не удалось связаться с ИИ для оценки." {
		t.Errorf("estimate fallback = %q", got)
	}
	if got := svc.ScanSerial(ctx, "aGVsbG8="); got != "Ошибка сканирования." {
		t.Errorf("scan fallback = %q", got)
	}
	if text, citations := svc.Chat(ctx, nil, "привет"); text != "Ошибка связи с ИИ." || citations != nil {
		t.Errorf("chat fallback = %q, citations = %v", text, citations)
	}
	if got := svc.AnalyzeImage(ctx, "aGVsbG8=", "что с экраном?"); got != "Ошибка анализа." {
		t.Errorf("analyze fallback = %q", got)
	}
}

func TestEstimateEmptyAnswerHasOwnFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()
	svc := newTestServiceAt(t, srv.URL)

	if got := svc.EstimatePrice(context.Background(), "iPhone 15"); got != "Ошибка оценки." {
		t.Errorf("estimate = %q, want empty-reply fallback", got)
	}
}

func TestScanSerialEmptyAnswerFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`))
	}))
	defer srv.Close()
	svc := newTestServiceAt(t, srv.URL)

	if got := svc.ScanSerial(context.Background(), "aGVsbG8="); got != "Не удалось распознать." {
		t.Errorf("scan = %q, want recognition fallback", got)
	}
}

func TestChatEmptyAnswerBecomesEllipsis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()
	svc := newTestServiceAt(t, srv.URL)

	text, _ := svc.Chat(context.Background(), []ChatTurn{{Role: "user", Text: "ранее"}}, "ещё")
	if text != "..." {
		t.Errorf("text = %q, want ...", text)
	}
}

func TestStripDataURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"data:image/jpeg;base64,aGVsbG8=", "aGVsbG8="},
		{"aGVsbG8=", "aGVsbG8="},
		{"payload,with,commas", "payload,with,commas"},
	}
	for _, tc := range cases {
		if got := stripDataURL(tc.in); got != tc.want {
			t.Errorf("stripDataURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
