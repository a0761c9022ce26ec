package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/metrics"
)

// ratePrompt is the fixed natural-language request sent to the AI endpoint.
// The deterministic-mode hint is the temperature 0 in the request body.
const ratePrompt = "What is the current exchange rate of 1 Brazilian Real (BRL) in Colombian Pesos (COP)? " +
	"Answer with only the numeric value, using a dot as decimal separator."

const rateCacheKey = "brl_cop_rate"

// firstNumberRE matches the first numeric token in the provider's free-form
// answer. A comma decimal separator is tolerated and normalized.
var firstNumberRE = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Request/response shapes for an OpenAI-compatible chat completions endpoint.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// RateServiceConfig carries the provider endpoint settings from config.
type RateServiceConfig struct {
	APIURL   string
	APIKey   string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type rateServiceImpl struct {
	httpClient http.Client
	cfg        RateServiceConfig
	cache      *cache.Cache
	metrics    *metrics.LiquidationMetrics
}

// NewRateService creates the BRL-to-COP rate provider backed by an AI completion
// endpoint. Successful fetches are cached for cfg.CacheTTL so repeated entry
// sessions do not hammer the provider.
func NewRateService(cfg RateServiceConfig, m *metrics.LiquidationMetrics) RateService {
	return &rateServiceImpl{
		httpClient: http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		cache:      cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		metrics:    m,
	}
}

func (s *rateServiceImpl) FetchRate(ctx context.Context) (float64, error) {
	if cached, found := s.cache.Get(rateCacheKey); found {
		if rate, ok := cached.(float64); ok {
			logger.L.Debug("Returning cached exchange rate", "rate", rate)
			return rate, nil
		}
	}

	started := time.Now()
	rate, err := s.queryProvider(ctx)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.RecordRateFetch(outcome, time.Since(started).Seconds())
	}
	if err != nil {
		logger.L.Error("Rate provider call failed", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	s.cache.Set(rateCacheKey, rate, cache.DefaultExpiration)
	logger.L.Info("Fetched exchange rate from provider", "rate", rate)
	return rate, nil
}

func (s *rateServiceImpl) queryProvider(ctx context.Context) (float64, error) {
	reqBody := chatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: 0,
		Messages:    []chatMessage{{Role: "user", Content: ratePrompt}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call rate provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, fmt.Errorf("rate provider returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return 0, fmt.Errorf("failed to decode rate provider response: %w", err)
	}
	if completion.Error != nil {
		return 0, fmt.Errorf("rate provider error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return 0, fmt.Errorf("rate provider response contained no choices")
	}

	return extractRate(completion.Choices[0].Message.Content)
}

// extractRate scans free-form provider text for the first numeric token.
func extractRate(text string) (float64, error) {
	match := firstNumberRE.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no numeric value found in provider response %q", truncate(text, 120))
	}
	rate, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate %q: %w", match, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("provider returned non-positive rate %v", rate)
	}
	return rate, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
