package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/AnTengye/fleetdocs/config"
	"github.com/AnTengye/fleetdocs/model"
)

// Extractor sends file bytes to the external document-understanding
// service and returns the structured payload it recognized.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*model.ExtractedDocument, error)
}

type ExtractService struct {
	config     *config.ExtractorConfig
	httpClient *http.Client
	limiter    *serialLimiter
}

var _ Extractor = (*ExtractService)(nil)

// extractRequest is the request to the extraction service
type extractRequest struct {
	Document string `json:"document"` // base64-encoded file bytes
	MimeType string `json:"mime_type"`
}

// extractResponse is the extraction service envelope
type extractResponse struct {
	Code    int                     `json:"code"`
	Message string                  `json:"msg"`
	Data    model.ExtractedDocument `json:"data"`
}

func NewExtractService(cfg *config.ExtractorConfig) *ExtractService {
	return &ExtractService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter: newSerialLimiter(cfg.RequestsPerMinute),
	}
}

// Extract performs one blocking extraction call. The service is shared and
// rate-limited, so calls are paced regardless of how the caller schedules
// them.
func (s *ExtractService) Extract(ctx context.Context, data []byte, mimeType string) (*model.ExtractedDocument, error) {
	if err := s.limiter.waitTurn(ctx); err != nil {
		return nil, err
	}

	reqBody := extractRequest{
		Document: base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/v1/extract", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, string(body))
	}

	var result extractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("extraction service error: %s", result.Message)
	}

	return &result.Data, nil
}

// serialLimiter paces calls so no more than the configured number happen
// per minute, spreading them rather than bursting.
type serialLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func newSerialLimiter(requestsPerMinute int) *serialLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &serialLimiter{interval: time.Minute / time.Duration(requestsPerMinute)}
}

func (l *serialLimiter) waitTurn(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	scheduled := now
	if l.nextAllowedAt.After(now) {
		scheduled = l.nextAllowedAt
	}
	l.nextAllowedAt = scheduled.Add(l.interval)
	l.mu.Unlock()

	sleep := time.Until(scheduled)
	if sleep <= 0 {
		return nil
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
