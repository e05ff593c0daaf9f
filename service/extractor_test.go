package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnTengye/fleetdocs/config"
)

func newTestExtractService(url string) *ExtractService {
	return NewExtractService(&config.ExtractorConfig{
		APIURL:            url,
		APIToken:          "test-token",
		RequestsPerMinute: 6000,
		TimeoutSeconds:    5,
	})
}

func TestExtractSuccess(t *testing.T) {
	payload := []byte("%PDF-1.7 test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Unexpected authorization header: %s", got)
		}

		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Document != base64.StdEncoding.EncodeToString(payload) {
			t.Error("Document bytes not base64-encoded as expected")
		}
		if req.MimeType != "application/pdf" {
			t.Errorf("Unexpected mime type: %s", req.MimeType)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"msg":"ok","data":{"document_kind":"application","chassis_no":"WDB9634031L123456","insurer":"Axa"}}`))
	}))
	defer server.Close()

	doc, err := newTestExtractService(server.URL).Extract(context.Background(), payload, "application/pdf")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.ChassisNo != "WDB9634031L123456" {
		t.Errorf("Unexpected chassis: %s", doc.ChassisNo)
	}
	if doc.Insurer != "Axa" {
		t.Errorf("Unexpected insurer: %s", doc.Insurer)
	}
}

func TestExtractServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":1002,"msg":"unreadable document"}`))
	}))
	defer server.Close()

	_, err := newTestExtractService(server.URL).Extract(context.Background(), []byte("x"), "application/pdf")
	if err == nil || !strings.Contains(err.Error(), "unreadable document") {
		t.Errorf("Expected service error message, got %v", err)
	}
}

func TestExtractHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestExtractService(server.URL).Extract(context.Background(), []byte("x"), "application/pdf")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status error, got %v", err)
	}
}

func TestSerialLimiterPacesCalls(t *testing.T) {
	// 600 rpm = one call every 100ms.
	limiter := newSerialLimiter(600)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.waitTurn(context.Background()); err != nil {
			t.Fatalf("waitTurn failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Expected three calls to take at least 200ms, took %v", elapsed)
	}
}

func TestSerialLimiterCancelled(t *testing.T) {
	limiter := newSerialLimiter(1)
	if err := limiter.waitTurn(context.Background()); err != nil {
		t.Fatalf("First turn should be immediate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := limiter.waitTurn(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}
