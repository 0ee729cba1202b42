package errortypes

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorConstructors(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name     string
		build    func(error, string) *AppError
		wantType ErrorType
	}{
		{"validation", ValidationError, ErrorTypeValidation},
		{"config", ConfigError, ErrorTypeConfig},
		{"database", DatabaseError, ErrorTypeDatabase},
		{"network", NetworkError, ErrorTypeNetwork},
		{"api", APIError, ErrorTypeAPI},
		{"crawl", CrawlError, ErrorTypeCrawl},
		{"transport", TransportError, ErrorTypeTransport},
		{"internal", InternalError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(base, "context message")
			if err.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, err.Type)
			}
			if !errors.Is(err, base) {
				t.Error("expected errors.Is to find the wrapped error")
			}
			want := "context message: boom"
			if err.Error() != want {
				t.Errorf("expected %q, got %q", want, err.Error())
			}
		})
	}
}

func TestWithField(t *testing.T) {
	err := CrawlError(errors.New("fetch failed"), "crawl aborted").
		WithField("url", "https://example.com/page").
		WithField("attempt", 3)

	if err.Fields["url"] != "https://example.com/page" {
		t.Errorf("expected url field, got %v", err.Fields["url"])
	}
	if err.Fields["attempt"] != 3 {
		t.Errorf("expected attempt field, got %v", err.Fields["attempt"])
	}
}

func TestWithFields(t *testing.T) {
	err := APIError(errors.New("status 500"), "provider call failed").
		WithFields(map[string]interface{}{
			"provider": "openai",
			"model":    "gpt-4",
		})

	if len(err.Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(err.Fields))
	}
}

func TestTypeCheckers(t *testing.T) {
	if !IsCrawlError(CrawlError(errors.New("x"), "")) {
		t.Error("IsCrawlError should match a crawl error")
	}
	if IsCrawlError(NetworkError(errors.New("x"), "")) {
		t.Error("IsCrawlError should not match a network error")
	}
	if IsTransportError(errors.New("plain")) {
		t.Error("IsTransportError should not match a plain error")
	}

	// Wrapped AppErrors should still be detected.
	wrapped := fmt.Errorf("outer: %w", TransportError(errors.New("stdio closed"), "transport loop failed"))
	if !IsTransportError(wrapped) {
		t.Error("IsTransportError should match through wrapping")
	}
}

func TestAppErrorWithoutMessage(t *testing.T) {
	err := InternalError(errors.New("bare"), "")
	if err.Error() != "bare" {
		t.Errorf("expected underlying message, got %q", err.Error())
	}
}
