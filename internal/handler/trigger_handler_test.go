package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

type mockBatchRunner struct {
	err   error
	calls int
}

func (m *mockBatchRunner) RunDue(ctx context.Context) error {
	m.calls++
	return m.err
}

func newTriggerServer(runner *mockBatchRunner, secret string) http.Handler {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	trigger := NewTriggerHandler(runner, logger)

	mux := http.NewServeMux()
	mux.Handle("/trigger/run", TriggerSecretMiddleware(secret)(http.HandlerFunc(trigger.Run)))
	return mux
}

func TestTriggerEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		header     string
		runErr     error
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "valid secret runs the tick",
			secret:     "s3cret",
			header:     "s3cret",
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "wrong secret is rejected",
			secret:     "s3cret",
			header:     "wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing secret header is rejected",
			secret:     "s3cret",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unconfigured secret disables the endpoint",
			secret:     "",
			header:     "anything",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "run failure surfaces as server error",
			secret:     "s3cret",
			header:     "s3cret",
			runErr:     errors.New("batch failed"),
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockBatchRunner{err: tt.runErr}
			server := newTriggerServer(runner, tt.secret)

			req := httptest.NewRequest(http.MethodPost, "/trigger/run", nil)
			if tt.header != "" {
				req.Header.Set("X-Trigger-Secret", tt.header)
			}

			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if runner.calls != tt.wantCalls {
				t.Errorf("RunDue calls = %d, want %d", runner.calls, tt.wantCalls)
			}

			if rec.Code == http.StatusOK && !strings.Contains(rec.Body.String(), `"ok"`) {
				t.Errorf("body = %s, want ok status", rec.Body.String())
			}
		})
	}
}
