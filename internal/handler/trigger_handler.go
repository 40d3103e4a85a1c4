package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// BatchRunner is the trigger-facing surface of the dispatcher.
type BatchRunner interface {
	RunDue(ctx context.Context) error
}

// TriggerHandler handles the periodic trigger endpoint. It is meant to be
// hit by an external scheduler (cron, uptime monitor) roughly once a
// minute, and is protected by a shared secret.
type TriggerHandler struct {
	runner BatchRunner
	logger *slog.Logger
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(runner BatchRunner, logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{
		runner: runner,
		logger: logger,
	}
}

// TriggerResponse reports a trigger run's outcome
type TriggerResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Run handles POST /trigger/run
func (h *TriggerHandler) Run(w http.ResponseWriter, r *http.Request) {
	// A run sleeps between messages and can outlast the server's write
	// timeout; lift it for this request so the batch is not cut off.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Warn("failed to clear write deadline", slog.String("error", err.Error()))
	}

	if err := h.runner.RunDue(r.Context()); err != nil {
		// Campaign-level failures already moved the affected campaigns
		// to the error status; report them to the caller.
		h.logger.Error("trigger run finished with errors", slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, TriggerResponse{
			Status: "error",
			Error:  err.Error(),
		})
		return
	}

	respondSuccess(w, TriggerResponse{Status: "ok"})
}
