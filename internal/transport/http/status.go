package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"broker/internal/engine"
	"broker/internal/progress"
	"broker/internal/submission"
	"broker/pkg/domain"
	"broker/pkg/platform/httputil"
	"broker/pkg/sentinel"
)

// SubmissionReader loads submission metadata.
type SubmissionReader interface {
	Get(ctx context.Context, id domain.SubmissionID) (*submission.Submission, error)
}

// Summarizer returns per-rule error counts.
type Summarizer interface {
	Summarize(ctx context.Context, id domain.SubmissionID) ([]engine.Summary, error)
}

// RunStateReader returns the last heartbeat of a validation run.
type RunStateReader interface {
	Current(ctx context.Context, id domain.SubmissionID) (progress.State, error)
}

// StatusHandler serves GET /v1/submissions/{id}/status.
type StatusHandler struct {
	submissions SubmissionReader
	summaries   Summarizer
	runs        RunStateReader
	logger      *slog.Logger
}

// NewStatusHandler constructs the status handler.
func NewStatusHandler(submissions SubmissionReader, summaries Summarizer, runs RunStateReader, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		submissions: submissions,
		summaries:   summaries,
		runs:        runs,
		logger:      logger,
	}
}

// Register mounts the status endpoint.
func (h *StatusHandler) Register(r chi.Router) {
	r.Get("/v1/submissions/{id}/status", h.HandleStatus)
}

type ruleCount struct {
	RuleLabel string `json:"rule_label"`
	Severity  string `json:"severity"`
	Count     int    `json:"count"`
}

type statusResponse struct {
	SubmissionID  string          `json:"submission_id"`
	FiscalYear    int             `json:"reporting_fiscal_year"`
	FiscalPeriod  int             `json:"reporting_fiscal_period"`
	PublishStatus string          `json:"publish_status"`
	Run           *progress.State `json:"run,omitempty"`
	RuleCounts    []ruleCount     `json:"rule_counts"`
}

// HandleStatus returns submission metadata, the current run heartbeat when one
// exists, and the per-rule error counts of the last validation.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission id"})
		return
	}

	sub, err := h.submissions.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	counts, err := h.summaries.Summarize(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "summarize submission errors failed",
			"submission_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	resp := statusResponse{
		SubmissionID:  sub.ID.String(),
		FiscalYear:    sub.FiscalYear,
		FiscalPeriod:  sub.FiscalPeriod,
		PublishStatus: string(sub.PublishStatus),
		RuleCounts:    make([]ruleCount, 0, len(counts)),
	}
	for _, c := range counts {
		resp.RuleCounts = append(resp.RuleCounts, ruleCount{
			RuleLabel: c.RuleLabel,
			Severity:  string(c.Severity),
			Count:     c.Count,
		})
	}

	if h.runs != nil {
		state, err := h.runs.Current(ctx, id)
		switch {
		case err == nil:
			resp.Run = &state
		case !errors.Is(err, sentinel.ErrNotFound):
			h.logger.WarnContext(ctx, "run state unavailable",
				"submission_id", id, "error", err)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
