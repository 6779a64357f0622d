// internal/workers/matching/match-providers/handler.go
package matchproviders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coach-matching/internal/catalog"
	apperrors "coach-matching/internal/common/errors"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/metrics"
	"coach-matching/internal/common/observability"
	"coach-matching/internal/common/validation"
	"coach-matching/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "match-providers"
)

type Handler struct {
	config    *Config
	matcher   *matching.Matcher
	validator *validation.SchemaValidator
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(
	config *Config,
	source catalog.Source,
	engine *matching.Engine,
	validator *validation.SchemaValidator,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		matcher:   matching.NewMatcher(engine, source),
		validator: validator,
		obs:       obs,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

// parseInput validates the job variables against the registry schema and
// decodes them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	result, err := h.validator.ValidateJSON(TaskType, variables)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		details := strings.Join(result.GetErrorMessages(), "; ")
		if result.HasErrors("preferences") {
			return nil, apperrors.NewInvalidPreferencesError(details)
		}
		return nil, apperrors.NewInvalidInputError(details)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (output *Output, err error) {
	ctx, span := h.obs.StartSpan(ctx, TaskType+".execute",
		attribute.String("request_id", input.RequestID),
		attribute.Bool("inline_providers", input.Providers != nil),
	)
	defer func() { observability.EndSpan(span, err) }()

	result, err := h.matcher.Run(ctx, "zeebe", matching.Request{
		RequestID:   input.RequestID,
		Preferences: input.Preferences,
		Providers:   input.Providers,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Matches) > 0 {
		h.obs.RecordTopScore(ctx, result.Matches[0].MatchScore)
	}

	span.SetAttributes(
		attribute.Int("candidates", result.CandidateCount),
		attribute.Int("returned", len(result.Matches)),
	)

	output = &Output{
		MatchID:        result.MatchID,
		RequestID:      result.RequestID,
		Matches:        result.Matches,
		CandidateCount: result.CandidateCount,
		EligibleCount:  result.EligibleCount,
		MatchedAt:      result.MatchedAt,
	}

	h.logger.Info("providers matched", map[string]interface{}{
		"matchId":    output.MatchID,
		"requestId":  input.RequestID,
		"candidates": output.CandidateCount,
		"eligible":   output.EligibleCount,
		"returned":   len(output.Matches),
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

	// the job context may already be past its deadline
	h.errors.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
