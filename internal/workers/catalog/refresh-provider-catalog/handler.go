// internal/workers/catalog/refresh-provider-catalog/handler.go
package refreshprovidercatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coach-matching/internal/catalog"
	apperrors "coach-matching/internal/common/errors"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/metrics"
	"coach-matching/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "refresh-provider-catalog"
)

// Refresher reloads a catalog, bypassing any cache. *catalog.CachedSource
// implements it.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) (*catalog.Catalog, error)
}

type Handler struct {
	config    *Config
	refresher Refresher
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, refresher Refresher, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		refresher: refresher,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, start, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, start, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) execute(ctx context.Context, input *Input) (output *Output, err error) {
	ctx, span := h.obs.StartSpan(ctx, TaskType+".execute", attribute.String("source", h.refresher.Name()))
	defer func() { observability.EndSpan(span, err) }()

	cat, err := h.refresher.Refresh(ctx)
	if err != nil {
		return nil, catalog.AsStandardError(h.refresher.Name(), err)
	}

	output = &Output{
		Source:      h.refresher.Name(),
		Rows:        cat.Stats.Rows,
		Loaded:      cat.Stats.Loaded,
		Dropped:     cat.Stats.Dropped,
		DropReasons: cat.Stats.DropReasons,
		RefreshedAt: time.Now().UTC(),
	}

	h.logger.Info("provider catalog refreshed", map[string]interface{}{
		"reason":  input.Reason,
		"source":  output.Source,
		"loaded":  output.Loaded,
		"dropped": output.Dropped,
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

func (h *Handler) fail(client worker.JobClient, job entities.Job, start time.Time, err error) {
	stdErr := apperrors.Normalize(err)
	ctx := context.Background()
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
