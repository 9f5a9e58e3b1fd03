package gojob

import (
	"context"
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-tradeguard/core"
)

// WorkerHookAdapter reports go-job worker events as tradeguard metrics and
// log lines.
type WorkerHookAdapter struct {
	metrics core.MetricsRecorder
	logger  glog.Logger
}

func NewWorkerHookAdapter(metrics core.MetricsRecorder, logger glog.Logger) *WorkerHookAdapter {
	if metrics == nil {
		metrics = core.NopMetricsRecorder{}
	}
	return &WorkerHookAdapter{metrics: metrics, logger: glog.Ensure(logger)}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	a.observe(ctx, "start", event)
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	a.observe(ctx, "success", event)
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	a.observe(ctx, "failure", event)
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	a.observe(ctx, "retry", event)
}

func (a *WorkerHookAdapter) observe(ctx context.Context, name string, event worker.Event) {
	if a == nil {
		return
	}
	message := eventMessage(event)
	jobID := "unknown"
	if message != nil && strings.TrimSpace(message.JobID) != "" {
		jobID = strings.TrimSpace(message.JobID)
	}
	tags := map[string]string{"job_id": jobID}
	if message != nil {
		if operation, ok := message.Parameters[ParamOperation].(string); ok && operation != "" {
			tags["operation"] = operation
		}
	}
	a.metrics.IncCounter(ctx, "tradeguard.job."+name+".total", 1, tags)
	if name == "success" || name == "failure" {
		a.metrics.ObserveHistogram(ctx, "tradeguard.job.duration_ms", float64(event.Duration.Milliseconds()), tags)
	}

	args := []any{"job_id", jobID, "attempt", event.Attempt}
	if event.Delay > 0 {
		args = append(args, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
	}
	switch name {
	case "failure":
		a.logger.Error("approval job "+name, args...)
	case "retry":
		a.logger.Warn("approval job "+name, args...)
	default:
		a.logger.Debug("approval job "+name, args...)
	}
}

func eventMessage(event worker.Event) *job.ExecutionMessage {
	if event.Message != nil {
		return event.Message
	}
	if event.Delivery != nil {
		return event.Delivery.Message()
	}
	return nil
}

var _ worker.Hook = (*WorkerHookAdapter)(nil)
