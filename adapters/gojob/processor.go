package gojob

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-tradeguard/adapters/gologger"
	"github.com/goliatone/go-tradeguard/core"
)

// ApprovalEnsurer runs the version gate and approvals of a call without
// executing it. *core.Service satisfies it.
type ApprovalEnsurer interface {
	EnsureApprovals(ctx context.Context, call core.Call) error
}

// Outcome is the queue action taken for one delivery.
type Outcome string

const (
	OutcomeAcked        Outcome = "acked"
	OutcomeRequeued     Outcome = "requeued"
	OutcomeDeadLettered Outcome = "dead_lettered"
	OutcomeFailed       Outcome = "failed"
)

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

// EnqueueApprovals queues req and returns the queue's acceptance receipt.
func (a *EnqueuerAdapter) EnqueueApprovals(ctx context.Context, req ApprovalRequest) (queue.EnqueueReceipt, error) {
	if a == nil || a.enqueuer == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg, err := ToExecutionMessage(req)
	if err != nil {
		return queue.EnqueueReceipt{}, err
	}
	return a.enqueuer.Enqueue(ctx, msg)
}

// ApprovalProcessor consumes approval requests and settles each delivery.
type ApprovalProcessor struct {
	service ApprovalEnsurer
	policy  RetryPolicy
	logger  glog.Logger
	jobLog  job.Logger

	mu       sync.Mutex
	attempts map[string]int
}

type ProcessorOption func(*ApprovalProcessor)

func WithRetryPolicy(policy RetryPolicy) ProcessorOption {
	return func(p *ApprovalProcessor) {
		p.policy = policy
	}
}

func WithLogger(provider glog.LoggerProvider, logger glog.Logger) ProcessorOption {
	return func(p *ApprovalProcessor) {
		_, resolved, _, jobLogger := gologger.ResolveForJob("tradeguard.jobs", provider, logger)
		p.logger = glog.Ensure(resolved)
		p.jobLog = jobLogger
	}
}

func NewApprovalProcessor(service ApprovalEnsurer, opts ...ProcessorOption) (*ApprovalProcessor, error) {
	if service == nil {
		return nil, fmt.Errorf("gojob: approval service is required")
	}
	processor := &ApprovalProcessor{
		service:  service,
		policy:   DefaultRetryPolicy(),
		attempts: map[string]int{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(processor)
	}
	if processor.logger == nil {
		WithLogger(nil, nil)(processor)
	}
	return processor, nil
}

// JobLogger exposes the processor logger in the go-job logger contract so
// hosts can hand it to their worker.
func (p *ApprovalProcessor) JobLogger() job.Logger {
	if p == nil {
		return nil
	}
	return p.jobLog
}

// Attempts reports how many failed attempts are tracked for key.
func (p *ApprovalProcessor) Attempts(key string) int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts[key]
}

// ProcessNext dequeues one delivery and handles it.
func (p *ApprovalProcessor) ProcessNext(ctx context.Context, dequeuer queue.Dequeuer) (Outcome, error) {
	if p == nil {
		return "", fmt.Errorf("gojob: approval processor is nil")
	}
	if dequeuer == nil {
		return "", fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return "", err
	}
	return p.Handle(ctx, delivery)
}

// Handle runs one delivery. Failures that cannot succeed on retry are
// dead-lettered at once; other failures are requeued under the retry
// policy. The returned error is the processing error, if any.
func (p *ApprovalProcessor) Handle(ctx context.Context, delivery queue.Delivery) (Outcome, error) {
	if p == nil {
		return "", fmt.Errorf("gojob: approval processor is nil")
	}
	if delivery == nil {
		return "", fmt.Errorf("gojob: delivery is required")
	}
	msg := delivery.Message()

	req, err := FromExecutionMessage(msg)
	if err != nil {
		p.logger.Warn("approval job dropped", "error", err.Error())
		return p.deadLetter(ctx, delivery, "", err)
	}
	key := req.Key()

	err = p.service.EnsureApprovals(ctx, req.Call())
	if err == nil {
		p.reset(key)
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			return "", ackErr
		}
		p.logger.Debug("approval job completed", "operation", req.Operation, "key", key)
		return OutcomeAcked, nil
	}

	if isPermanent(err) {
		p.logger.Warn("approval job rejected", "operation", req.Operation, "error", err.Error())
		return p.deadLetter(ctx, delivery, key, err)
	}

	attempt := p.increment(key)
	opts := p.policy.NormalizeAttempt(queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Delay:       p.policy.Backoff(attempt),
		Reason:      err.Error(),
	}, attempt)
	if opts.Disposition != queue.NackDispositionRetry {
		p.reset(key)
	}
	if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
		return "", nackErr
	}
	p.logger.Error("approval job failed",
		"operation", req.Operation,
		"attempt", attempt,
		"disposition", string(opts.Disposition),
		"error", err.Error(),
	)
	return outcomeFor(opts.Disposition), err
}

func outcomeFor(disposition queue.NackDisposition) Outcome {
	switch disposition {
	case queue.NackDispositionRetry:
		return OutcomeRequeued
	case queue.NackDispositionDeadLetter:
		return OutcomeDeadLettered
	default:
		return OutcomeFailed
	}
}

// isPermanent reports failures that repeat on every attempt: version
// rejections, malformed messages, unknown operations and bad arguments.
func isPermanent(err error) bool {
	if core.IsVersionIncompatible(err) || errors.Is(err, ErrMalformedMessage) {
		return true
	}
	for _, category := range []goerrors.Category{
		goerrors.CategoryNotFound,
		goerrors.CategoryBadInput,
		goerrors.CategoryValidation,
	} {
		if goerrors.IsCategory(err, category) {
			return true
		}
	}
	return false
}

func (p *ApprovalProcessor) deadLetter(ctx context.Context, delivery queue.Delivery, key string, cause error) (Outcome, error) {
	if key != "" {
		p.reset(key)
	}
	opts := p.policy.NormalizeAttempt(queue.NackOptions{
		Disposition: queue.NackDispositionDeadLetter,
		Reason:      cause.Error(),
	}, 0)
	if err := delivery.Nack(ctx, opts); err != nil {
		return "", err
	}
	return OutcomeDeadLettered, cause
}

func (p *ApprovalProcessor) increment(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[key]++
	return p.attempts[key]
}

func (p *ApprovalProcessor) reset(key string) {
	p.mu.Lock()
	delete(p.attempts, key)
	p.mu.Unlock()
}
