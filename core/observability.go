package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if value := strings.TrimSpace(fmt.Sprint(contextFields["client_version"])); value != "" && value != "<nil>" {
		tags["client_version"] = value
	}

	s.recordCounter(ctx, "tradeguard."+operation+".total", 1, tags)
	s.recordHistogram(ctx, "tradeguard."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		s.logError(ctx, operation+" failed", contextFields)
		return
	}
	s.logInfo(ctx, operation+" succeeded", contextFields)
}

func (s *Service) ApprovalChecked(ctx context.Context, operation string, token common.Address, approved bool) {
	if s == nil {
		return
	}
	s.recordCounter(ctx, "tradeguard.approval.checked.total", 1, map[string]string{
		"operation": normalizeOperation(operation),
		"approved":  fmt.Sprint(approved),
	})
	s.logDebug(ctx, "approval status checked", map[string]any{
		"operation": operation,
		"token":     token.Hex(),
		"approved":  approved,
	})
}

func (s *Service) ApprovalSubmitted(ctx context.Context, operation string, token common.Address, err error) {
	if s == nil {
		return
	}
	status := "success"
	kind := GuardEventApprovalSubmitted
	if err != nil {
		status = "failure"
		kind = GuardEventApprovalFailed
	}
	s.recordCounter(ctx, "tradeguard.approval.submitted.total", 1, map[string]string{
		"operation": normalizeOperation(operation),
		"status":    status,
	})

	fields := map[string]any{
		"operation": operation,
		"token":     token.Hex(),
	}
	event := GuardEvent{
		Operation: operation,
		Kind:      kind,
		Token:     token.Hex(),
		Version:   s.clientVersion(),
	}
	if err != nil {
		fields["error"] = err.Error()
		event.Error = err.Error()
		s.logError(ctx, "token approval failed", fields)
	} else {
		s.logInfo(ctx, "token approval submitted", fields)
	}
	s.recordGuardEvent(ctx, event)
}

func (s *Service) VersionRejected(ctx context.Context, operation string, version int, supported []int) {
	if s == nil {
		return
	}
	s.recordCounter(ctx, "tradeguard.version.rejected.total", 1, map[string]string{
		"operation": normalizeOperation(operation),
		"version":   fmt.Sprint(version),
	})
	s.logWarn(ctx, "operation rejected for protocol version", map[string]any{
		"operation":          operation,
		"version":            version,
		"supported_versions": supported,
	})
	s.recordGuardEvent(ctx, GuardEvent{
		Operation: operation,
		Kind:      GuardEventVersionRejected,
		Version:   version,
	})
}

func (s *Service) recordGuardEvent(ctx context.Context, event GuardEvent) {
	if s == nil || s.eventStore == nil || s.config.Audit.Disabled {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := s.eventStore.Record(ctx, event); err != nil {
		s.logError(ctx, "guard event record failed", map[string]any{
			"operation": event.Operation,
			"kind":      string(event.Kind),
			"error":     err.Error(),
		})
	}
}

func (s *Service) logDebug(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "debug", message, fields)
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "info", message, fields)
}

func (s *Service) logWarn(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "warn", message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "error", message, fields)
}

func (s *Service) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logger.Debug(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}
