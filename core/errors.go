package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput             = "TRADEGUARD_BAD_INPUT"
	ServiceErrorOperationNotFound    = "TRADEGUARD_OPERATION_NOT_FOUND"
	ServiceErrorConflict             = "TRADEGUARD_CONFLICT"
	ServiceErrorVersionIncompatible  = "TRADEGUARD_VERSION_INCOMPATIBLE"
	ServiceErrorInvalidTokenArgument = "TRADEGUARD_INVALID_TOKEN_ARGUMENT"
	ServiceErrorInternal             = "TRADEGUARD_INTERNAL_ERROR"
)

var ErrVersionIncompatible = errors.New("core: protocol version incompatible")

// NewVersionIncompatibleError reports that operation cannot run against a
// client configured for version.
func NewVersionIncompatibleError(operation string, version int, supported []int) *goerrors.Error {
	return goerrors.Wrap(
		ErrVersionIncompatible,
		goerrors.CategoryOperation,
		fmt.Sprintf("operation %q does not support protocol version %d", operation, version),
	).
		WithCode(http.StatusConflict).
		WithTextCode(ServiceErrorVersionIncompatible).
		WithMetadata(map[string]any{
			"operation":          operation,
			"version":            version,
			"supported_versions": append([]int(nil), supported...),
		})
}

// IsVersionIncompatible reports whether err is a version gate rejection.
func IsVersionIncompatible(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrVersionIncompatible) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == ServiceErrorVersionIncompatible
	}
	return false
}

func newInvalidTokenArgumentError(message string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ServiceErrorInvalidTokenArgument)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "operation") && strings.Contains(msg, "not registered"):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorOperationNotFound)
	case strings.Contains(msg, "already registered"):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ServiceErrorConflict)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unknown"),
		strings.Contains(msg, "duplicate"), strings.Contains(msg, "must"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorOperationNotFound
	case goerrors.CategoryConflict:
		return ServiceErrorConflict
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict, goerrors.CategoryOperation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
