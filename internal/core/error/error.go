package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// PostgresErrorMessage describes vector index failures.
	PostgresErrorMessage = "postgres operation failed"
	// UpstreamErrorMessage describes failures of third-party HTTP services.
	UpstreamErrorMessage = "upstream request failed"
	// RetryLaterMessage is shown to users when an agent turn fails.
	RetryLaterMessage = "The assistant is unavailable right now. Please try again later."
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NewInput reports a caller mistake (bad date, missing field, unknown code).
func NewInput(message string) *AppError {
	return New(nil, http.StatusBadRequest, message)
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapPostgres maps pgx errors the same way WrapRedis does for Redis.
func WrapPostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, PostgresErrorMessage)
	}
	return New(err, http.StatusBadGateway, PostgresErrorMessage)
}

// WrapUpstream tags a failed call to an external HTTP API.
func WrapUpstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, fmt.Sprintf("%s: %s", UpstreamErrorMessage, service))
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if e.Err != nil && errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
