package session

import (
	"errors"
	"regexp"
	"strconv"

	errx "github.com/jyotish-ai/server/internal/core/error"
)

var retryHintPattern = regexp.MustCompile(`(?i)retry in (\d+(\.\d+)?)s`)

// AgentError is returned when an agent turn fails; it carries an optional
// wait hint taken from provider rate-limit messages.
type AgentError struct {
	Err               error
	RetryAfterSeconds *float64
}

func (e *AgentError) Error() string {
	return errx.RetryLaterMessage + ": " + e.Err.Error()
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

func newAgentError(err error) *AgentError {
	ae := &AgentError{Err: err}
	if secs, ok := ParseRetryHint(err.Error()); ok {
		ae.RetryAfterSeconds = &secs
	}
	return ae
}

// ParseRetryHint extracts N from a "retry in Ns" fragment.
func ParseRetryHint(text string) (float64, bool) {
	m := retryHintPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return secs, true
}

// IsAgentError reports whether err came from a failed agent turn.
func IsAgentError(err error) (*AgentError, bool) {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
