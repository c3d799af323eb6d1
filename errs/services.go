package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// External Service Errors
var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrServiceUnreachable = errors.New("service unreachable")
	ErrUpstreamRejected   = errors.New("upstream rejected request")
	ErrConfigMissing      = errors.New("configuration missing")
)

func NewServiceUnreachableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrServiceUnreachable,
		Details:    fmt.Sprintf("Could not reach %s", service),
		Cause:      cause,
		Field:      "service",
	}
}

func NewUpstreamRejectedError(service string, status int, body string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpstreamRejected,
		Details:    fmt.Sprintf("%s returned status %d: %s", service, status, body),
		Field:      "service",
	}
}

// NewServiceUnavailableError is returned when an optional integration is not configured
func NewServiceUnavailableError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is not configured", service),
		Field:      "service",
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
		Field:      "config",
	}
}

func IsServiceUnreachableError(err error) bool {
	return errors.Is(err, ErrServiceUnreachable)
}

func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
