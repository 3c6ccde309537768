package quota

import (
	"errors"
	"strings"

	"github.com/j-veylop/zai-usage-tui/internal/config"
)

// ErrorKind classifies a failed refresh.
type ErrorKind int

const (
	// ErrorNone means the last attempt did not fail.
	ErrorNone ErrorKind = iota
	// CredentialError means the token was rejected (401/403); the user must reconfigure.
	CredentialError
	// TransientError is any other provider failure; the last snapshot stays visible.
	TransientError
	// ConfigIOError is a failure reading or writing config.json.
	ConfigIOError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case CredentialError:
		return "credential"
	case TransientError:
		return "transient"
	case ConfigIOError:
		return "config-io"
	default:
		return "unknown"
	}
}

// Classify maps an error onto an ErrorKind. Typed errors are checked first;
// providers that only report text are matched on "401"/"403".
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	if errors.Is(err, ErrUnauthorized) {
		return CredentialError
	}
	var ioErr *config.IOError
	if errors.As(err, &ioErr) {
		return ConfigIOError
	}
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") {
		return CredentialError
	}
	return TransientError
}
