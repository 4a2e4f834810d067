package cli

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PreflightError explains why a command cannot run and what to do next.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", e.Hint)
	}
	if e.NextStep != "" {
		fmt.Fprintf(&b, "\nNext: %s", e.NextStep)
	}
	return b.String()
}

func formatError(err error) string {
	var preflight *PreflightError
	if errors.As(err, &preflight) {
		return colorize("Error: ", colorRed) + preflight.Error()
	}
	return colorize("Error: ", colorRed) + err.Error()
}

// daemonError turns a gRPC failure into a readable CLI error.
func daemonError(addr string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return &PreflightError{
			Message:  fmt.Sprintf("webmodal daemon not reachable at %s", addr),
			Hint:     "Start the daemon or pass --addr",
			NextStep: "webmodal serve",
		}
	case codes.NotFound:
		return &PreflightError{
			Message:  st.Message(),
			NextStep: "webmodal dialog status",
		}
	case codes.ResourceExhausted:
		return &PreflightError{
			Message: st.Message(),
			Hint:    "The daemon is rate limiting requests; retry shortly",
		}
	default:
		return errors.New(st.Message())
	}
}
