package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrRunNotFound = errors.New("run not found")

// InvalidLocationError reports a location whose scheme no fetcher or
// sink recognizes.
type InvalidLocationError struct {
	Location string
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("unrecognized location scheme: %s", e.Location)
}

// RemoteFetchError reports a failure to materialize an input location
// (network, permissions, missing object, missing local file).
type RemoteFetchError struct {
	Location string
	Err      error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// ExternalToolError reports a non-zero exit (or missing artifact) from
// the external aligner. Output carries the tool's combined stdout+stderr
// so the caller can surface its diagnostics.
type ExternalToolError struct {
	Tool     string
	ExitCode int
	Output   string
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// OutputWriteError reports a failure to place a result artifact at its
// requested destination.
type OutputWriteError struct {
	Destination string
	Err         error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write output to %s: %v", e.Destination, e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }
