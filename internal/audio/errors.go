package audio

import "fmt"

// FormatError reports a malformed or unrecognized container.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "audio: " + e.Reason
}

func formatErrorf(format string, a ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, a...)}
}

// DecodeToolError reports a failed transcoding step.
type DecodeToolError struct {
	Tool   string
	Output string // captured diagnostics of the tool, if any
	Err    error
}

func (e *DecodeToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("audio: %s failed: %v: %s", e.Tool, e.Err, e.Output)
	}
	return fmt.Sprintf("audio: %s failed: %v", e.Tool, e.Err)
}

func (e *DecodeToolError) Unwrap() error { return e.Err }

// EmptySampleError reports a structurally valid container with no samples in it.
type EmptySampleError struct {
	Source string
}

func (e *EmptySampleError) Error() string {
	if e.Source == "" {
		return "audio: no samples extracted"
	}
	return "audio: no samples extracted from " + e.Source
}
