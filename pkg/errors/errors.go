package errors

import (
	"fmt"
	"strings"
)

// InstallerError is the base error carried by every subsystem failure. It
// holds a machine-readable code, structured context for the log file, a
// recoverable flag, and an optional message suitable for end users.
type InstallerError struct {
	Code        string
	Message     string
	Context     map[string]any
	Recoverable bool
	UserMessage string
	Err         error
}

// NewInstallerError constructs a bare InstallerError with the given code.
func NewInstallerError(code, message string, err error) *InstallerError {
	return &InstallerError{Code: code, Message: message, Err: err}
}

func (e *InstallerError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error.
func (e *InstallerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserFacing returns the user message when set, falling back to Message.
func (e *InstallerError) UserFacing() string {
	if e == nil {
		return ""
	}
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// ValidationError captures a single configuration field problem. Validation
// never surfaces these one at a time; passes collect them into a
// ValidationErrors list so the user sees every problem at once.
type ValidationError struct {
	Field    string
	Value    string
	Expected string
	Message  string
	Corrupt  bool
}

// NewValidationError constructs a ValidationError for a field.
func NewValidationError(field, value, expected, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Expected: expected, Message: message}
}

// NewCorruptionError constructs a ValidationError describing structural
// damage to the configuration file. Corruption is recoverable: the caller
// may offer deletion of the damaged file.
func NewCorruptionError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Corrupt: true}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors aggregates every failure of one validation pass.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return "validation failed"
	}
	lines := make([]string, 0, len(es)+1)
	lines = append(lines, fmt.Sprintf("configuration invalid (%d problems):", len(es)))
	for _, e := range es {
		line := fmt.Sprintf("  - %s: %s", e.Field, e.Message)
		if e.Expected != "" {
			line += fmt.Sprintf(" (expected %s)", e.Expected)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// HasCorruption reports whether any collected error indicates structural
// file corruption rather than a bad field value.
func (es ValidationErrors) HasCorruption() bool {
	for _, e := range es {
		if e.Corrupt {
			return true
		}
	}
	return false
}

// OrNil returns the list as an error, or nil when nothing was collected.
func (es ValidationErrors) OrNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// CommandError represents a failed boundary command: a non-zero exit when
// success checking was requested, or an elapsed timeout.
type CommandError struct {
	Description string
	Command     string
	ExitCode    int
	Stdout      string
	Stderr      string
	Timeout     bool
}

// NewCommandError constructs a CommandError for a non-zero exit.
func NewCommandError(description, command string, exitCode int, stdout, stderr string) *CommandError {
	return &CommandError{
		Description: description,
		Command:     command,
		ExitCode:    exitCode,
		Stdout:      stdout,
		Stderr:      stderr,
	}
}

// NewCommandTimeoutError constructs a CommandError for an elapsed timeout.
// Timeouts are failures, never retry triggers.
func NewCommandTimeoutError(description, command string) *CommandError {
	return &CommandError{Description: description, Command: command, ExitCode: -1, Timeout: true}
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	if e.Timeout {
		return fmt.Sprintf("command timed out: %s (%s)", e.Description, e.Command)
	}
	msg := fmt.Sprintf("command failed: %s: exit code %d", e.Description, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

// HardwareError indicates drive enumeration or detection failure, including
// the terminal "no eligible drive" condition.
type HardwareError struct {
	Message string
	Err     error
}

// NewHardwareError constructs a HardwareError.
func NewHardwareError(message string, err error) *HardwareError {
	return &HardwareError{Message: message, Err: err}
}

func (e *HardwareError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("hardware detection error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("hardware detection error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *HardwareError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PhaseError wraps a failure inside a named installation phase.
type PhaseError struct {
	Phase string
	Err   error
}

// NewPhaseError constructs a PhaseError.
func NewPhaseError(phase string, err error) error {
	return &PhaseError{Phase: phase, Err: err}
}

func (e *PhaseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("phase %s failed: %v", e.Phase, e.Err)
}

// Unwrap exposes the root error.
func (e *PhaseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
