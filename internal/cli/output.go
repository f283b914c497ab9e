package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/patientbook/internal/record"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (record not found, serial collision, save failed, etc.)
	ExitCommandError = 2 // Command error (bad flags, invalid config, unreadable data file)
)

// Error codes reported in the JSON envelope.
const (
	ErrCodeGeneric             = "E_GENERIC"
	ErrCodeUsage               = "E_USAGE"
	ErrCodeConfig              = "E_CONFIG"
	ErrCodeCorruptStore        = "E_CORRUPT_STORE"
	ErrCodePersistence         = "E_PERSISTENCE"
	ErrCodeNotFound            = "E_NOT_FOUND"
	ErrCodeDuplicateIdentifier = "E_DUPLICATE_IDENTIFIER"
	ErrCodeBackup              = "E_BACKUP"
	ErrCodeInvalidRecord       = "E_INVALID_RECORD"
)

var (
	errUsage  = errors.New("invalid usage")
	errConfig = errors.New("invalid configuration")
)

// usageErrorf reports bad command-line input.
func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the user, so the
	// entry point does not print it twice.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError (2) if the error is not an ExitError: commands
// always return ExitErrors, so anything else comes from cobra itself
// (unknown command, wrong argument count, missing required flag).
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// IsReported reports whether err was already written by a command.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// Classify maps an error to its envelope code and exit code.
//
// Configuration problems, bad input and an unreadable data file are command
// errors; everything else is an operation failure.
func Classify(err error) (string, int) {
	switch {
	case errors.Is(err, errUsage):
		return ErrCodeUsage, ExitCommandError
	case errors.Is(err, errConfig):
		return ErrCodeConfig, ExitCommandError
	}

	switch record.CodeOf(err) {
	case record.ErrCodeCorruptStore:
		return ErrCodeCorruptStore, ExitCommandError
	case record.ErrCodePersistence:
		return ErrCodePersistence, ExitFailure
	case record.ErrCodeNotFound:
		return ErrCodeNotFound, ExitFailure
	case record.ErrCodeDuplicateIdentifier:
		return ErrCodeDuplicateIdentifier, ExitFailure
	case record.ErrCodeBackup:
		return ErrCodeBackup, ExitFailure
	case record.ErrCodeInvalidRecord:
		return ErrCodeInvalidRecord, ExitFailure
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return ErrCodeGeneric, exitErr.Code
	}
	return ErrCodeGeneric, ExitFailure
}

// errorDetails exposes the serial number and path of a record error.
func errorDetails(err error) map[string]any {
	var recErr *record.Error
	if !errors.As(err, &recErr) {
		return nil
	}
	details := map[string]any{}
	if recErr.SerialNo != 0 {
		details["serial_no"] = recErr.SerialNo
	}
	if recErr.Path != "" {
		details["path"] = recErr.Path
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for errors and verbose output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_NOT_FOUND", "E_USAGE", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// IsJSON reports whether output is machine-readable.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format. JSON goes to Writer so
// the envelope is always on stdout; text goes to the error writer.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError carrying the mapped exit
// code. Commands return its result directly.
func (f *OutputFormatter) Fail(err error) error {
	if err == nil {
		return nil
	}
	code, exit := Classify(err)

	var details any
	if d := errorDetails(err); d != nil {
		details = d
	}
	if writeErr := f.Error(code, err.Error(), details); writeErr != nil {
		return writeErr
	}

	exitErr := WrapExitError(exit, code, err)
	exitErr.Reported = true
	return exitErr
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
