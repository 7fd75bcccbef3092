package log

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Errors that stop the cli before discovery starts.
var (
	ErrMalformedConfig = newFatalError("ERR_MALFORMED_CONFIG", "config file is malformed: %v")
	ErrBadFlags        = newFatalError("ERR_BAD_FLAGS", "bad CLI flags: %v")
	ErrEnsureDataDir   = newFatalError("ERR_ENSURE_DATA_DIR", "could not open/create data dir %v: %v")
	ErrOpenRecords     = newFatalError("ERR_OPEN_RECORDS", "could not open attendee records %v: %v")
)

// fatalError describes an error that terminates the process.
type fatalError struct {
	Code string
	Text string
	Args []any
}

func newFatalError(code, text string) func(args ...any) *fatalError {
	return func(args ...any) *fatalError {
		return &fatalError{
			Code: code,
			Text: text,
			Args: args,
		}
	}
}

func (fe fatalError) Error() string {
	return fmt.Sprintf(fe.Text, fe.Args...)
}

// MarshalLogObject implements logging encoder for fatalError.
func (fe fatalError) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("code", fe.Code)
	encoder.AddString("error", fe.Error())
	if err := encoder.AddArray("args", arrayMarshaler(fe.Args)); err != nil {
		return fmt.Errorf("add array: %w", err)
	}
	return nil
}

type arrayMarshaler []any

func (args arrayMarshaler) MarshalLogArray(encoder zapcore.ArrayEncoder) error {
	for _, arg := range args {
		if err := encoder.AppendReflected(arg); err != nil {
			return fmt.Errorf("append reflected: %w", err)
		}
	}
	return nil
}
