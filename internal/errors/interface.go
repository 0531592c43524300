package errors

// ErrorCode identifies a class of failure. Callers branch on codes,
// never on message text.
type ErrorCode string

// Error is a domain error carrying a code, an optional wrapped cause,
// and optional structured data (e.g. the field that failed validation).
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory defines methods for creating domain errors.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
