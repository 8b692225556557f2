package errors

// Result is the structured outcome handed across the component boundary:
// callers get a success flag and an error classification, never a bare error.
type Result struct {
	Success    bool        `json:"success"`
	ErrorKind  string      `json:"error_kind,omitempty"`
	Message    string      `json:"message,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// OK builds a successful result.
func OK(message string, data interface{}) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Failed builds a failed result from err. Errors without a code are
// classified as IO_FAILURE since every non-coded failure in the store
// originates from the filesystem.
func Failed(err error) Result {
	code := AsCode(err)
	if code == "" {
		code = CodeIOFailure
	}
	return Result{
		Success:    false,
		ErrorKind:  code,
		Message:    err.Error(),
		Suggestion: Suggestion(err),
	}
}

// FromError returns OK(message, data) when err is nil and Failed(err) otherwise.
func FromError(err error, message string, data interface{}) Result {
	if err != nil {
		return Failed(err)
	}
	return OK(message, data)
}
