package provider

// TransientError marks a failure as retryable: connection resets,
// timeouts, 429s, 5xx responses. The resilient caller retries these
// with backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ToolError marks a failure where the remote endpoint understood the
// request and rejected it. Retrying burns the retry budget without any
// chance of success, so these fail immediately.
type ToolError struct {
	Err error
}

func (e *ToolError) Error() string {
	if e == nil || e.Err == nil {
		return "tool error"
	}
	return e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
