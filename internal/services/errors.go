package services

// BackendError reports any failure to exchange a frame with ChatScript:
// resolution, connect, write, read, timeout, an oversized reply or a reply
// that is not valid UTF-8.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return "chatscript unavailable: " + e.Err.Error() }

func (e *BackendError) Unwrap() error { return e.Err }
