package service

// The pipeline's failure taxonomy. Classification failures are fatal for the
// event; extraction and staging failures are left to the caller's redelivery
// mechanism. None of these are retried inside the pipeline itself.

// ClassificationError means the storage metadata could not be resolved to a
// known document descriptor.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string { return "classification failed: " + e.Err.Error() }
func (e *ClassificationError) Unwrap() error { return e.Err }
func (e *ClassificationError) Retryable() bool { return false }

// ExtractionError means the extraction engine was unreachable, timed out, or
// returned a response the adapter could not parse.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string   { return "extraction failed: " + e.Err.Error() }
func (e *ExtractionError) Unwrap() error   { return e.Err }
func (e *ExtractionError) Retryable() bool { return true }

// StagingError means the persistence write for a processed document failed.
type StagingError struct {
	Err error
}

func (e *StagingError) Error() string   { return "staging failed: " + e.Err.Error() }
func (e *StagingError) Unwrap() error   { return e.Err }
func (e *StagingError) Retryable() bool { return true }

// Retryable reports whether err may succeed on redelivery. Unknown errors
// are treated as retryable so at-least-once delivery can take another pass.
func Retryable(err error) bool {
	type retryer interface{ Retryable() bool }
	if r, ok := err.(retryer); ok {
		return r.Retryable()
	}
	return true
}
