package analysis

import "errors"

// ErrInsufficientContent reports that a document's text is too short or too
// degraded to analyze. It is a skip signal, not a failure: callers record the
// document in the error report and continue with the rest of the batch.
var ErrInsufficientContent = errors.New("insufficient content")

// ErrMalformedInput reports text that is not usable at all (e.g. not valid
// UTF-8 after extraction). The document is excluded from corpus aggregates.
var ErrMalformedInput = errors.New("malformed input")
