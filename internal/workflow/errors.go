package workflow

import "errors"

// Stage failures are classified so operators can tell a transient service
// outage from a deployment defect. Activity implementations wrap their
// errors with the matching sentinel.
var (
	// ErrNotFound indicates an unknown workflow instance.
	ErrNotFound = errors.New("workflow instance not found")
	// ErrStorage indicates a blob storage failure while resolving access,
	// downloading, or uploading.
	ErrStorage = errors.New("storage failure")
	// ErrRecognition indicates a document analysis failure.
	ErrRecognition = errors.New("recognition failure")
	// ErrSigning indicates a signature service or certificate failure.
	ErrSigning = errors.New("signing failure")
	// ErrConfiguration indicates a missing analysis model binding or other
	// deployment defect surfaced mid-pipeline.
	ErrConfiguration = errors.New("workflow configuration error")
)
