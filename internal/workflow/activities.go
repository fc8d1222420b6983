package workflow

import (
	"context"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
	"github.com/rsanzante/facturae-pipeline/internal/mapping"
)

// AccessGrant is the output of the access resolution stage: a time-limited
// read URL for the source document plus its resolved location. The grant is
// recorded with the instance, so a replay after the URL expires reuses the
// container and name but must not assume the URL is still valid.
type AccessGrant struct {
	SASURL    string `json:"sasUrl"`
	Container string `json:"container"`
	Document  string `json:"document"`
}

// MapResult is the output of the mapping stage: the reconstructed document
// serialized for signing, plus any non-fatal inconsistencies found.
type MapResult struct {
	Document []byte            `json:"document"`
	Warnings []mapping.Warning `json:"warnings,omitempty"`
}

// UploadResult records where the signed artifact was written.
type UploadResult struct {
	Locator string `json:"locator"`
}

// Activities are the side-effecting stage implementations the orchestrator
// drives. Each activity is invoked at most once per instance per recorded
// result; implementations wrap failures with the package's sentinel errors.
type Activities interface {
	// ResolveAccess turns a source document locator into an access grant.
	ResolveAccess(ctx context.Context, locator string) (*AccessGrant, error)
	// Analyze submits the document for analysis and returns the extracted
	// field set.
	Analyze(ctx context.Context, grant *AccessGrant) (*extraction.FieldSet, error)
	// Map reconstructs the electronic invoice from the extracted fields.
	Map(ctx context.Context, fields *extraction.FieldSet) (*MapResult, error)
	// Sign produces the signed artifact for the serialized document.
	Sign(ctx context.Context, document []byte) ([]byte, error)
	// Upload writes the signed artifact beside the source document.
	Upload(ctx context.Context, grant *AccessGrant, signed []byte) (*UploadResult, error)
}
