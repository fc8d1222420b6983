// Package activities implements the workflow stage contract over the real
// services: blob storage access, document analysis, invoice mapping,
// signing, and artifact upload. Failures are wrapped with the workflow
// error taxonomy so operators can classify them from the instance record.
package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rsanzante/facturae-pipeline/internal/analyzer"
	"github.com/rsanzante/facturae-pipeline/internal/extraction"
	"github.com/rsanzante/facturae-pipeline/internal/facturae"
	"github.com/rsanzante/facturae-pipeline/internal/mapping"
	"github.com/rsanzante/facturae-pipeline/internal/registry"
	"github.com/rsanzante/facturae-pipeline/internal/signer"
	"github.com/rsanzante/facturae-pipeline/internal/workflow"
	"github.com/rsanzante/facturae-pipeline/pkg/storage"
)

const (
	// signedPrefix is where signed artifacts land inside the source
	// document's container.
	signedPrefix = "signedDocuments/"
	// signedExtension marks a signed Facturae artifact.
	signedExtension = ".xsig"
	// modelMetadataKey is the blob metadata key carrying a per-document
	// model binding, matched case-insensitively.
	modelMetadataKey = "modelid"

	signedContentType = "application/xml"
)

// Pipeline implements workflow.Activities.
type Pipeline struct {
	storage  storage.System
	analyzer analyzer.System
	signer   signer.System
	registry registry.System
	issuer   *mapping.Config
	logger   *slog.Logger
}

// New wires the stage implementations over the given systems.
func New(
	store storage.System,
	analyze analyzer.System,
	sign signer.System,
	models registry.System,
	issuer *mapping.Config,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		storage:  store,
		analyzer: analyze,
		signer:   sign,
		registry: models,
		issuer:   issuer,
		logger:   logger.With("system", "activities"),
	}
}

func (p *Pipeline) ResolveAccess(ctx context.Context, locator string) (*workflow.AccessGrant, error) {
	container, name, err := p.storage.ParseLocator(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	sasURL, err := p.storage.SASURL(ctx, container, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	return &workflow.AccessGrant{
		SASURL:    sasURL,
		Container: container,
		Document:  name,
	}, nil
}

func (p *Pipeline) Analyze(ctx context.Context, grant *workflow.AccessGrant) (*extraction.FieldSet, error) {
	modelID, err := p.modelFor(ctx, grant)
	if err != nil {
		return nil, err
	}

	// The recorded grant may predate a replay; a fresh SAS keeps the
	// analysis service from hitting an expired URL.
	sasURL, err := p.storage.SASURL(ctx, grant.Container, grant.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	fields, err := p.analyzer.Analyze(ctx, modelID, sasURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrRecognition, err)
	}
	return fields, nil
}

// modelFor resolves the analysis model: the container binding wins, with
// blob metadata as the per-document fallback.
func (p *Pipeline) modelFor(ctx context.Context, grant *workflow.AccessGrant) (string, error) {
	modelID, err := p.registry.ModelFor(ctx, grant.Container)
	if err == nil {
		return modelID, nil
	}
	if !errors.Is(err, registry.ErrModelNotFound) {
		return "", fmt.Errorf("%w: %v", workflow.ErrConfiguration, err)
	}

	metadata, err := p.storage.Metadata(ctx, grant.Container, grant.Document)
	if err != nil {
		return "", fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	for key, value := range metadata {
		if strings.EqualFold(key, modelMetadataKey) && value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf(
		"%w: no analysis model for container %s", workflow.ErrConfiguration, grant.Container,
	)
}

func (p *Pipeline) Map(ctx context.Context, fields *extraction.FieldSet) (*workflow.MapResult, error) {
	doc, warnings, err := mapping.Build(fields, p.issuer)
	if err != nil {
		return nil, err
	}

	// The signature covers the document exactly as serialized here, so the
	// signer input is produced once and recorded with the stage result.
	serialized, err := facturae.SerializeForSigning(doc)
	if err != nil {
		return nil, err
	}

	return &workflow.MapResult{
		Document: serialized,
		Warnings: warnings,
	}, nil
}

func (p *Pipeline) Sign(ctx context.Context, document []byte) ([]byte, error) {
	signed, err := p.signer.Sign(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrSigning, err)
	}
	return signed, nil
}

func (p *Pipeline) Upload(ctx context.Context, grant *workflow.AccessGrant, signed []byte) (*workflow.UploadResult, error) {
	name := signedPrefix + grant.Document + signedExtension
	if err := p.storage.Upload(ctx, grant.Container, name, signed, signedContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	p.logger.Info("signed artifact uploaded", "container", grant.Container, "name", name)
	return &workflow.UploadResult{Locator: grant.Container + "/" + name}, nil
}
