// Package storage provides blob storage operations over Azure Blob Storage.
// Unlike a single-container store, the client operates at the service level:
// source documents arrive in per-company containers, and signed artifacts are
// written back beside them.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/rsanzante/facturae-pipeline/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that verifies service connectivity.
	Start(lc *lifecycle.Coordinator) error
	// ParseLocator splits a blob URL into its container and blob name.
	ParseLocator(locator string) (container, name string, err error)
	// SASURL issues a read-only, time-limited access URL for the blob.
	SASURL(ctx context.Context, container, name string) (string, error)
	// Metadata returns the metadata pairs stored on the blob.
	// Returns ErrNotFound if the blob does not exist.
	Metadata(ctx context.Context, container, name string) (map[string]string, error)
	// Upload writes data to the blob with the given content type.
	Upload(ctx context.Context, container, name string, data []byte, contentType string) error
	// Download returns the blob content. Returns ErrNotFound if the blob
	// does not exist.
	Download(ctx context.Context, container, name string) ([]byte, error)
}

type azure struct {
	client    *azblob.Client
	sasExpiry time.Duration
	logger    *slog.Logger
}

// New creates a storage system from the given configuration. The connection
// string is validated and the client constructed, but no request is made
// until Start or an operation is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		sasExpiry: cfg.SASExpiryDuration(),
		logger:    logger.With("system", "storage"),
	}, nil
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system")

	lc.OnStartup(func() {
		if _, err := a.client.ServiceClient().GetProperties(lc.Context(), nil); err != nil {
			a.logger.Error("storage service check failed", "error", err)
			return
		}
		a.logger.Info("storage service reachable")
	})

	return nil
}

func (a *azure) ParseLocator(locator string) (string, string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidLocator, locator)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidLocator, locator)
	}

	return parts[0], parts[1], nil
}

func (a *azure) SASURL(ctx context.Context, container, name string) (string, error) {
	if err := validateKey(name); err != nil {
		return "", err
	}

	sasURL, err := a.blobClient(container, name).GetSASURL(
		sas.BlobPermissions{Read: true},
		time.Now().UTC().Add(a.sasExpiry),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("issue sas for %s/%s: %w", container, name, err)
	}

	return sasURL, nil
}

func (a *azure) Metadata(ctx context.Context, container, name string) (map[string]string, error) {
	if err := validateKey(name); err != nil {
		return nil, err
	}

	props, err := a.blobClient(container, name).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob metadata %s/%s: %w", container, name, err)
	}

	metadata := make(map[string]string, len(props.Metadata))
	for k, v := range props.Metadata {
		if v != nil {
			metadata[k] = *v
		}
	}

	return metadata, nil
}

func (a *azure) Upload(ctx context.Context, container, name string, data []byte, contentType string) error {
	if err := validateKey(name); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	if _, err := a.client.UploadStream(ctx, container, name, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload blob %s/%s: %w", container, name, err)
	}

	return nil
}

func (a *azure) Download(ctx context.Context, container, name string) ([]byte, error) {
	if err := validateKey(name); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s/%s: %w", container, name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", container, name, err)
	}

	return data, nil
}

func (a *azure) blobClient(container, name string) *blob.Client {
	return a.client.
		ServiceClient().
		NewContainerClient(container).
		NewBlobClient(name)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
