// Package signer produces the XAdES-EPES signature over the serialized
// invoice document. The signing certificate lives in Azure Key Vault as a
// PFX secret; the signature itself is produced by the signature service,
// which receives the certificate and document and returns the signed
// artifact.
package signer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/rsanzante/facturae-pipeline/pkg/lifecycle"
)

// Signature policy fixed by the Facturae 3.1 signing profile. These values
// are embedded in the signature and verified by the receiving authority.
const (
	PolicyIdentifier = "http://www.facturae.es/politica_de_firma_formato_facturae/politica_de_firma_formato_facturae_v3_1.pdf"
	PolicyHash       = "Ohixl6upD6av8N7pEvDABhEL6hM="
	SignerRole       = "emisor"
	DocumentMimeType = "text/xml"
)

// System signs serialized invoice documents.
type System interface {
	// Start registers a startup hook that prefetches the signing
	// certificate, surfacing vault misconfiguration before traffic.
	Start(lc *lifecycle.Coordinator) error
	// Sign returns the signed artifact for the document.
	Sign(ctx context.Context, document []byte) ([]byte, error)
}

type service struct {
	secrets *azsecrets.Client
	http    *http.Client
	cfg     *Config
	logger  *slog.Logger

	mu   sync.Mutex
	cert string
}

// New creates a signer from the given configuration and vault credential.
func New(cfg *Config, credential azcore.TokenCredential, logger *slog.Logger) (System, error) {
	secrets, err := azsecrets.NewClient(cfg.VaultURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	return &service{
		secrets: secrets,
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		cfg:     cfg,
		logger:  logger.With("system", "signer"),
	}, nil
}

func (s *service) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting signer system")

	lc.OnStartup(func() {
		if _, err := s.certificate(lc.Context()); err != nil {
			s.logger.Error("certificate prefetch failed", "error", err)
			return
		}
		s.logger.Info("signing certificate available")
	})

	return nil
}

// certificate returns the base64 PFX from the vault, caching it after the
// first fetch. Certificate rotation requires a process restart.
func (s *service) certificate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cert != "" {
		return s.cert, nil
	}

	resp, err := s.secrets.GetSecret(ctx, s.cfg.CertificateSecret, "", nil)
	if err != nil {
		return "", fmt.Errorf("fetch certificate %s: %w", s.cfg.CertificateSecret, err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return "", fmt.Errorf("certificate %s is empty", s.cfg.CertificateSecret)
	}

	s.cert = *resp.Value
	return s.cert, nil
}

type signRequest struct {
	Certificate      string `json:"certificate"`
	Password         string `json:"password"`
	Content          string `json:"content"`
	PolicyIdentifier string `json:"policyIdentifier"`
	PolicyHash       string `json:"policyHash"`
	SignerRole       string `json:"signerRole"`
	MimeType         string `json:"mimeType"`
}

type signResponse struct {
	SignedContent string `json:"signedContent"`
}

func (s *service) Sign(ctx context.Context, document []byte) ([]byte, error) {
	cert, err := s.certificate(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(signRequest{
		Certificate:      cert,
		Password:         s.cfg.CertificatePassword,
		Content:          base64.StdEncoding.EncodeToString(document),
		PolicyIdentifier: PolicyIdentifier,
		PolicyHash:       PolicyHash,
		SignerRole:       SignerRole,
		MimeType:         DocumentMimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ServiceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sign document: %s: %s", resp.Status, bytes.TrimSpace(data))
	}

	var result signResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode sign response: %w", err)
	}

	signed, err := base64.StdEncoding.DecodeString(result.SignedContent)
	if err != nil {
		return nil, fmt.Errorf("decode signed content: %w", err)
	}
	if len(signed) == 0 {
		return nil, fmt.Errorf("signature service returned empty artifact")
	}

	s.logger.Info("document signed", "bytes", len(signed))
	return signed, nil
}
