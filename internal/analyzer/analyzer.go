// Package analyzer submits documents to the Form Recognizer custom model
// service and maps its output into the extraction field set. The service is
// asynchronous: submission returns an operation URL that is polled until
// the analysis settles.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
)

const (
	analyzePathFormat = "%s/formrecognizer/v2.1/custom/models/%s/analyze"
	apiKeyHeader      = "Ocp-Apim-Subscription-Key"

	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// ErrAnalysisFailed indicates the service settled the operation as failed.
var ErrAnalysisFailed = errors.New("analysis failed")

// System analyzes documents with a trained custom model.
type System interface {
	// Analyze runs the model against the document behind sourceURL and
	// returns the extracted field set. It blocks until the service settles
	// the operation or the configured timeout elapses.
	Analyze(ctx context.Context, modelID, sourceURL string) (*extraction.FieldSet, error)
}

type client struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	timeout      time.Duration
	http         *http.Client
	logger       *slog.Logger
}

// New creates an analysis client from the given configuration.
func New(cfg *Config, logger *slog.Logger) System {
	return &client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		pollInterval: cfg.PollIntervalDuration(),
		timeout:      cfg.TimeoutDuration(),
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With("system", "analyzer"),
	}
}

func (c *client) Analyze(ctx context.Context, modelID, sourceURL string) (*extraction.FieldSet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	operation, err := c.submit(ctx, modelID, sourceURL)
	if err != nil {
		return nil, err
	}

	result, err := c.poll(ctx, operation)
	if err != nil {
		return nil, err
	}

	return mapResult(result)
}

func (c *client) submit(ctx context.Context, modelID, sourceURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"source": sourceURL})
	if err != nil {
		return "", fmt.Errorf("encode analyze request: %w", err)
	}

	url := fmt.Sprintf(analyzePathFormat, c.endpoint, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("submit analysis: %s: %s", resp.Status, readBody(resp.Body))
	}

	operation := resp.Header.Get("Operation-Location")
	if operation == "" {
		return "", fmt.Errorf("submit analysis: missing operation location")
	}

	c.logger.Info("analysis submitted", "model", modelID)
	return operation, nil
}

func (c *client) poll(ctx context.Context, operation string) (*analyzeResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("await analysis: %w", ctx.Err())
		case <-ticker.C:
		}

		status, result, err := c.operationStatus(ctx, operation)
		if err != nil {
			return nil, err
		}

		switch status {
		case statusSucceeded:
			return result, nil
		case statusFailed:
			return nil, ErrAnalysisFailed
		}
	}
}

func (c *client) operationStatus(ctx context.Context, operation string) (string, *analyzeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operation, nil)
	if err != nil {
		return "", nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("poll analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("poll analysis: %s: %s", resp.Status, readBody(resp.Body))
	}

	var envelope operationEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", nil, fmt.Errorf("decode analysis status: %w", err)
	}

	return envelope.Status, envelope.AnalyzeResult, nil
}

type operationEnvelope struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
}

type analyzeResult struct {
	DocumentResults []documentResult `json:"documentResults"`
	PageResults     []pageResult     `json:"pageResults"`
}

type documentResult struct {
	Fields map[string]fieldValue `json:"fields"`
}

type fieldValue struct {
	Text string `json:"text"`
}

type pageResult struct {
	Tables []tableResult `json:"tables"`
}

type tableResult struct {
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Cells   []tableCell  `json:"cells"`
}

type tableCell struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Text        string `json:"text"`
}

// mapResult flattens the first document's fields and the first page's first
// table into the extraction field set. Cells are laid out row-major with
// the table's reported dimensions; positions the service omitted stay
// empty.
func mapResult(result *analyzeResult) (*extraction.FieldSet, error) {
	if result == nil || len(result.DocumentResults) == 0 {
		return nil, fmt.Errorf("%w: no document results", ErrAnalysisFailed)
	}

	fields := make(map[string]string, len(result.DocumentResults[0].Fields))
	for path, value := range result.DocumentResults[0].Fields {
		fields[path] = value.Text
	}

	var table extraction.Table
	if len(result.PageResults) > 0 && len(result.PageResults[0].Tables) > 0 {
		source := result.PageResults[0].Tables[0]
		table = extraction.Table{
			Rows:  source.Rows,
			Cells: make([]string, source.Rows*source.Columns),
		}
		for _, cell := range source.Cells {
			if cell.RowIndex < 0 || cell.RowIndex >= source.Rows ||
				cell.ColumnIndex < 0 || cell.ColumnIndex >= source.Columns {
				continue
			}
			table.Cells[cell.RowIndex*source.Columns+cell.ColumnIndex] = cell.Text
		}
	}

	return &extraction.FieldSet{Fields: fields, Table: table}, nil
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(bytes.TrimSpace(data))
}
