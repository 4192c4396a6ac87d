package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/davidschrooten/solr-schema-sync/config"
	"github.com/davidschrooten/solr-schema-sync/internal/schema"
)

// Client talks to the Schema API of a single core
type Client struct {
	httpClient *http.Client
	schemaURL  string
	username   string
	password   string
	logger     zerolog.Logger
}

// APIError is a non-success response from the Schema API
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("solr schema api returned %d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("solr schema api returned %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a Schema API client
func NewClient(cfg config.SolrConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		schemaURL:  cfg.SchemaURL(),
		username:   cfg.Username,
		password:   cfg.Password,
		logger:     logger.With().Str("component", "solr").Logger(),
	}
}

type schemaResponse struct {
	Schema struct {
		Name          string                 `json:"name"`
		FieldTypes    []schema.FieldTypeInfo `json:"fieldTypes"`
		Fields        []namedEntry           `json:"fields"`
		DynamicFields []namedEntry           `json:"dynamicFields"`
		CopyFields    []schema.CopyField     `json:"copyFields"`
	} `json:"schema"`
}

type namedEntry struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error struct {
		Msg     string `json:"msg"`
		Code    int    `json:"code"`
		Details []struct {
			ErrorMessages []string `json:"errorMessages"`
		} `json:"details"`
	} `json:"error"`
	Errors []struct {
		ErrorMessages []string `json:"errorMessages"`
	} `json:"errors"`
}

// FetchSnapshot reads the live schema
func (c *Client) FetchSnapshot(ctx context.Context) (*schema.Snapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.schemaURL+"?wt=json", nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}

	var resp schemaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	snap := &schema.Snapshot{
		FieldTypes: resp.Schema.FieldTypes,
		CopyFields: resp.Schema.CopyFields,
	}
	for _, f := range resp.Schema.Fields {
		snap.Fields = append(snap.Fields, f.Name)
	}
	for _, f := range resp.Schema.DynamicFields {
		snap.DynamicFields = append(snap.DynamicFields, f.Name)
	}

	c.logger.Debug().
		Str("schema", resp.Schema.Name).
		Int("fields", len(snap.Fields)).
		Int("dynamicFields", len(snap.DynamicFields)).
		Int("copyFields", len(snap.CopyFields)).
		Int("fieldTypes", len(snap.FieldTypes)).
		Msg("Fetched schema snapshot")

	return snap, nil
}

// Apply submits operations as one bulk request. The Schema API executes the
// commands in body order and rejects the whole request on the first failure.
func (c *Client) Apply(ctx context.Context, ops []schema.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	body, err := schema.EncodeOperations(ops)
	if err != nil {
		return fmt.Errorf("failed to encode operations: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.schemaURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return fmt.Errorf("failed to apply %d operations: %w", len(ops), err)
	}

	// Solr may answer 200 while listing per-command errors
	var resp errorResponse
	if err := json.Unmarshal(respBody, &resp); err == nil && len(resp.Errors) > 0 {
		return &APIError{StatusCode: http.StatusOK, Message: "schema update rejected", Details: collectMessages(resp)}
	}

	c.logger.Debug().Int("operations", len(ops)).Msg("Applied schema operations")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil {
			if er.Error.Msg != "" {
				apiErr.Message = er.Error.Msg
			}
			apiErr.Details = collectMessages(er)
		}
		return nil, apiErr
	}
	return body, nil
}

func collectMessages(er errorResponse) []string {
	var out []string
	for _, d := range er.Error.Details {
		out = append(out, d.ErrorMessages...)
	}
	for _, d := range er.Errors {
		out = append(out, d.ErrorMessages...)
	}
	return out
}
