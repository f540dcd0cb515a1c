package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"comedyuo/showsync/internal/constants"
	"comedyuo/showsync/internal/logging"
	"comedyuo/showsync/internal/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const airtablePageSize = 100

// AirtableOptions configures an AirtableProvider
type AirtableOptions struct {
	BaseURL         string
	APIKey          string
	BaseID          string
	TableName       string
	Timeout         time.Duration
	RPS             float64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	HTTPClient      *http.Client
	Metrics         *metrics.MetricsRegistry
}

// AirtableProvider implements RemoteStore for one Airtable table
type AirtableProvider struct {
	baseURL   string
	apiKey    string
	baseID    string
	tableName string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	metrics   *metrics.MetricsRegistry
}

var _ RemoteStore = (*AirtableProvider)(nil)

// NewAirtableProvider creates a new Airtable provider
func NewAirtableProvider(opts AirtableOptions) *AirtableProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.airtable.com/v0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout == 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	threshold := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "airtable",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &AirtableProvider{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		baseID:    opts.BaseID,
		tableName: opts.TableName,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(opts.RPS), 1),
		breaker:   breaker,
		metrics:   opts.Metrics,
	}
}

// ListAll fetches every record, one listRecords page at a time
func (p *AirtableProvider) ListAll(ctx context.Context) ([]RemoteRecord, error) {
	var all []RemoteRecord
	offset := ""

	for page := 1; ; page++ {
		payload := map[string]interface{}{
			"pageSize": airtablePageSize,
		}
		if offset != "" {
			payload["offset"] = offset
		}

		var resp AirtableListResponse
		if err := p.do(ctx, OpList, "", http.MethodPost, p.tableURL()+"/listRecords", payload, &resp); err != nil {
			return nil, err
		}

		logging.Debug("Fetched Airtable page", "page", page, "records", len(resp.Records))
		all = append(all, resp.Records...)

		if resp.Offset == "" {
			return all, nil
		}
		offset = resp.Offset
	}
}

// Get fetches a single record by Airtable record ID
func (p *AirtableProvider) Get(ctx context.Context, remoteID string) (*RemoteRecord, error) {
	if err := requireID(OpGet, remoteID); err != nil {
		return nil, err
	}
	var rec RemoteRecord
	if err := p.do(ctx, OpGet, remoteID, http.MethodGet, p.recordURL(remoteID), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a record. typecast lets Airtable coerce option and date values.
func (p *AirtableProvider) Create(ctx context.Context, fields map[string]interface{}) (*RemoteRecord, error) {
	payload := map[string]interface{}{
		"fields":   fields,
		"typecast": true,
	}
	var rec RemoteRecord
	if err := p.do(ctx, OpCreate, "", http.MethodPost, p.tableURL(), payload, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, &RemoteStoreError{
			Op:      OpCreate,
			Code:    constants.ErrCodeDecodeError,
			Message: "created record has no id",
		}
	}
	return &rec, nil
}

// Update patches only the given fields of a record
func (p *AirtableProvider) Update(ctx context.Context, remoteID string, fields map[string]interface{}) (*RemoteRecord, error) {
	if err := requireID(OpUpdate, remoteID); err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"fields":   fields,
		"typecast": true,
	}
	var rec RemoteRecord
	if err := p.do(ctx, OpUpdate, remoteID, http.MethodPatch, p.recordURL(remoteID), payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record
func (p *AirtableProvider) Delete(ctx context.Context, remoteID string) error {
	if err := requireID(OpDelete, remoteID); err != nil {
		return err
	}
	var resp AirtableDeleteResponse
	return p.do(ctx, OpDelete, remoteID, http.MethodDelete, p.recordURL(remoteID), nil, &resp)
}

func (p *AirtableProvider) tableURL() string {
	return fmt.Sprintf("%s/%s/%s", p.baseURL, url.PathEscape(p.baseID), url.PathEscape(p.tableName))
}

func (p *AirtableProvider) recordURL(remoteID string) string {
	return p.tableURL() + "/" + url.PathEscape(remoteID)
}

// do runs one rate-limited, breaker-guarded call and decodes the answer into out
func (p *AirtableProvider) do(ctx context.Context, op, remoteID, method, endpoint string, payload, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		p.observe(op, start, err)
		if err != nil {
			var rse *RemoteStoreError
			if errors.As(err, &rse) {
				rse.Op = op
				rse.RemoteID = remoteID
			}
		}
	}()

	if p.apiKey == "" || p.baseID == "" || p.tableName == "" {
		return &RemoteStoreError{
			Code:    constants.ErrCodeNotConfigured,
			Message: constants.GetErrorMessage(constants.ErrCodeNotConfigured),
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return &RemoteStoreError{
			Code:    constants.ErrCodeNetworkError,
			Message: "request cancelled while waiting for rate limiter",
			Err:     err,
		}
	}

	body, err := p.breaker.Execute(func() ([]byte, error) {
		return p.roundTrip(ctx, method, endpoint, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &RemoteStoreError{
				Code:    constants.ErrCodeCircuitOpen,
				Message: constants.GetErrorMessage(constants.ErrCodeCircuitOpen),
				Err:     err,
			}
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RemoteStoreError{
			Code:    constants.ErrCodeDecodeError,
			Message: constants.GetErrorMessage(constants.ErrCodeDecodeError),
			Details: string(body),
			Err:     err,
		}
	}
	return nil
}

func (p *AirtableProvider) roundTrip(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, &RemoteStoreError{
				Code:    constants.ErrCodeInvalidRequest,
				Message: "failed to marshal request body",
				Err:     err,
			}
		}
		reqBody = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &RemoteStoreError{
			Code:    constants.ErrCodeInvalidRequest,
			Message: "failed to create request",
			Err:     err,
		}
	}

	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &RemoteStoreError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteStoreError{
			Code:       constants.ErrCodeNetworkError,
			StatusCode: resp.StatusCode,
			Message:    "failed to read response body",
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, buildHTTPError(resp.StatusCode, bodyBytes)
	}
	return bodyBytes, nil
}

// buildHTTPError converts non-2xx answers to RemoteStoreError
func buildHTTPError(statusCode int, body []byte) error {
	code := constants.ErrCodeUpstreamError
	message := fmt.Sprintf("HTTP %d", statusCode)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		code = constants.ErrCodeInvalidAPIKey
		message = constants.GetErrorMessage(code)
	case statusCode == http.StatusNotFound:
		code = constants.ErrCodeNotFound
		message = constants.GetErrorMessage(code)
	case statusCode == http.StatusTooManyRequests:
		code = constants.ErrCodeRateLimited
		message = constants.GetErrorMessage(code)
	case statusCode >= 400 && statusCode < 500:
		code = constants.ErrCodeInvalidRequest
		message = constants.GetErrorMessage(code)
	}

	var apiErr AirtableErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = fmt.Sprintf("%s: %s", message, apiErr.Error.Message)
	}

	return &RemoteStoreError{
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
		Details:    string(body),
	}
}

func (p *AirtableProvider) observe(op string, start time.Time, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "success"
	var rse *RemoteStoreError
	if errors.As(err, &rse) {
		outcome = strings.ToLower(rse.Code)
	} else if err != nil {
		outcome = "error"
	}
	p.metrics.RemoteCallsTotal.WithLabelValues(op, outcome).Inc()
	p.metrics.RemoteCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func requireID(op, remoteID string) error {
	if strings.TrimSpace(remoteID) == "" {
		return &RemoteStoreError{
			Op:      op,
			Code:    constants.ErrCodeInvalidRequest,
			Message: "record id is required",
		}
	}
	return nil
}

// Airtable API response structures

type AirtableListResponse struct {
	Records []RemoteRecord `json:"records"`
	Offset  string         `json:"offset,omitempty"`
}

type AirtableDeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type AirtableErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
