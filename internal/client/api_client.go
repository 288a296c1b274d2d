package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tailor-app/internal/models"
	"tailor-app/internal/taxonomy"
)

const (
	dateLayout     = "2006-01-02"
	defaultTimeout = 15 * time.Second
)

// APIError is a non-2xx response. Message is the server's message, verbatim.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Is lets callers match the status-bearing sentinels of the models package.
func (e *APIError) Is(target error) bool {
	switch target {
	case models.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case models.ErrNotFound:
		return e.Status == http.StatusNotFound
	case models.ErrConflict:
		return e.Status == http.StatusConflict
	case models.ErrIdempotencyMismatch:
		return e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// APIClient talks to the order API on behalf of the intake form, the dashboard and the CLI.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *APIClient) WithHTTPClient(hc *http.Client) *APIClient {
	c.httpClient = hc
	return c
}

func (c *APIClient) SetToken(token string) { c.token = token }

func (c *APIClient) Token() string { return c.token }

// Login signs in and keeps the session token for later admin calls.
func (c *APIClient) Login(ctx context.Context, email, password string) (*models.Principal, error) {
	var out struct {
		Token string            `json:"token"`
		User  *models.Principal `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, body, nil, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.User, nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *APIClient) Session(ctx context.Context) (*models.Principal, error) {
	var out struct {
		User *models.Principal `json:"user"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/auth/session", nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *APIClient) Taxonomy(ctx context.Context) (*taxonomy.Taxonomy, error) {
	var out taxonomy.Taxonomy
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/taxonomy", nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitResult is the outcome of a create call.
type SubmitResult struct {
	Message  string
	Order    *models.Order
	Replayed bool
}

// CreateOrder posts a draft. A non-empty idempotencyKey makes retries return the first order.
func (c *APIClient) CreateOrder(ctx context.Context, draft models.OrderDraft, idempotencyKey string) (*SubmitResult, error) {
	var out struct {
		Message string        `json:"message"`
		Order   *models.Order `json:"order"`
	}
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	status, err := c.doJSON(ctx, http.MethodPost, "/api/order", nil, draft, header, &out)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Message: out.Message, Order: out.Order, Replayed: status == http.StatusOK}, nil
}

func (c *APIClient) ListOrders(ctx context.Context, query models.OrderQuery) (*models.OrderPage, error) {
	params := filterValues(query.Filter)
	if query.Page > 0 {
		params.Set("page", strconv.FormatInt(query.Page, 10))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.FormatInt(query.Limit, 10))
	}

	var out models.OrderPage
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/order", params, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var out struct {
		Order *models.Order `json:"order"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/order/"+url.PathEscape(id), nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// ExportOrders downloads the filtered orders as an XLSX workbook.
func (c *APIClient) ExportOrders(ctx context.Context, filter models.OrderFilter) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/order/export", filterValues(filter), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

// filterValues encodes a filter the way the list endpoint reads it. Dates go out as yyyy-MM-dd.
func filterValues(f models.OrderFilter) url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(f.Shop); s != "" {
		v.Set("shop", s)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Subcategory != "" {
		v.Set("subcategory", f.Subcategory)
	}
	if f.StartDate != nil {
		v.Set("startDate", f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil {
		v.Set("endDate", f.EndDate.Format(dateLayout))
	}
	return v
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, params url.Values, in interface{}, header http.Header, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		if header == nil {
			header = http.Header{}
		}
		header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(ctx, method, path, params, body, header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return resp.StatusCode, err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, params url.Values, body io.Reader, header http.Header) (*http.Response, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Errors = payload.Errors
	}
	return apiErr
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return errors.Is(err, models.ErrUnauthorized)
}
