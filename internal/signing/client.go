// Package signing talks to the e-sign API on behalf of one signing session and
// assembles sign/reject requests from the session's template, placement and notes.
package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"kpp-siprima/internal/model"
	requestresponse "kpp-siprima/internal/model/requestresponse"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// maxResponseBody bounds JSON responses (10MB)
	maxResponseBody = 10 << 20
	// maxDocumentBody bounds document downloads (64MB)
	maxDocumentBody = 64 << 20
)

// ErrResponseTooLarge is returned when a response body exceeds its bound
var ErrResponseTooLarge = errors.New("response body too large")

// ErrInvalidBaseURL is returned when the base URL is empty or malformed
var ErrInvalidBaseURL = errors.New("invalid base URL: must be non-empty with scheme and host")

// Client is an HTTP client for the e-sign API. Server errors come back as
// *model.Error with the kind the server reported; transport failures are
// NetworkError.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	mu         sync.RWMutex
	token      string
}

// NewClient creates a client for baseURL (scheme and host required).
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidBaseURL
	}

	parsed, err := url.ParseRequestURI(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) getToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// FetchDocument : raw bytes of the document (the stamped artifact once signed)
func (c *Client) FetchDocument(ctx context.Context, documentID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, documentPath(documentID, "file"), nil, maxDocumentBody)
}

// ListTemplates : signature templates owned by the token's user
func (c *Client) ListTemplates(ctx context.Context) ([]requestresponse.TemplateResponse, error) {
	var resp requestresponse.ListTemplatesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) SubmitForSignature(ctx context.Context, documentID string) (*requestresponse.SubmitResponse, error) {
	var resp requestresponse.SubmitResponse
	if err := c.doJSON(ctx, http.MethodPost, documentPath(documentID, "submit"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Sign(ctx context.Context, documentID string, req requestresponse.SignRequest) (*requestresponse.SignResponse, error) {
	var resp requestresponse.SignResponse
	if err := c.doJSON(ctx, http.MethodPost, documentPath(documentID, "sign"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Reject(ctx context.Context, documentID, notes string) (*requestresponse.RejectResponse, error) {
	var resp requestresponse.RejectResponse
	body := requestresponse.RejectRequest{Notes: notes}
	if err := c.doJSON(ctx, http.MethodPost, documentPath(documentID, "reject"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status : current status and signatures, used to re-sync after an error
func (c *Client) Status(ctx context.Context, documentID string) (*requestresponse.StatusResponse, error) {
	var resp requestresponse.StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, documentPath(documentID, "status"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func documentPath(documentID, action string) string {
	return "/api/docs/" + url.PathEscape(documentID) + "/" + action
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	respBody, err := c.do(ctx, method, path, body, maxResponseBody)
	if err != nil {
		return err
	}
	if len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewError(model.KindNetwork, "unreadable server response", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, limit int64) ([]byte, error) {
	reqBody, err := marshalBody(body)
	if err != nil {
		return nil, model.NewValidationError("request cannot be encoded", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, "failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.getToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := readResponseBody(resp.Body, limit)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

func marshalBody(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func readResponseBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// parseErrorResponse turns an error envelope back into *model.Error. Bodies
// without an envelope (proxies, panics) get a kind derived from the status.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp requestresponse.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Kind != "" {
		return model.NewError(model.ErrorKind(errResp.Error.Kind), errResp.Error.Message, nil)
	}

	message := string(body)
	if runes := []rune(message); len(runes) > 200 {
		message = string(runes[:200]) + "..."
	}
	message = fmt.Sprintf("HTTP %d: %s", statusCode, strings.TrimSpace(message))

	switch statusCode {
	case http.StatusBadRequest:
		return model.NewValidationError(message, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.NewError(model.KindUnauthorized, message, nil)
	case http.StatusNotFound:
		return model.NewNotFoundError(message, nil)
	case http.StatusConflict:
		return model.NewConflictError(message, nil)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return model.NewError(model.KindNetwork, message, nil)
	default:
		return model.NewProcessingError(message, nil)
	}
}
