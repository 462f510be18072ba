package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/user/docchat/pkg/ragapi"
)

// Client implements the ragapi.Client interface over HTTP.
type Client struct {
	config     *ragapi.Config
	httpClient *http.Client
}

// New creates an HTTP client with the given configuration.
func New(config *ragapi.Config) *Client {
	timeout := 60 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// createSessionResponse is the create-session response body.
type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// askRequest is the question request body.
type askRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// errorBody is the best-effort shape of a non-2xx response body. Some
// deployments report under "error", others under "detail".
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// serviceError extracts a human-readable message from a non-2xx response,
// falling back to "status N" when the body is absent or unparsable.
func serviceError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return fmt.Errorf("%s", eb.Error)
		}
		if eb.Detail != "" {
			return fmt.Errorf("%s", eb.Detail)
		}
	}
	return fmt.Errorf("status %d", status)
}

func (c *Client) chatPath() string {
	if c.config.ChatPath != "" {
		return c.config.ChatPath
	}
	return "/chat"
}

// do sends the request and returns the response body for 2xx statuses.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serviceError(resp.StatusCode, body)
	}
	return body, nil
}

// Health probes the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// CreateSession requests a new remote session.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/create-session", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var csr createSessionResponse
	if err := json.Unmarshal(body, &csr); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if csr.SessionID == "" {
		return "", fmt.Errorf("no session_id in response")
	}
	return csr.SessionID, nil
}

// UploadPDF submits the file plus session identifier as a multipart payload.
func (c *Client) UploadPDF(ctx context.Context, sessionID string, file ragapi.File) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("session_id", sessionID); err != nil {
		return fmt.Errorf("writing session field: %w", err)
	}
	fw, err := w.CreateFormFile("pdf", file.Name)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := fw.Write(file.Data); err != nil {
		return fmt.Errorf("writing file data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/upload-pdf", &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, err = c.do(req)
	return err
}

// Ask sends a question against the given session.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (*ragapi.ChatResponse, error) {
	body, err := json.Marshal(askRequest{SessionID: sessionID, Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.chatPath(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var cr ragapi.ChatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &cr, nil
}

// ClearSession tears down the remote session.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.BaseURL+"/clear-session/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// SessionInfo fetches the session metadata projection.
func (c *Client) SessionInfo(ctx context.Context, sessionID string) (*ragapi.SessionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/session-info/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var info ragapi.SessionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &info, nil
}

// listDocumentsResponse is the document listing response body.
type listDocumentsResponse struct {
	Documents []ragapi.RemoteDocument `json:"documents"`
}

// ListDocuments returns the filename-addressed document listing.
func (c *Client) ListDocuments(ctx context.Context) ([]ragapi.RemoteDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/list-documents", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var lr listDocumentsResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return lr.Documents, nil
}

// DeleteDocument removes a document by filename.
func (c *Client) DeleteDocument(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.BaseURL+"/delete-document/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	_, err = c.do(req)
	return err
}
