package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"pdf-collab/backend/go/pkg/listview"

	"github.com/gorilla/websocket"
)

// apiClient talks to the file service's HTTP API. It implements
// listview.Fetcher so the list command can drive a listview.Controller
// directly against the server.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient() *apiClient {
	token := authToken
	if token == "" {
		token = os.Getenv("PDFSHARE_TOKEN")
	}
	return &apiClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// apiError extracts the error message from a non-2xx response body.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("server: %s (HTTP %d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
}

// FetchFiles retrieves the folder's file snapshot, newest first.
func (c *apiClient) FetchFiles(ctx context.Context, folder string) ([]listview.FileRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/files?folder=%s", c.baseURL, url.QueryEscape(folder))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var body struct {
		Files []listview.FileRecord `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding file list: %w", err)
	}
	return body.Files, nil
}

type uploadOutcome struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Error    string `json:"error,omitempty"`
}

// Upload sends the named files as one multipart request. Each file succeeds
// or fails independently; the server reports per-file outcomes.
func (c *apiClient) Upload(ctx context.Context, folder string, files map[string][]byte) ([]uploadOutcome, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("folder", folder); err != nil {
		return nil, err
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/files", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return nil, apiError(resp)
	}

	var body struct {
		Results []uploadOutcome `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding upload results: %w", err)
	}
	return body.Results, nil
}

// Delete removes the file at the given storage path.
func (c *apiClient) Delete(ctx context.Context, path string) error {
	raw, _ := json.Marshal(map[string]string{"path": path})
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/files", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// SignedURL asks the server for a time-limited download link.
func (c *apiClient) SignedURL(ctx context.Context, path string) (string, error) {
	raw, _ := json.Marshal(map[string]string{"path": path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/files/signed-url", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding signed url: %w", err)
	}
	return body.URL, nil
}

// Watch connects to the change notification socket and invokes onChange for
// every cue until the context is cancelled or the connection drops. Cues
// carry no payload; the caller refetches.
func (c *apiClient) Watch(ctx context.Context, onChange func()) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws/subscribe"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		onChange()
	}
}
