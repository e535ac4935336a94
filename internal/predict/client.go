// Package predict talks to the malaria classification service: it uploads
// images to /predict and fetches the results CSV from /download.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PredictPath  = "/predict"
	DownloadPath = "/download"

	// FieldName is the repeated multipart field carrying the images.
	FieldName = "images"

	// maxResponseSize caps the JSON body read from /predict.
	maxResponseSize = 8 * 1024 * 1024
)

// Client is an HTTP client for the prediction service.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse server url: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + p
	return u.String()
}

// Predict uploads files as one multipart request and returns the decoded
// results. The service is expected to answer in submission order, which is
// not verified.
func (c *Client) Predict(ctx context.Context, files []string) ([]Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	body, contentType, err := encodeImages(files)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(PredictPath), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	c.logger.Debug("predict request", "request_id", reqID, "files", len(files), "bytes", body.Len())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &StatusError{Op: "predict", StatusCode: resp.StatusCode}
	}

	var results []Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	// null decodes without error
	if results == nil {
		return nil, fmt.Errorf("decode predict response: %w", ErrMalformedResponse)
	}
	c.logger.Info("predict done",
		"request_id", reqID,
		"results", len(results),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return results, nil
}

// Download streams the service's results CSV into w and returns the number of
// bytes written.
func (c *Client) Download(ctx context.Context, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(DownloadPath), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{Op: "download", StatusCode: resp.StatusCode}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download: %w", err)
	}
	return n, nil
}

// encodeImages builds the multipart body with one "images" part per file.
func encodeImages(files []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // user selected image
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, filepath.Base(path)))
		h.Set("Content-Type", http.DetectContentType(data))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
