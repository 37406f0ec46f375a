package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/line-report/pkg/models/api"
)

const (
	generateReportPath = "/generate_report"
	downtimePath       = "/get_downtime_data"
	mtbfPath           = "/get_mtbf_data"
	mttrPath           = "/get_mttr_data"
	generateDocxPath   = "/generate_docx"
	generateExcelPath  = "/generate_excel"
)

const (
	FormatDocx  = "docx"
	FormatExcel = "excel"
)

// StatusError is a non-2xx response or a 2xx body carrying an error field.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.Code, e.Message)
}

// Client talks to the monitoring backend over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend url is empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) GenerateReport(ctx context.Context, req api.GenerateReportRequest) ([]api.BaseReport, error) {
	var resp api.GenerateReportResponse
	if err := c.postJSON(ctx, generateReportPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}

func (c *Client) GetDowntime(ctx context.Context, req api.SectionRequest) (*api.DowntimeResponse, error) {
	var resp api.DowntimeResponse
	if err := c.postJSON(ctx, downtimePath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetMTBF(ctx context.Context, req api.SectionRequest) (*api.MTBFResponse, error) {
	var resp api.MTBFResponse
	if err := c.postJSON(ctx, mtbfPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetMTTR(ctx context.Context, req api.SectionRequest) (*api.MTTRResponse, error) {
	var resp api.MTTRResponse
	if err := c.postJSON(ctx, mttrPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateDocument posts the export form and returns the rendered file.
func (c *Client) GenerateDocument(ctx context.Context, format string, form api.ExportForm) (*api.DocumentBlob, error) {
	logger := zerolog.Ctx(ctx)

	var path string
	switch format {
	case FormatDocx:
		path = generateDocxPath
	case FormatExcel:
		path = generateExcelPath
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}

	body, contentType, err := encodeForm(form)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("document request failed")
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(path, resp.StatusCode, payload)
	}

	return &api.DocumentBlob{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	logger := zerolog.Ctx(ctx)

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("backend request failed")
		return err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}
	logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(path, resp.StatusCode, body)
	}

	var eb api.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return &StatusError{Path: path, Code: resp.StatusCode, Message: eb.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func statusError(path string, code int, body []byte) *StatusError {
	msg := strings.TrimSpace(string(body))
	var eb api.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &StatusError{Path: path, Code: code, Message: msg}
}

func encodeForm(form api.ExportForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if form.Report != "" {
		if err := w.WriteField("report", form.Report); err != nil {
			return nil, "", err
		}
	}
	if len(form.FailureLabels) > 0 {
		if err := writeJSONField(w, "failureLabels", form.FailureLabels); err != nil {
			return nil, "", err
		}
	}
	if len(form.FailureCounts) > 0 {
		if err := writeJSONField(w, "failureCounts", form.FailureCounts); err != nil {
			return nil, "", err
		}
	}
	if len(form.ReportData) > 0 {
		if err := writeJSONField(w, "reportData", form.ReportData); err != nil {
			return nil, "", err
		}
	}
	for _, img := range form.Images {
		part, err := w.CreateFormFile(img.Field, img.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to attach %s: %w", img.Filename, err)
		}
		if _, err := part.Write(img.PNG); err != nil {
			return nil, "", fmt.Errorf("failed to attach %s: %w", img.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeJSONField(w *multipart.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return w.WriteField(name, string(data))
}
