package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
)

const maxRosterBytes = 16 << 20

// SpreadsheetCSVURL builds the public CSV export address of a Google Sheets tab.
func SpreadsheetCSVURL(spreadsheetID, sheetName string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		url.PathEscape(spreadsheetID), url.QueryEscape(sheetName))
}

// HTTPRosterSource downloads the roster CSV from a published spreadsheet.
type HTTPRosterSource struct {
	client *http.Client
	url    string
}

// NewHTTPRosterSource constructs a source for url. A zero timeout means no deadline.
func NewHTTPRosterSource(rawURL string, timeout time.Duration) *HTTPRosterSource {
	return &HTTPRosterSource{
		client: &http.Client{Timeout: timeout},
		url:    rawURL,
	}
}

// Name identifies the source in status payloads.
func (s *HTTPRosterSource) Name() string {
	return s.url
}

// Fetch returns the raw CSV bytes. HTML pages (private sheets), non-2xx answers and
// blank bodies are reported as ErrRosterUnavailable.
func (s *HTTPRosterSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, unavailable(err, "invalid roster url")
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(err, "roster download failed")
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, unavailable(fmt.Errorf("content type %q", resp.Header.Get("Content-Type")),
			"roster url returned HTML instead of CSV; the spreadsheet is probably not public")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, unavailable(fmt.Errorf("http status %d", resp.StatusCode), "roster download failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRosterBytes))
	if err != nil {
		return nil, unavailable(err, "roster download interrupted")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, unavailable(fmt.Errorf("empty body"), "roster CSV is empty")
	}
	return body, nil
}

// FileRosterSource reads the roster CSV from disk.
type FileRosterSource struct {
	path string
}

// NewFileRosterSource constructs a source backed by a local file.
func NewFileRosterSource(path string) *FileRosterSource {
	return &FileRosterSource{path: path}
}

// Name identifies the source in status payloads.
func (s *FileRosterSource) Name() string {
	return "file://" + s.path
}

// Fetch reads the whole file.
func (s *FileRosterSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err, "roster read cancelled")
	}
	body, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable(err, "roster file unreadable")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, unavailable(fmt.Errorf("empty file"), "roster CSV is empty")
	}
	return body, nil
}

func unavailable(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrRosterUnavailable.Code, appErrors.ErrRosterUnavailable.Status, message)
}
