// Package archive downloads MSM GRIB2 files from the Kyoto University
// RISH mirror of the JMA GPV archive.
package archive

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultBaseURL is the root of the RISH GPV "original" tree.
const DefaultBaseURL = "http://database.rish.kyoto-u.ac.jp/arch/jmadata/data/gpv/original/"

// maxFileBytes caps a single download. Full MSM pressure-level files are
// around 200 MB.
const maxFileBytes = 1 << 30

// FileTypes lists the six files published per MSM run.
var FileTypes = []string{
	"Lsurf_FH00-15", "Lsurf_FH16-33", "Lsurf_FH34-39",
	"L-pall_FH00-15", "L-pall_FH18-33", "L-pall_FH36-39",
}

// ErrInvalidRun is returned for run strings that are not 12 digits (YYYYMMDDhhmm).
var ErrInvalidRun = errors.New("invalid date")

// ErrNotFound is returned when the server has no file for the requested run.
var ErrNotFound = errors.New("file not found")

// Client fetches MSM files over HTTP.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string // default: DefaultBaseURL
}

// NewClient returns a client with sensible defaults.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Minute},
		BaseURL:    DefaultBaseURL,
	}
}

// ParseRun validates a 12-digit YYYYMMDDhhmm run string.
func ParseRun(run string) (time.Time, error) {
	if len(run) != 12 {
		return time.Time{}, errors.Wrapf(ErrInvalidRun, "%q", run)
	}
	t, err := time.Parse("200601021504", run)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidRun, "%q: %v", run, err)
	}
	return t, nil
}

// FormatRun renders t as a run string.
func FormatRun(t time.Time) string { return t.UTC().Format("200601021504") }

// FileName returns the archive file name for a run and file type.
func FileName(run, fileType string) string {
	return "Z__C_RJTD_" + run + "00_MSM_GPV_Rjp_" + fileType + "_grib2.bin"
}

// URL returns the download URL for a run and file type.
func (c *Client) URL(run, fileType string) (string, error) {
	if _, err := ParseRun(run); err != nil {
		return "", err
	}
	base := c.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.Join([]string{run[0:4], run[4:6], run[6:8], FileName(run, fileType)}, "/"), nil
}

// FetchBytes downloads one file into memory.
func (c *Client) FetchBytes(ctx context.Context, run, fileType string) ([]byte, error) {
	body, err := c.open(ctx, run, fileType)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	b, err := io.ReadAll(io.LimitReader(body, maxFileBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", FileName(run, fileType))
	}
	return b, nil
}

// Fetch downloads one file into dir and returns its path. The file appears
// under its final name only once fully written.
func (c *Client) Fetch(ctx context.Context, run, fileType, dir string) (string, error) {
	body, err := c.open(ctx, run, fileType)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	dst := filepath.Join(dir, FileName(run, fileType))
	tmp, err := os.CreateTemp(dir, ".msm-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(body, maxFileBytes)); err != nil {
		tmp.Close()
		return "", errors.Wrapf(err, "download %s", dst)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", errors.Wrapf(err, "rename to %s", dst)
	}
	return dst, nil
}

// Latest walks back from now in 3-hour steps (MSM runs at 00, 03, ... 21 UTC)
// and returns the newest run whose fileType the server has, checking at
// most maxBack+1 cycles.
func (c *Client) Latest(ctx context.Context, fileType string, now time.Time, maxBack int) (string, error) {
	base := now.UTC().Truncate(time.Hour)
	base = base.Add(-time.Duration(base.Hour()%3) * time.Hour)
	var lastErr error
	for lag := 0; lag <= maxBack; lag++ {
		run := FormatRun(base.Add(-time.Duration(3*lag) * time.Hour))
		err := c.head(ctx, run, fileType)
		if err == nil {
			return run, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", errors.Wrapf(lastErr, "no %s run in the last %d cycles", fileType, maxBack+1)
}

func (c *Client) head(ctx context.Context, run, fileType string) error {
	body, err := c.do(ctx, http.MethodHead, run, fileType)
	if err != nil {
		return err
	}
	return body.Close()
}

func (c *Client) open(ctx context.Context, run, fileType string) (io.ReadCloser, error) {
	return c.do(ctx, http.MethodGet, run, fileType)
}

func (c *Client) do(ctx context.Context, method, run, fileType string) (io.ReadCloser, error) {
	url, err := c.URL(run, fileType)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, errors.Wrapf(ErrNotFound, "%s", url)
	default:
		resp.Body.Close()
		return nil, errors.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}
}
