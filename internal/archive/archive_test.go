package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRun(t *testing.T) {
	got, err := ParseRun("202401021500")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "2024010215", "20240102150000", "2024013215zz"} {
		_, err := ParseRun(bad)
		assert.True(t, errors.Is(err, ErrInvalidRun), "ParseRun(%q) = %v", bad, err)
	}
}

func TestURL(t *testing.T) {
	c := NewClient()
	got, err := c.URL("202401021500", "Lsurf_FH00-15")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL+"2024/01/02/Z__C_RJTD_20240102150000_MSM_GPV_Rjp_Lsurf_FH00-15_grib2.bin", got)

	c.BaseURL = "http://example.test/root"
	got, err = c.URL("202401021500", "L-pall_FH36-39")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/root/2024/01/02/Z__C_RJTD_20240102150000_MSM_GPV_Rjp_L-pall_FH36-39_grib2.bin", got)

	_, err = c.URL("2024", "Lsurf_FH00-15")
	assert.True(t, errors.Is(err, ErrInvalidRun))
}

func newServer(t *testing.T, files map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &Client{HTTPClient: srv.Client(), BaseURL: srv.URL}
}

func TestFetchWritesFile(t *testing.T) {
	c := newServer(t, map[string]string{
		"/2024/01/02/" + FileName("202401020300", "Lsurf_FH00-15"): "GRIB...7777",
	})
	dir := t.TempDir()
	path, err := c.Fetch(context.Background(), "202401020300", "Lsurf_FH00-15", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName("202401020300", "Lsurf_FH00-15")), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GRIB...7777", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFetchNotFound(t *testing.T) {
	c := newServer(t, nil)
	dir := t.TempDir()
	_, err := c.Fetch(context.Background(), "202401020300", "Lsurf_FH00-15", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := &Client{HTTPClient: srv.Client(), BaseURL: srv.URL}
	_, err := c.FetchBytes(context.Background(), "202401020300", "Lsurf_FH00-15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestFetchCancelled(t *testing.T) {
	c := newServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchBytes(ctx, "202401020300", "Lsurf_FH00-15")
	require.Error(t, err)
}

func TestLatestWalksBack(t *testing.T) {
	c := newServer(t, map[string]string{
		"/2024/01/02/" + FileName("202401020300", "Lsurf_FH00-15"): "older",
	})
	now := time.Date(2024, 1, 2, 10, 42, 0, 0, time.UTC)
	run, err := c.Latest(context.Background(), "Lsurf_FH00-15", now, 4)
	require.NoError(t, err)
	assert.Equal(t, "202401020300", run)

	_, err = c.Latest(context.Background(), "Lsurf_FH00-15", now, 1)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "last 2 cycles"), err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}
