package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/storage"
	"chatrelay/internal/configs"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/metrics"
)

func newTestServer(t *testing.T, opts ...func(*AppDeps)) (*httptest.Server, *AppDeps) {
	t.Helper()

	store, err := storage.NewService(t.Context(), storage.ServiceConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>chat</h1>"), 0o644))

	m := metrics.New()
	hub := chat.NewHub(chat.Config{SweepInterval: time.Hour, Metrics: m})
	hub.Run()

	deps := &AppDeps{
		Hub: hub,
		Config: &configs.AppConfig{
			Environment: "development",
			StaticDir:   static,
			MaxUploadMB: 1,
		},
		Storage:       store,
		Metrics:       m,
		SocketLimiter: NewSocketLimiter(),
		UploadLimiter: NewUploadLimiter(),
	}

	for _, opt := range opts {
		opt(deps)
	}

	srv := httptest.NewServer(Router(deps))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
		deps.SocketLimiter.Stop()
		deps.UploadLimiter.Stop()
	})

	return srv, deps
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Status string     `json:"status"`
			Hub    chat.Stats `json:"hub"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, 0, body.Data.Hub.Connections)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestStaticFiles(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "<h1>chat</h1>", string(body))
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestUploadAndDownload(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "file", "../../notes.txt", []byte("hello upload"))
	res, err := http.Post(srv.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var result UploadResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Equal(t, UploadResult{Filename: "notes.txt", Path: "/uploads/notes.txt"}, result)

	dl, err := http.Get(srv.URL + result.Path)
	require.NoError(t, err)
	defer dl.Body.Close()

	content, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "hello upload", string(content))
}

func TestUploadWithoutFile(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "", "", nil)
	res, err := http.Post(srv.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUploadTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "file", "big.bin", bytes.Repeat([]byte("x"), 3<<19))
	res, err := http.Post(srv.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
}

func TestDownloadMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/uploads/nothing.png")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUploadUsesSuppliedLimiter(t *testing.T) {
	strict := limiter.NewIPRateLimiter(rate.Limit(0.001), 1)
	srv, _ := newTestServer(t, func(d *AppDeps) {
		d.UploadLimiter.Stop()
		d.UploadLimiter = strict
	})

	upload := func() int {
		body, contentType := multipartBody(t, "file", "a.txt", []byte("a"))
		res, err := http.Post(srv.URL+"/upload", contentType, body)
		require.NoError(t, err)
		res.Body.Close()
		return res.StatusCode
	}

	assert.Equal(t, http.StatusOK, upload())
	assert.Equal(t, http.StatusTooManyRequests, upload())
}
