// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dertuxmalwieder/ws2markdown/internal/convert"
	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

func testServer(t *testing.T, maxBody int64) *Server {
	t.Helper()
	cfg := types.DefaultConfig().Conversion
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(convert.New(cfg), cfg, maxBody, log)
}

func wsDocument(body string) []byte {
	return append(bytes.Repeat([]byte{0}, convert.HeaderSize), body...)
}

func post(t *testing.T, s *Server, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	s := testServer(t, 0)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestConvert_Markdown(t *testing.T) {
	s := testServer(t, 0)
	rec := post(t, s, "/convert", wsDocument(".h1 Title\r\nHello \x02world\x02!\r\n.pa\r\n"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0", rec.Header().Get("X-Conversion-Warnings"))
	assert.Equal(t, "# Title\nHello **world**!\n\n----\n\n", rec.Body.String())
}

func TestConvert_HTMLAndFrontmatter(t *testing.T) {
	s := testServer(t, 0)

	rec := post(t, s, "/convert?format=html", wsDocument(".h2 Sub\r\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h2>Sub</h2>")

	rec = post(t, s, "/convert?frontmatter=true&name=LETTER.WS", wsDocument(".h2 Sub\r\n.fi\r\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "---\nsource: LETTER.WS\n"))
	assert.Equal(t, "1", rec.Header().Get("X-Conversion-Warnings"))
}

func TestConvert_BadRequests(t *testing.T) {
	s := testServer(t, 0)

	rec := post(t, s, "/convert?format=pdf", wsDocument("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "format")

	rec = post(t, s, "/convert?frontmatter=maybe", wsDocument("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvert_Malformed(t *testing.T) {
	s := testServer(t, 0)

	rec := post(t, s, "/convert", wsDocument("broken \x1b\r\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "malformed document")

	rec = post(t, s, "/convert", []byte("short"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConvert_TooLarge(t *testing.T) {
	s := testServer(t, convert.HeaderSize+4)

	rec := post(t, s, "/convert", wsDocument("this body is too long"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingConverter struct{}

func (failingConverter) Convert([]byte) (convert.Result, error) {
	return convert.Result{}, errors.New("disk on fire")
}

func TestConvert_InternalError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(failingConverter{}, types.DefaultConfig().Conversion, 0, log)

	rec := post(t, s, "/convert", wsDocument("x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "conversion failed", errorMessage(t, rec))
}

func TestConvert_MethodNotAllowed(t *testing.T) {
	s := testServer(t, 0)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
