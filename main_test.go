package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"haruki-sprite-action/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAct() []byte {
	data := []byte{'A', 'C', 2, 1, 0, 0}
	data = append(data, make([]byte, 10)...)
	data = append(data, 1, 0, 0, 0)
	name := make([]byte, 40)
	copy(name, "hit.wav")
	return append(data, name...)
}

func postDecode(t *testing.T, cfg config.Config, body []byte) int {
	previous := config.Cfg
	config.Cfg = cfg
	t.Cleanup(func() { config.Cfg = previous })

	app := newApp(cfg, io.Discard)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(body)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestNewAppWithoutFileSizeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Decoder.MaxFileSize = 0

	assert.Equal(t, http.StatusOK, postDecode(t, cfg, sampleAct()))

	// larger than Fiber's 4 MiB default, so only the decoder sees it
	large := make([]byte, 5*1024*1024)
	assert.Equal(t, http.StatusUnprocessableEntity, postDecode(t, cfg, large))
}

func TestNewAppWithFileSizeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Decoder.MaxFileSize = 64
	cfg.Backend.AccessLog = "${status} ${path}\n"

	assert.Equal(t, http.StatusOK, postDecode(t, cfg, sampleAct()))
	assert.Equal(t, http.StatusRequestEntityTooLarge, postDecode(t, cfg, make([]byte, 65)))
}
