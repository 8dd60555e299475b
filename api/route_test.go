package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"haruki-sprite-action/config"
	"haruki-sprite-action/updater"
	"haruki-sprite-action/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/shamaton/msgpack/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleAct is a version 2.1 file with no actions and one sound.
func sampleAct() []byte {
	data := []byte{'A', 'C', 2, 1, 0, 0}
	data = append(data, make([]byte, 10)...)
	data = append(data, 1, 0, 0, 0)
	name := make([]byte, 40)
	copy(name, "hit.wav")
	return append(data, name...)
}

func setupApp(t *testing.T, cfg config.Config) *fiber.App {
	previous := config.Cfg
	config.Cfg = cfg
	t.Cleanup(func() { config.Cfg = previous })
	app := fiber.New()
	RegisterRoutes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	app := setupApp(t, config.Default())
	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestDecodeJSON(t *testing.T) {
	app := setupApp(t, config.Default())
	status, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(sampleAct())))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"version":{"major":2,"minor":1}`)
	assert.Contains(t, body, `"sounds":["hit.wav"]`)
}

func TestDecodeSummaryAndMsgpack(t *testing.T) {
	app := setupApp(t, config.Default())

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/decode?format=summary", bytes.NewReader(sampleAct())))
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(body, `{"version":"2.1","actions":0`), body)

	req := httptest.NewRequest(http.MethodPost, "/decode?format=msgpack", bytes.NewReader(sampleAct()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, "application/msgpack", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "sounds")
}

func TestDecodeErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Decoder.MaxFileSize = 32
	app := setupApp(t, cfg)

	tests := []struct {
		name   string
		target string
		body   []byte
		status int
	}{
		{"empty body", "/decode", nil, http.StatusBadRequest},
		{"bad magic", "/decode", []byte("XX\x02\x00\x00\x00"), http.StatusUnprocessableEntity},
		{"truncated", "/decode", []byte("AC\x02\x00\x01\x00"), http.StatusBadRequest},
		{"too large", "/decode", make([]byte, 33), http.StatusRequestEntityTooLarge},
		{"bad format", "/decode?format=xml", []byte("AC"), http.StatusBadRequest},
		{"bad encoding", "/decode?encoding=ebcdic", []byte("AC"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doRequest(t, app, httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(tt.body)))
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestDecodeTextError(t *testing.T) {
	app := setupApp(t, config.Default())
	data := sampleAct()
	data[20] = 0x81 // lead byte without a trail byte under Shift-JIS
	data[21] = 0
	status, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/decode?encoding=shift-jis", bytes.NewReader(data)))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Failed to decode act file")
}

func TestAuthorization(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.EnableAuthorization = true
	cfg.Backend.AcceptUserAgentPrefix = "HarukiClient"
	cfg.Backend.AcceptAuthorizationToken = "secret"
	app := setupApp(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(sampleAct()))
	status, body := doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid User-Agent")

	req = httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(sampleAct()))
	req.Header.Set("User-Agent", "HarukiClient/1.0")
	req.Header.Set("Authorization", "Bearer wrong")
	status, body = doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid authorization token")

	req = httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(sampleAct()))
	req.Header.Set("User-Agent", "HarukiClient/1.0")
	req.Header.Set("Authorization", "Bearer secret")
	status, _ = doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestUpdateAct(t *testing.T) {
	cfg := config.Default()
	cfg.Servers = map[string]utils.HarukiActUpdaterConfig{
		"kro": {Enabled: true},
		"iro": {Enabled: false},
	}
	app := setupApp(t, cfg)

	var started []updater.HarukiActUpdaterPayload
	previous := startUpdater
	startUpdater = func(server string, payload updater.HarukiActUpdaterPayload) {
		started = append(started, payload)
	}
	t.Cleanup(func() { startUpdater = previous })

	post := func(body string) (int, string) {
		req := httptest.NewRequest(http.MethodPost, "/update_act", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return doRequest(t, app, req)
	}

	status, body := post(`{"server":"kro","names":["monster/poring"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Act updater started running")
	require.Len(t, started, 1)
	assert.Equal(t, []string{"monster/poring"}, started[0].Names)

	status, _ = post(`{"server":"iro"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = post(`{"server":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(`{"server":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, started, 1)
}
