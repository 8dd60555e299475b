package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
backend:
  host: 127.0.0.1
  port: 9000
  log_level: DEBUG
decoder:
  text_encoding: euc-kr
export:
  format: msgpack
servers:
  kro:
    enabled: true
    act_url_template: "https://assets.example.com/sprite/{name}.act"
    act_names: ["monster/poring", "monster/lunatic"]
    skip_patterns: ["^npc/"]
remote_storages:
  - type: s3
    base: sprite
    bucket: act-exports
    region: ap-northeast-2
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Backend.Host)
	assert.Equal(t, 9000, cfg.Backend.Port)
	assert.Equal(t, "euc-kr", cfg.Decoder.TextEncoding)
	assert.Equal(t, 16*1024*1024, cfg.Decoder.MaxFileSize, "unset keys keep defaults")
	assert.Equal(t, "msgpack", cfg.Export.Format)
	assert.Equal(t, 4, cfg.Concurrents.ConcurrentDownload)

	server, ok := cfg.Servers["kro"]
	require.True(t, ok)
	assert.True(t, server.Enabled)
	assert.Equal(t, []string{"monster/poring", "monster/lunatic"}, server.ActNames)
	assert.Equal(t, []string{"^npc/"}, server.SkipPatterns)

	require.Len(t, cfg.RemoteStorages, 1)
	assert.Equal(t, "act-exports", cfg.RemoteStorages[0].Bucket)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HARUKI_BACKEND_PORT", "9100")
	t.Setenv("HARUKI_DECODER_TEXT_ENCODING", "shift-jis")
	t.Setenv("HARUKI_PROXY", "http://127.0.0.1:7890")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Backend.Port)
	assert.Equal(t, "shift-jis", cfg.Decoder.TextEncoding)
	assert.Equal(t, "http://127.0.0.1:7890", cfg.Proxy)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "decoder:\n  text_encoding: ebcdic\n"))
	assert.ErrorContains(t, err, "unsupported text encoding")

	_, err = Load(writeConfig(t, "export:\n  format: xml\n"))
	assert.ErrorContains(t, err, "invalid export format")

	_, err = Load(writeConfig(t, "backend: [\n"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open config file")
}
