package config

import (
	"fmt"
	"os"

	"haruki-sprite-action/utils"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "haruki-act-configs.yaml"

type BackendConfig struct {
	Host                     string `yaml:"host" env:"HOST"`
	Port                     int    `yaml:"port" env:"PORT"`
	SSL                      bool   `yaml:"ssl" env:"SSL"`
	SSLCert                  string `yaml:"ssl_cert" env:"SSL_CERT"`
	SSLKey                   string `yaml:"ssl_key" env:"SSL_KEY"`
	LogLevel                 string `yaml:"log_level" env:"LOG_LEVEL"`
	MainLogFile              string `yaml:"main_log_file" env:"MAIN_LOG_FILE"`
	AccessLog                string `yaml:"access_log" env:"ACCESS_LOG"`
	AccessLogPath            string `yaml:"access_log_path" env:"ACCESS_LOG_PATH"`
	EnableAuthorization      bool   `yaml:"enable_authorization,omitempty" env:"ENABLE_AUTHORIZATION"`
	AcceptUserAgentPrefix    string `yaml:"accept_user_agent_prefix,omitempty" env:"ACCEPT_USER_AGENT_PREFIX"`
	AcceptAuthorizationToken string `yaml:"accept_authorization_token,omitempty" env:"ACCEPT_AUTHORIZATION_TOKEN"`
}

type DecoderConfig struct {
	TextEncoding string `yaml:"text_encoding,omitempty" env:"TEXT_ENCODING"`
	MaxFileSize  int    `yaml:"max_file_size,omitempty" env:"MAX_FILE_SIZE"`
}

type ExportConfig struct {
	Format    string `yaml:"format,omitempty" env:"FORMAT"`
	OutputDir string `yaml:"output_dir,omitempty" env:"OUTPUT_DIR"`
	Pretty    bool   `yaml:"pretty,omitempty" env:"PRETTY"`
}

type ConcurrentsConfig struct {
	ConcurrentDownload int `yaml:"concurrent_download,omitempty" env:"CONCURRENT_DOWNLOAD"`
	ConcurrentUpload   int `yaml:"concurrent_upload,omitempty" env:"CONCURRENT_UPLOAD"`
}

type RemoteStorageConfig struct {
	Type    string   `yaml:"type"`
	Base    string   `yaml:"base"`
	Program string   `yaml:"program,omitempty"`
	Args    []string `yaml:"args,omitempty"`

	// s3
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

type Config struct {
	Proxy          string                                  `yaml:"proxy,omitempty" env:"PROXY"`
	Backend        BackendConfig                           `yaml:"backend,omitempty" envPrefix:"BACKEND_"`
	Decoder        DecoderConfig                           `yaml:"decoder,omitempty" envPrefix:"DECODER_"`
	Export         ExportConfig                            `yaml:"export,omitempty" envPrefix:"EXPORT_"`
	Concurrents    ConcurrentsConfig                       `yaml:"concurrents,omitempty" envPrefix:"CONCURRENTS_"`
	Servers        map[string]utils.HarukiActUpdaterConfig `yaml:"servers,omitempty"`
	RemoteStorages []RemoteStorageConfig                   `yaml:"remote_storages,omitempty"`
}

var Version = "v1.0.0-dev"
var Cfg = Default()

func Default() Config {
	return Config{
		Backend: BackendConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			LogLevel: "INFO",
		},
		Decoder: DecoderConfig{
			TextEncoding: "windows-1252",
			MaxFileSize:  16 * 1024 * 1024,
		},
		Export: ExportConfig{
			Format:    "json",
			OutputDir: "exported",
		},
		Concurrents: ConcurrentsConfig{
			ConcurrentDownload: 4,
			ConcurrentUpload:   4,
		},
	}
}

// Load reads the YAML config at path over the defaults, then applies
// HARUKI_-prefixed environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "HARUKI_"}); err != nil {
		return cfg, fmt.Errorf("failed to parse env overrides: %w", err)
	}
	if _, err := utils.LookupTextEncoding(cfg.Decoder.TextEncoding); err != nil {
		return cfg, fmt.Errorf("invalid decoder config: %w", err)
	}
	if _, err := utils.ParseExportFormat(cfg.Export.Format); err != nil {
		return cfg, err
	}
	return cfg, nil
}
