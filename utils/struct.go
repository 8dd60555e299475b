package utils

import (
	"fmt"
	"strings"
)

type HarukiActUpdaterConfig struct {
	Enabled                bool              `yaml:"enabled"`
	ActListURL             string            `yaml:"act_list_url,omitempty"`
	ActURLTemplate         string            `yaml:"act_url_template"`
	ActNames               []string          `yaml:"act_names,omitempty"`
	IncludePatterns        []string          `yaml:"include_patterns,omitempty"`
	SkipPatterns           []string          `yaml:"skip_patterns,omitempty"`
	Headers                map[string]string `yaml:"headers,omitempty"`
	SaveDir                string            `yaml:"save_dir,omitempty"`
	ProcessedRecordFile    string            `yaml:"processed_record_file,omitempty"`
	KeepRawFiles           bool              `yaml:"keep_raw_files,omitempty"`
	UploadToCloud          bool              `yaml:"upload_to_cloud,omitempty"`
	RemoveLocalAfterUpload bool              `yaml:"remove_local_after_upload,omitempty"`
}

// ActURL expands the {name} placeholder of the configured URL template.
func (c HarukiActUpdaterConfig) ActURL(name string) (string, error) {
	if !strings.Contains(c.ActURLTemplate, "{name}") {
		return "", fmt.Errorf("act url template has no {name} placeholder: %s", c.ActURLTemplate)
	}
	return strings.ReplaceAll(c.ActURLTemplate, "{name}", name), nil
}

type HarukiExportFormat string

const (
	HarukiExportFormatJSON    HarukiExportFormat = "json"
	HarukiExportFormatMsgpack HarukiExportFormat = "msgpack"
	HarukiExportFormatSummary HarukiExportFormat = "summary"
)

func ParseExportFormat(s string) (HarukiExportFormat, error) {
	switch HarukiExportFormat(strings.ToLower(s)) {
	case HarukiExportFormatJSON,
		HarukiExportFormatMsgpack,
		HarukiExportFormatSummary:
		return HarukiExportFormat(strings.ToLower(s)), nil
	case "":
		return HarukiExportFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid export format: %s", s)
	}
}

func (f HarukiExportFormat) Extension() string {
	switch f {
	case HarukiExportFormatMsgpack:
		return ".msgpack"
	default:
		return ".json"
	}
}
