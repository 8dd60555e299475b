package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"haruki-sprite-action/utils"
	"haruki-sprite-action/utils/spritecodecs/act"

	"github.com/bytedance/sonic"
	"github.com/iancoleman/orderedmap"
	"github.com/shamaton/msgpack/v2"
)

// Summarize lists the headline facts of a decoded file in a stable key order.
func Summarize(file *act.ActionFile) *orderedmap.OrderedMap {
	stats := file.Stats()
	delays := make([]float32, 0, len(file.Actions))
	for _, a := range file.Actions {
		delays = append(delays, a.Delay)
	}

	om := orderedmap.New()
	om.SetEscapeHTML(false)
	om.Set("version", file.Version.String())
	om.Set("actions", stats.Actions)
	om.Set("animations", stats.Animations)
	om.Set("layers", stats.Layers)
	om.Set("attach_points", stats.Positions)
	om.Set("sounds", file.Sounds)
	om.Set("delays", delays)
	if err := file.Validate(); err != nil {
		om.Set("warnings", err.Error())
	}
	return om
}

// Encode renders a decoded file in the given export format.
func Encode(file *act.ActionFile, format utils.HarukiExportFormat, pretty bool) ([]byte, error) {
	switch format {
	case utils.HarukiExportFormatMsgpack:
		data, err := msgpack.Marshal(file)
		if err != nil {
			return nil, fmt.Errorf("failed to encode msgpack: %w", err)
		}
		return data, nil
	case utils.HarukiExportFormatSummary:
		return marshalJSON(Summarize(file), pretty)
	case utils.HarukiExportFormatJSON, "":
		return marshalJSON(file, pretty)
	default:
		return nil, fmt.Errorf("invalid export format: %s", format)
	}
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	var data []byte
	var err error
	if pretty {
		data, err = sonic.MarshalIndent(v, "", "  ")
	} else {
		data, err = sonic.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return data, nil
}

// ExportActionFile writes the encoded file to outPath, creating parent directories.
func ExportActionFile(file *act.ActionFile, outPath string, format utils.HarukiExportFormat, pretty bool) error {
	data, err := Encode(file, format, pretty)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// ExportPath maps an act name like "monster/poring" to its export file path.
func ExportPath(outputDir string, name string, format utils.HarukiExportFormat) string {
	return filepath.Join(outputDir, filepath.FromSlash(name)+format.Extension())
}
