package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"haruki-sprite-action/config"
	"haruki-sprite-action/utils"
	cloud "haruki-sprite-action/utils/cloud"
	"haruki-sprite-action/utils/exporter"
	harukiLogger "haruki-sprite-action/utils/logger"
)

var logger = harukiLogger.NewLogger("HarukiActExporter", "INFO", nil)

func SetLogLevel(level string) {
	logger.SetLevel(level)
}

// processAct decodes one downloaded file and writes its export, returning the
// export path.
func (u *HarukiActUpdater) processAct(name string, data []byte) (string, error) {
	if err := utils.CheckActName(name); err != nil {
		return "", err
	}
	if u.serverConfig.KeepRawFiles && u.serverConfig.SaveDir != "" {
		rawPath := filepath.Join(u.serverConfig.SaveDir, filepath.FromSlash(name)+".act")
		if err := os.MkdirAll(filepath.Dir(rawPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create raw directory: %w", err)
		}
		if err := os.WriteFile(rawPath, data, 0644); err != nil {
			return "", fmt.Errorf("failed to save raw file %s: %w", rawPath, err)
		}
	}

	file, err := u.decoder.Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if err := file.Validate(); err != nil {
		logger.Warnf("%s: %v", name, err)
	}

	outPath := exporter.ExportPath(u.exportConfig.OutputDir, name, u.exportFormat)
	if rel, err := filepath.Rel(u.exportConfig.OutputDir, outPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("export path %s is outside %s", outPath, u.exportConfig.OutputDir)
	}
	logger.Infof("Exporting %s (version %s, %d actions) to %s", name, file.Version, len(file.Actions), outPath)
	if err := exporter.ExportActionFile(file, outPath, u.exportFormat, u.exportConfig.Pretty); err != nil {
		return "", err
	}
	return outPath, nil
}

func uploadExports(ctx context.Context, storages []config.RemoteStorageConfig, exported []string, outputDir string, concurrency int, removeLocal bool) error {
	logger.Infof("Found %d files to upload from %s", len(exported), outputDir)
	if err := cloud.UploadToAllStorages(ctx, storages, exported, outputDir, concurrency, removeLocal); err != nil {
		return fmt.Errorf("failed to upload files from %s: %w", outputDir, err)
	}
	return nil
}

// ExportDirectory decodes every .act file below dir and exports it next to
// the others in outputDir, keeping the relative layout. Used by the CLI.
func ExportDirectory(dir string, cfg config.Config) ([]string, error) {
	u, err := NewHarukiActUpdater(context.Background(), "", config.Config{
		Decoder:     cfg.Decoder,
		Export:      cfg.Export,
		Concurrents: cfg.Concurrents,
		Servers:     map[string]utils.HarukiActUpdaterConfig{"": {}},
	}, nil)
	if err != nil {
		return nil, err
	}
	files, err := utils.FindFilesByExtension(dir, ".act")
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}
	var exported []string
	var failed int
	for _, path := range files {
		name, err := utils.ActName(dir, path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out, err := u.processAct(name, data)
		if err != nil {
			logger.Warnf("Failed to export %s: %v", path, err)
			failed++
			continue
		}
		exported = append(exported, out)
	}
	if failed > 0 {
		return exported, fmt.Errorf("failed to export %d of %d act files", failed, len(files))
	}
	return exported, nil
}
