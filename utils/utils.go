package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

func GetTimeArg() string {
	timeFormat := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("?t=%s", timeFormat)
}

func FindFilesByExtension(dir string, ext string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ext) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ActName turns a path below root into the slash-separated name used in
// records and export paths, without the .act extension.
func ActName(root string, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(strings.ToLower(rel), ".act") {
		rel = rel[:len(rel)-len(".act")]
	}
	return rel, nil
}

// CheckActName rejects names that would resolve outside the directory they
// are joined onto: empty, absolute, or containing a ".." segment.
func CheckActName(name string) error {
	if name == "" {
		return fmt.Errorf("empty act name")
	}
	slashed := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(slashed) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("act name %q is absolute", name)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return fmt.Errorf("act name %q leaves the export directory", name)
		}
	}
	return nil
}
