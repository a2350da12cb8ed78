package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StdinPath stands for standard input wherever a source path is accepted.
const StdinPath = "-"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	if relPath == StdinPath {
		wd, err := os.Getwd()
		return "<stdin>", wd, err
	}
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	parentDir = filepath.Dir(fullPath)
	return fullPath, parentDir, nil
}

// ReadSource reads the file at path, or all of stdin when path is "-".
func ReadSource(path string, stdin io.Reader) ([]byte, error) {
	if path == StdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(path)
}

// WriteFile writes data next to path under a temporary name and renames
// it into place, so a failed write never leaves a truncated file behind.
func WriteFile(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ReplaceExt swaps the extension of path for ext, which includes the dot.
// A path without an extension gets ext appended.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
