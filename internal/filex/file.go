// Package filex holds the local file helpers of the REPL client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureSubdDir creates dirName under the working directory if needed and
// returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// NameFromReference turns a media reference such as users/2026/3/4/<uuid>
// into a file name. Path separators and dots-only names are not allowed.
func NameFromReference(reference string) string {
	reference = strings.TrimRight(strings.TrimSpace(reference), "/")
	if i := strings.LastIndexAny(reference, `/\`); i >= 0 {
		reference = reference[i+1:]
	}
	if reference == "" || strings.Trim(reference, ".") == "" {
		return "attachment"
	}
	return reference
}

// CreateUnique creates name in dir, adding a numeric suffix when a file of
// that name already exists.
func CreateUnique(dir, name string) (*os.File, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no free file name for %s in %s", name, dir)
}
