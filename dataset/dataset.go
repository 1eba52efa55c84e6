// Package dataset stores clustering inputs and outputs on the local
// filesystem. A dataset is a directory of part-NNNNN files; files whose names
// start with "_" or "." are metadata and are never read as data.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/canopy/errors"
)

// Directory layout under a build output
const (
	CanopiesDir    = "canopies"
	AssignmentsDir = "assignments"
	TempDir        = "_tmp"
	ManifestFile   = "MANIFEST.toml"
)

// PartName returns the file name of partition i
func PartName(i int) string {
	return fmt.Sprintf("part-%05d", i)
}

// EnsureAbsent fails if path already exists
func EnsureAbsent(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return errors.WithHint(errors.Wrapf(errors.ErrOutputExists, "%s", path),
			"choose a new output path or remove the existing one")
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	return nil
}

// RequireDir fails unless path is an existing directory
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrClusterDirMissing, "%s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	if !info.IsDir() {
		return errors.Wrapf(errors.ErrClusterDirMissing, "%s is not a directory", path)
	}
	return nil
}

// RoundDir returns the temporary directory of a round under output
func RoundDir(output string, round int) string {
	return filepath.Join(output, TempDir, fmt.Sprintf("round-%d", round))
}

// Publish moves a finished temporary dataset to its final location
func Publish(from, to string) error {
	if err := EnsureAbsent(to); err != nil {
		return err
	}
	if err := os.Rename(from, to); err != nil {
		return errors.Wrapf(err, "failed to publish %s", to)
	}
	return nil
}

// Discard removes the temporary area of an output
func Discard(output string) error {
	if err := os.RemoveAll(filepath.Join(output, TempDir)); err != nil {
		return errors.Wrapf(err, "failed to remove temporary data under %s", output)
	}
	return nil
}

// dataFiles lists the data files of a dataset path in name order. A plain
// file is its own single data file.
func dataFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", path)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == ManifestFile {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)
	return files, nil
}

// partFiles lists only part-NNNNN files of a directory
func partFiles(dir string) ([]string, error) {
	files, err := dataFiles(dir)
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, f := range files {
		if strings.HasPrefix(filepath.Base(f), "part-") {
			parts = append(parts, f)
		}
	}
	return parts, nil
}
