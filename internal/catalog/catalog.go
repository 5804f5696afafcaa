// Package catalog reads and writes the release catalog file.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"linkenricher/internal/core"
)

const (
	filePerm   = 0o644
	jsonIndent = "  "
)

// ErrNotAnArray is returned when the catalog root is not a JSON array.
var ErrNotAnArray = errors.New("catalog must be a JSON array of releases")

// Load reads the release records stored at path.
func Load(path string) ([]*core.Release, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user supplied catalog
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotAnArray
	}

	var releases []*core.Release
	if err := json.Unmarshal(trimmed, &releases); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	for i, release := range releases {
		if release == nil {
			return nil, fmt.Errorf("decoding catalog: record %d is null", i)
		}
	}

	return releases, nil
}

// Save writes releases to path, replacing the file atomically.
func Save(path string, releases []*core.Release) error {
	if releases == nil {
		releases = []*core.Release{}
	}

	data, err := json.MarshalIndent(releases, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	data = append(data, '\n')

	if err := WriteFileAtomic(path, data, filePerm); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
