package batch

import (
	"fmt"
	"io"

	gjson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/bamsammich/clonefile"
)

// Manifest entry keys.
const (
	keySource      = "source"
	keyDestination = "destination"
	keyOptions     = "options"
)

// Job is one clone request from a manifest.
type Job struct {
	ID          uuid.UUID
	Source      string
	Destination string
	Options     clonefile.Options
}

// ParseManifest reads a JSON array of clone requests:
//
//	[{"source": "a", "destination": "b", "options": {"noFollow": true}}]
//
// Entries are decoded as untyped values and converted with the same rules
// as clonefile.Invoke, so a wrong type fails with a *clonefile.ConversionError.
// An entry without "options" uses defaults; an explicit options object,
// even an empty one, replaces them.
func ParseManifest(r io.Reader, defaults clonefile.Options) ([]Job, error) {
	var raw []any
	if err := gjson.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	jobs := make([]Job, 0, len(raw))
	for i, entry := range raw {
		job, err := parseEntry(entry, defaults)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func parseEntry(entry any, defaults clonefile.Options) (Job, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return Job{}, &clonefile.ConversionError{Expected: "object", Value: entry}
	}

	src, err := clonefile.ConvertPath(m[keySource])
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", keySource, err)
	}
	dst, err := clonefile.ConvertPath(m[keyDestination])
	if err != nil {
		return Job{}, fmt.Errorf("%s: %w", keyDestination, err)
	}

	opts := defaults
	if rawOpts, ok := m[keyOptions]; ok {
		opts, err = clonefile.ConvertOptions(rawOpts)
		if err != nil {
			return Job{}, fmt.Errorf("%s: %w", keyOptions, err)
		}
	}

	return Job{ID: uuid.New(), Source: src, Destination: dst, Options: opts}, nil
}
