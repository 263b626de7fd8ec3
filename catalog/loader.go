package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
)

// DefaultPaths are the candidate locations of the static catalog file, in order.
var DefaultPaths = []string{
	"data/local_resources.json",
	"local_resources.json",
}

// LoadReport summarizes one catalog load.
type LoadReport struct {
	Source             string // path or "repository"; empty when nothing was found
	Missing            bool   // no candidate path existed
	Sanitized          bool   // strict parsing failed and the sanitized text was used
	Total              int
	Loaded             int
	SkippedMissingName int
	SkippedInvalid     int // entries that were not objects
	Duplicates         int
}

// Sanitize removes whole-line // and # comments and trailing commas before
// a closing bracket or brace. String contents are left untouched.
func Sanitize(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	kept := make([][]byte, 0, len(lines))
	for _, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("//")) || bytes.HasPrefix(trimmed, []byte("#")) {
			continue
		}
		kept = append(kept, line)
	}
	text := bytes.Join(kept, []byte("\n"))

	out := make([]byte, 0, len(text))
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case ',':
			if next := nextSignificant(text, i+1); next == ']' || next == '}' {
				continue
			}
		}
		out = append(out, ch)
	}
	return out
}

func nextSignificant(text []byte, from int) byte {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return text[j]
		}
	}
	return 0
}

func parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode parses catalog text into resources.
//
// Strict JSON is tried first; on failure the text is sanitized and parsed again.
// The document is either an array of records or an object holding the array
// under "resources" or "items".
func Decode(data []byte) ([]*core.Resource, *LoadReport, error) {
	report := &LoadReport{}

	doc, err := parse(data)
	if err != nil {
		doc, err = parse(Sanitize(data))
		if err != nil {
			return nil, report, fmt.Errorf("%w: %w", ErrMalformedCatalog, err)
		}
		report.Sanitized = true
	}

	var entries []any
	switch d := doc.(type) {
	case []any:
		entries = d
	case map[string]any:
		list, ok := d["resources"].([]any)
		if !ok {
			list, ok = d["items"].([]any)
		}
		if !ok {
			return nil, report, fmt.Errorf("%w: object has no resources array", ErrMalformedCatalog)
		}
		entries = list
	default:
		return nil, report, fmt.Errorf("%w: top level must be an array or object", ErrMalformedCatalog)
	}

	report.Total = len(entries)
	resources := make([]*core.Resource, 0, len(entries))
	for _, entry := range entries {
		record, ok := entry.(map[string]any)
		if !ok {
			report.SkippedInvalid++
			continue
		}
		r, err := core.ResourceFromRecord(record)
		if err != nil {
			report.SkippedMissingName++
			continue
		}
		resources = append(resources, r)
	}

	resources, stats := dedupe(resources)
	report.Duplicates = stats.Duplicates
	report.Loaded = len(resources)
	return resources, report, nil
}

// LoadFile reads and decodes one catalog file.
func LoadFile(path string) ([]*core.Resource, *LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadReport{Source: path}, err
	}
	resources, report, err := Decode(data)
	report.Source = path
	return resources, report, err
}

// LoadFirst loads the first candidate path that exists.
//
// When no candidate exists the result is an empty catalog and a warning, not an
// error. A file that exists but cannot be parsed is an error.
func LoadFirst(logger *slog.Logger, paths ...string) ([]*core.Resource, *LoadReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(paths) == 0 {
		paths = DefaultPaths
	}

	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Debug("catalog candidate not found", "path", path)
			continue
		}

		resources, report, err := LoadFile(path)
		if err != nil {
			logger.Error("failed to load catalog", "path", path, "err", err)
			return nil, report, err
		}
		if report.SkippedMissingName > 0 || report.SkippedInvalid > 0 {
			logger.Warn("skipped malformed catalog entries",
				"path", path,
				"missingServiceName", report.SkippedMissingName,
				"invalid", report.SkippedInvalid)
		}
		logger.Info("catalog loaded", "path", path, "resources", report.Loaded, "sanitized", report.Sanitized)
		return resources, report, nil
	}

	logger.Warn("no catalog file found; starting with an empty catalog", "candidates", paths)
	return []*core.Resource{}, &LoadReport{Missing: true}, nil
}

// LoadRepository reads every resource from a document store.
func LoadRepository(ctx context.Context, repo storage.ResourceRepository) ([]*core.Resource, *LoadReport, error) {
	report := &LoadReport{Source: "repository"}
	var resources []*core.Resource
	for r, err := range repo.StreamResources(ctx) {
		if err != nil {
			return nil, report, err
		}
		report.Total++
		resources = append(resources, r)
	}

	resources, stats := dedupe(resources)
	report.SkippedMissingName = stats.SkippedInvalid
	report.Duplicates = stats.Duplicates
	report.Loaded = len(resources)
	return resources, report, nil
}
