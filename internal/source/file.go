package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/setevik/remindctx/internal/event"
)

// FileSource reads raw events from a JSON or YAML file. The document is
// either a list of records or an object with an "items" list, which is the
// shape of a Google Calendar events.list response.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Name() string { return "file:" + f.Path }

// Fetch returns every record in the file regardless of the range.
func (f *FileSource) Fetch(_ context.Context, _, _ time.Time) ([]event.RawEvent, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".json":
		return decodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported event file extension %q", filepath.Ext(f.Path))
	}
}

func decodeJSON(data []byte) ([]event.RawEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var raws []event.RawEvent
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decoding event list: %w", err)
		}
		return raws, nil
	}

	var doc struct {
		Items []event.RawEvent `json:"items"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding event document: %w", err)
	}
	return doc.Items, nil
}

type yamlTime struct {
	DateTime    string `yaml:"dateTime"`
	DateTimeAlt string `yaml:"date_time"`
	Date        string `yaml:"date"`
}

func (t yamlTime) timeSpec() event.TimeSpec {
	dt := t.DateTime
	if dt == "" {
		dt = t.DateTimeAlt
	}
	return event.TimeSpec{DateTime: dt, Date: t.Date}
}

type yamlRecord struct {
	ID          string   `yaml:"id"`
	Summary     string   `yaml:"summary"`
	Start       yamlTime `yaml:"start"`
	End         yamlTime `yaml:"end"`
	Description string   `yaml:"description"`
	Location    string   `yaml:"location"`
}

func (r yamlRecord) raw() event.RawEvent {
	return event.RawEvent{
		ID:          r.ID,
		Summary:     r.Summary,
		Start:       r.Start.timeSpec(),
		End:         r.End.timeSpec(),
		Description: r.Description,
		Location:    r.Location,
	}
}

func decodeYAML(data []byte) ([]event.RawEvent, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	var records []yamlRecord
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding event list: %w", err)
		}
	case yaml.MappingNode:
		var env struct {
			Items []yamlRecord `yaml:"items"`
		}
		if err := doc.Decode(&env); err != nil {
			return nil, fmt.Errorf("decoding event document: %w", err)
		}
		records = env.Items
	default:
		return nil, fmt.Errorf("unexpected yaml document at line %d", doc.Line)
	}

	raws := make([]event.RawEvent, 0, len(records))
	for _, r := range records {
		raws = append(raws, r.raw())
	}
	return raws, nil
}
