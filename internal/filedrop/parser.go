package filedrop

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/floorcraft/floorplan-backend/internal/pipeline"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

const maxFileSize = 32 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMalformedFile     = errors.New("malformed file")
)

// Document is a parsed batch file.
type Document struct {
	LegacySystemID string   `json:"legacy_system_id"`
	DataType       string   `json:"data_type"`
	Records        []Record `json:"records"`
}

// Record is one line of a batch. Action selects the event kind and defaults
// to create.
type Record struct {
	Action string `json:"action,omitempty"`
	pipeline.Mutation
}

// Kind maps the action column to an event kind. Both short ("update") and
// full ("customization.update") spellings are accepted.
func (r Record) Kind() (queue.Kind, error) {
	a := strings.ToLower(strings.TrimSpace(r.Action))
	switch a {
	case "", "create", "insert":
		return queue.KindCreate, nil
	case "update":
		return queue.KindUpdate, nil
	case "delete":
		return queue.KindDelete, nil
	}
	if k := queue.Kind(a); k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown action %q", r.Action)
}

// Supported reports whether the key has an extension Parse understands.
func Supported(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv", ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Parse reads a batch file, choosing the format from the key's extension.
func Parse(key string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrMalformedFile, key, maxFileSize)
	}

	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return parseCSV(data)
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, key)
}

func parseJSON(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Document{}, nil
	}

	if trimmed[0] == '[' {
		var recs []Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		return &Document{Records: recs}, nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return &doc, nil
}

// parseYAML decodes into generic values and re-encodes as JSON so both
// formats share one record shape.
func parseYAML(data []byte) (*Document, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if v == nil {
		return &Document{}, nil
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return parseJSON(js)
}

var csvColumns = map[string]bool{
	"action": true, "customization_id": true, "floor_plan_id": true, "component_type": true,
	"properties": true, "position_x": true, "position_y": true,
}

func parseCSV(data []byte) (*Document, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if !csvColumns[name] {
			return nil, fmt.Errorf("%w: unknown column %q", ErrMalformedFile, h)
		}
		cols[name] = i
	}
	if _, ok := cols["floor_plan_id"]; !ok {
		if _, ok := cols["customization_id"]; !ok {
			return nil, fmt.Errorf("%w: header needs floor_plan_id or customization_id", ErrMalformedFile)
		}
	}

	doc := &Document{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedFile, line, err)
		}
		rec, err := csvRecord(cols, row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedFile, line, err)
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}

func csvRecord(cols map[string]int, row []string) (Record, error) {
	get := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	var rec Record
	rec.Action, _ = get("action")

	if v, ok := get("customization_id"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return rec, fmt.Errorf("customization_id %q: %w", v, err)
		}
		rec.CustomizationID = id
	}
	if v, ok := get("floor_plan_id"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return rec, fmt.Errorf("floor_plan_id %q: %w", v, err)
		}
		rec.FloorPlanID = id
	}
	if v, ok := get("component_type"); ok {
		rec.ComponentType = &v
	}
	if v, ok := get("properties"); ok {
		rec.Properties = json.RawMessage(v)
	}
	for name, dst := range map[string]**float64{"position_x": &rec.PositionX, "position_y": &rec.PositionY} {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return rec, fmt.Errorf("%s %q: %w", name, v, err)
			}
			*dst = &f
		}
	}
	return rec, nil
}

// LegacySystemID resolves the source system: the document header wins, then
// the first directory under the incoming prefix, then "unknown".
func LegacySystemID(doc *Document, key, incomingPrefix string) string {
	if doc != nil {
		if id := strings.TrimSpace(doc.LegacySystemID); id != "" {
			return id
		}
	}
	rel := strings.TrimPrefix(key, incomingPrefix)
	if i := strings.Index(rel, "/"); i > 0 {
		return rel[:i]
	}
	return "unknown"
}
