package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jizhang-dev/jizhang/internal/model"
)

// JSON is the native export format: a pretty-printed array of records.
type JSON struct{}

type jsonRecord struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
	Note     string      `json:"note"`
}

// Format returns the codec name.
func (JSON) Format() string { return "json" }

// Extension returns the file extension.
func (JSON) Extension() string { return "json" }

// Encode writes txns as an indented JSON array followed by a newline.
func (JSON) Encode(w io.Writer, txns []model.Transaction) error {
	data, err := MarshalJSON(txns)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}

// Decode reads a JSON array of objects.
func (JSON) Decode(r io.Reader) ([]model.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed(fmt.Errorf("reading input: %w", err))
	}
	return UnmarshalJSON(data)
}

// MarshalJSON serializes txns with every field, ids included.
func MarshalJSON(txns []model.Transaction) ([]byte, error) {
	records := make([]jsonRecord, 0, len(txns))
	for _, t := range txns {
		records = append(records, jsonRecord{
			ID:       t.ID,
			Type:     string(t.Type),
			Amount:   json.Number(t.Amount.String()),
			Category: t.Category,
			Date:     t.DateString(),
			Note:     t.Note,
		})
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling transactions: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalJSON parses data into raw records. It fails with KindMalformed when
// data is not a single JSON value and KindShape when the value is not an
// array of objects.
func UnmarshalJSON(data []byte) ([]model.RawRecord, error) {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed(errors.New("empty input"))
		}
		return nil, malformed(err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, malformed(errors.New("unexpected data after top-level value"))
	}

	items, ok := v.([]any)
	if !ok {
		return nil, shape("top-level value is %s, want array", jsonKind(v))
	}

	records := make([]model.RawRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, shape("element %d is %s, want object", i, jsonKind(item))
		}
		records = append(records, model.RawRecord(obj))
	}
	return records, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
