package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jizhang-dev/jizhang/internal/model"
)

// CSVHeader is the header row written by the CSV codec.
const CSVHeader = "id,type,amount,category,date,note"

const (
	csvNumFields   = 6
	csvColID       = 0
	csvColType     = 1
	csvColAmount   = 2
	csvColCategory = 3
	csvColDate     = 4
	csvColNote     = 5
)

// CSV is a spreadsheet-friendly format with one row per transaction.
type CSV struct{}

// Format returns the codec name.
func (CSV) Format() string { return "csv" }

// Extension returns the file extension.
func (CSV) Extension() string { return "csv" }

// Encode writes the header row and one row per transaction.
func (CSV) Encode(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(CSVHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		if err := cw.Write(MarshalRow(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads rows keyed by the header. Columns are matched by name, so
// files with reordered or extra columns still load; unknown columns are kept
// in the raw record and ignored by normalization.
func (CSV) Decode(r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, malformed(fmt.Errorf("reading csv: %w", err))
	}
	if len(rows) == 0 {
		return nil, shape("missing header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if !slices.Contains(header, model.FieldAmount) {
		return nil, shape("header %q has no %s column", strings.Join(rows[0], ","), model.FieldAmount)
	}

	records := make([]model.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(model.RawRecord, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// MarshalRow converts a Transaction to a CSV row.
func MarshalRow(t model.Transaction) []string {
	row := make([]string, csvNumFields)
	row[csvColID] = t.ID
	row[csvColType] = string(t.Type)
	row[csvColAmount] = t.Amount.String()
	row[csvColCategory] = t.Category
	row[csvColDate] = t.DateString()
	row[csvColNote] = t.Note
	return row
}
