package codec

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-dev/jizhang/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleLedger() []model.Transaction {
	return []model.Transaction{
		{ID: "txn-001", Type: model.TypeIncome, Amount: dec("1000"), Category: "salary", Date: date(2024, 3, 1), Note: "March pay"},
		{ID: "txn-002", Type: model.TypeExpense, Amount: dec("200.50"), Category: "food", Date: date(2024, 3, 5)},
	}
}

func TestJSONExport_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{}.Encode(&buf, sampleLedger()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_basic", buf.Bytes())
}

func TestJSONExport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{}.Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONRoundTrip(t *testing.T) {
	want := sampleLedger()

	var buf bytes.Buffer
	require.NoError(t, JSON{}.Encode(&buf, want))

	raws, err := JSON{}.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, raws, len(want))

	n := model.NewNormalizer()
	for i, raw := range raws {
		got, err := n.Normalize(raw, model.Lenient)
		require.NoError(t, err)
		assert.Equal(t, want[i].ID, got.ID)
		assert.Equal(t, want[i].Type, got.Type)
		assert.True(t, want[i].Amount.Equal(got.Amount), "amount %s vs %s", want[i].Amount, got.Amount)
		assert.Equal(t, want[i].Category, got.Category)
		assert.True(t, want[i].Date.Equal(got.Date))
		assert.Equal(t, want[i].Note, got.Note)
	}
}

func TestJSONDecode_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		"[{\"amount\": 1}",
		"[] []",
		"{\"amount\": ",
	}
	for _, in := range inputs {
		_, err := JSON{}.Decode(strings.NewReader(in))
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
		assert.NotErrorIs(t, err, ErrShape)

		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, KindMalformed, ie.Kind)
	}
}

func TestJSONDecode_Shape(t *testing.T) {
	inputs := []string{
		`{"id": "x", "amount": 1}`,
		`"hello"`,
		`42`,
		`null`,
		`[1, 2, 3]`,
		`[{"amount": 1}, null]`,
		`[[]]`,
	}
	for _, in := range inputs {
		_, err := JSON{}.Decode(strings.NewReader(in))
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, ErrShape, "input %q", in)
	}
}

func TestJSONDecode_EmptyList(t *testing.T) {
	raws, err := JSON{}.Decode(strings.NewReader("  []  \n"))
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestJSONDecode_BOM(t *testing.T) {
	raws, err := JSON{}.Decode(strings.NewReader("\ufeff[{\"amount\": 3}]"))
	require.NoError(t, err)
	require.Len(t, raws, 1)
}

func TestJSONDecode_KeepsNumberPrecision(t *testing.T) {
	raws, err := JSON{}.Decode(strings.NewReader(`[{"amount": 0.1}, {"amount": 12345678901234567.89}]`))
	require.NoError(t, err)

	n := model.NewNormalizer()
	a, err := n.Normalize(raws[0], model.Lenient)
	require.NoError(t, err)
	assert.Equal(t, "0.1", a.Amount.String())

	b, err := n.Normalize(raws[1], model.Lenient)
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567.89", b.Amount.String())
}

func TestJSONDecode_LegacyFile(t *testing.T) {
	f, err := os.Open("testdata/legacy_export.json")
	require.NoError(t, err)
	defer f.Close()

	raws, err := JSON{}.Decode(f)
	require.NoError(t, err)
	require.Len(t, raws, 3)

	n := model.NewNormalizer()
	var txns []model.Transaction
	for _, raw := range raws {
		txn, err := n.Normalize(raw, model.Lenient)
		require.NoError(t, err)
		txns = append(txns, txn)
	}

	assert.Equal(t, "工资", txns[0].Category)
	assert.True(t, txns[1].Amount.Equal(dec("38.5")))

	// Third row is repaired rather than rejected.
	assert.True(t, txns[2].Amount.IsZero())
	assert.Equal(t, model.TypeExpense, txns[2].Type)
	assert.Equal(t, model.Uncategorized, txns[2].Category)
	assert.NotEmpty(t, txns[2].ID)
	assert.Empty(t, txns[2].Note)
}

func TestCSVRoundTrip(t *testing.T) {
	want := sampleLedger()

	var buf bytes.Buffer
	require.NoError(t, CSV{}.Encode(&buf, want))
	assert.True(t, strings.HasPrefix(buf.String(), CSVHeader+"\n"))

	raws, err := CSV{}.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	n := model.NewNormalizer()
	for i, raw := range raws {
		got, err := n.Normalize(raw, model.Lenient)
		require.NoError(t, err)
		assert.Equal(t, want[i].ID, got.ID)
		assert.Equal(t, want[i].Type, got.Type)
		assert.True(t, want[i].Amount.Equal(got.Amount))
		assert.Equal(t, want[i].Category, got.Category)
		assert.True(t, want[i].Date.Equal(got.Date))
		assert.Equal(t, want[i].Note, got.Note)
	}
}

func TestCSVDecode_ReorderedColumns(t *testing.T) {
	f, err := os.Open("testdata/bank.csv")
	require.NoError(t, err)
	defer f.Close()

	raws, err := CSV{}.Decode(f)
	require.NoError(t, err)
	require.Len(t, raws, 3)

	assert.Equal(t, "12.50", raws[0][model.FieldAmount])
	assert.Equal(t, "Food", raws[0][model.FieldCategory])
	assert.Equal(t, "card 1234", raws[0]["memo"])
	assert.Equal(t, "income", raws[1][model.FieldType])

	txn, err := model.NewNormalizer().Normalize(raws[2], model.Lenient)
	require.NoError(t, err)
	assert.True(t, txn.Amount.IsZero(), "blank amount coerces to zero")
}

func TestCSVDecode_Errors(t *testing.T) {
	_, err := CSV{}.Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrShape)

	_, err = CSV{}.Decode(strings.NewReader("id,category\n1,food\n"))
	assert.ErrorIs(t, err, ErrShape)

	_, err = CSV{}.Decode(strings.NewReader("amount,category\n1,food,extra\n"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = CSV{}.Decode(strings.NewReader("amount,note\n1,\"unterminated\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCSVDecode_BOMHeader(t *testing.T) {
	raws, err := CSV{}.Decode(strings.NewReader("\ufeffAmount,Category\n5,tea\n"))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "5", raws[0][model.FieldAmount])
	assert.Equal(t, "tea", raws[0][model.FieldCategory])
}

func TestMarshalRow(t *testing.T) {
	row := MarshalRow(sampleLedger()[1])
	assert.Equal(t, []string{"txn-002", "expense", "200.5", "food", "2024-03-05", ""}, row)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"csv", "json"}, r.Formats())
	assert.NotNil(t, r.Get("JSON"))
	assert.Nil(t, r.Get("xml"))

	_, err := r.Lookup("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, json")

	assert.Panics(t, func() { r.Register(JSON{}) })
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "jizhang-2024-03-15.json", Filename("jizhang", date(2024, 3, 15), "json"))
	assert.Equal(t, "ledger-2025-12-01.csv", Filename("ledger", date(2025, 12, 1), ".csv"))
}

func TestImportErrorMessage(t *testing.T) {
	err := &ImportError{Kind: KindShape}
	assert.Equal(t, "import failed (shape)", err.Error())

	err = &ImportError{Kind: KindMalformed, Err: errors.New("boom")}
	assert.Equal(t, "import failed (malformed): boom", err.Error())
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}
