package codec

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/jizhang-dev/jizhang/internal/model"
)

// Codec converts a whole ledger to and from a portable byte format.
type Codec interface {
	// Format is the registry name, e.g. "json".
	Format() string
	// Extension is the file extension without the dot.
	Extension() string
	Encode(w io.Writer, txns []model.Transaction) error
	// Decode returns loosely-typed records or an *ImportError.
	Decode(r io.Reader) ([]model.RawRecord, error)
}

// Registry holds named codecs.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register adds a codec. Panics on duplicate format.
func (r *Registry) Register(c Codec) {
	key := strings.ToLower(c.Format())
	if _, ok := r.codecs[key]; ok {
		panic("duplicate codec format: " + key)
	}
	r.codecs[key] = c
}

// Get returns the codec for format, or nil.
func (r *Registry) Get(format string) Codec {
	return r.codecs[strings.ToLower(format)]
}

// Lookup is Get with an error for unknown formats.
func (r *Registry) Lookup(format string) (Codec, error) {
	c := r.Get(format)
	if c == nil {
		return nil, fmt.Errorf("unknown format %q (known: %s)", format, strings.Join(r.Formats(), ", "))
	}
	return c, nil
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry returns a registry with all built-in codecs.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(JSON{})
	r.Register(CSV{})
	return r
}

// Filename returns an export file name like "jizhang-2024-03-15.json".
func Filename(prefix string, date time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, date.Format(model.DateFormat), strings.TrimPrefix(ext, "."))
}

const utf8BOM = "\ufeff"
