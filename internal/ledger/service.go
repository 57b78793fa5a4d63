package ledger

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jizhang-dev/jizhang/internal/activity"
	"github.com/jizhang-dev/jizhang/internal/codec"
	"github.com/jizhang-dev/jizhang/internal/log"
	"github.com/jizhang-dev/jizhang/internal/model"
	"github.com/jizhang-dev/jizhang/internal/query"
	"github.com/jizhang-dev/jizhang/internal/store"
)

// Store loads and saves the whole ledger. *store.Adapter implements it.
type Store interface {
	Load(ctx context.Context) store.LoadResult
	Save(ctx context.Context, txns []model.Transaction) error
}

// Option configures a Service.
type Option func(*Service)

// WithNormalizer sets the normalizer used for ids, dates and defaults.
func WithNormalizer(n *model.Normalizer) Option {
	return func(s *Service) { s.norm = n }
}

// WithRegistry sets the codecs available to Import and Export.
func WithRegistry(r *codec.Registry) Option {
	return func(s *Service) { s.codecs = r }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecorder sets where successful mutations are recorded.
func WithRecorder(r activity.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service is the single gateway for reading and mutating the ledger.
// It is safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	store     Store
	txns      *set
	malformed bool

	norm     *model.Normalizer
	codecs   *codec.Registry
	logger   *log.Logger
	recorder activity.Recorder
}

// NewService creates a Service hydrated from st.
func NewService(ctx context.Context, st Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		norm:     model.NewNormalizer(),
		codecs:   codec.DefaultRegistry(),
		logger:   log.Nop(),
		recorder: activity.Discard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("ledger")
	s.hydrate(ctx)
	return s
}

func (s *Service) hydrate(ctx context.Context) {
	res := s.store.Load(ctx)
	s.malformed = res.Malformed

	txns := make([]model.Transaction, 0, len(res.Records))
	for i, raw := range res.Records {
		t, err := s.norm.Normalize(raw, model.Lenient)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping stored record", "index", i, "error", err)
			continue
		}
		txns = append(txns, t)
	}

	var reassigned int
	s.txns, reassigned = newSet(txns, s.newID)
	if reassigned > 0 {
		s.logger.WarnContext(ctx, "reassigned duplicate ids in stored ledger", "count", reassigned)
	}
	s.logger.DebugContext(ctx, "hydrated ledger", "transactions", s.txns.len(), "malformed", s.malformed)
}

// Malformed reports whether stored data was discarded at startup because it
// could not be parsed.
func (s *Service) Malformed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.malformed
}

// Add validates raw, appends it and persists. An invalid record returns a
// model.ValidationError and leaves the ledger unchanged. An id already in the
// ledger is replaced with a fresh one.
func (s *Service) Add(ctx context.Context, raw model.RawRecord) (model.Transaction, error) {
	txn, err := s.norm.Normalize(raw, model.Strict)
	if err != nil {
		return model.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.txns.clone()
	if next.has(txn.ID) {
		txn.ID = next.freshID(s.newID)
	}
	next.add(txn)
	if err := s.commit(ctx, next); err != nil {
		return model.Transaction{}, fmt.Errorf("adding transaction: %w", err)
	}

	s.record(ctx, activity.Entry{
		Action:        activity.ActionAdd,
		TransactionID: txn.ID,
		Count:         next.len(),
		Details:       fmt.Sprintf("%s %s %s", txn.Type, txn.Amount.StringFixed(2), txn.Category),
	})
	return txn, nil
}

// Remove deletes the transaction with the given id. Removing an unknown id is
// a no-op that reports false and does not touch storage.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.txns.has(id) {
		return false, nil
	}
	next := s.txns.clone()
	next.remove(id)
	if err := s.commit(ctx, next); err != nil {
		return false, fmt.Errorf("removing transaction %s: %w", id, err)
	}

	s.record(ctx, activity.Entry{Action: activity.ActionRemove, TransactionID: id, Count: next.len()})
	return true, nil
}

// ReplaceAll swaps the whole ledger for txns in one step. Duplicate ids get
// fresh ones. It returns the number of ids reassigned.
func (s *Service) ReplaceAll(ctx context.Context, txns []model.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, txns, activity.ActionReplace, "")
}

// Clear empties the ledger.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.replace(ctx, nil, activity.ActionClear, "")
	return err
}

// ImportResult summarizes a successful import.
type ImportResult struct {
	Count      int // transactions now in the ledger
	Reassigned int // duplicate ids replaced with fresh ones
}

// Import decodes r in the given format and replaces the ledger with its
// records. Decoding errors are *codec.ImportError and leave the ledger
// unchanged. Records are coerced leniently; unusable amounts become zero.
func (s *Service) Import(ctx context.Context, r io.Reader, format string) (ImportResult, error) {
	c, err := s.codecs.Lookup(format)
	if err != nil {
		return ImportResult{}, err
	}
	records, err := c.Decode(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("importing %s: %w", c.Format(), err)
	}

	txns := make([]model.Transaction, 0, len(records))
	for i, raw := range records {
		t, err := s.norm.Normalize(raw, model.Lenient)
		if err != nil {
			return ImportResult{}, fmt.Errorf("importing record %d: %w", i+1, err)
		}
		txns = append(txns, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reassigned, err := s.replace(ctx, txns, activity.ActionImport, c.Format())
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Count: s.txns.len(), Reassigned: reassigned}, nil
}

// Export writes the whole ledger to w in the given format.
func (s *Service) Export(w io.Writer, format string) error {
	c, err := s.codecs.Lookup(format)
	if err != nil {
		return err
	}
	if err := c.Encode(w, s.Transactions()); err != nil {
		return fmt.Errorf("exporting %s: %w", c.Format(), err)
	}
	return nil
}

// Formats lists the import and export formats.
func (s *Service) Formats() []string {
	return s.codecs.Formats()
}

// Codec returns the codec registered for format.
func (s *Service) Codec(format string) (codec.Codec, error) {
	return s.codecs.Lookup(format)
}

// Query filters the ledger and computes totals over all of it.
func (s *Service) Query(f query.Filter) query.ViewModel {
	return query.Run(s.Transactions(), f)
}

// Transactions returns a copy of the ledger in insertion order.
func (s *Service) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txns.snapshot()
}

// Get returns the transaction with the given id.
func (s *Service) Get(id string) (model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txns.get(id)
}

// Len returns the number of transactions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txns.len()
}

// replace must be called with s.mu held.
func (s *Service) replace(ctx context.Context, txns []model.Transaction, action activity.Action, details string) (int, error) {
	next, reassigned := newSet(txns, s.newID)
	if err := s.commit(ctx, next); err != nil {
		return 0, fmt.Errorf("replacing ledger: %w", err)
	}
	if reassigned > 0 {
		s.logger.InfoContext(ctx, "reassigned duplicate ids", "count", reassigned)
	}
	s.record(ctx, activity.Entry{Action: action, Count: next.len(), Details: details})
	return reassigned, nil
}

// commit persists next and makes it current. On failure the current ledger is
// kept as it was.
func (s *Service) commit(ctx context.Context, next *set) error {
	if err := s.store.Save(ctx, next.items); err != nil {
		return err
	}
	s.txns = next
	return nil
}

func (s *Service) record(ctx context.Context, e activity.Entry) {
	s.logger.InfoContext(ctx, "ledger changed", "action", e.Action, "transactions", e.Count)
	if err := s.recorder.Record(e); err != nil {
		s.logger.WarnContext(ctx, "recording activity", "action", e.Action, "error", err)
	}
}

func (s *Service) newID() string {
	return s.norm.NewIDFor(nil)
}
