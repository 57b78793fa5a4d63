package store

import (
	"context"
	"fmt"

	"github.com/jizhang-dev/jizhang/internal/codec"
	"github.com/jizhang-dev/jizhang/internal/log"
	"github.com/jizhang-dev/jizhang/internal/model"
)

// LoadResult is what Load recovered from the backend.
type LoadResult struct {
	Records []model.RawRecord
	// Malformed is set when a stored value existed but could not be parsed
	// as a list of records and was discarded.
	Malformed bool
}

// Adapter loads and saves the whole ledger under one fixed key.
type Adapter struct {
	kv     KV
	key    string
	logger *log.Logger
}

// NewAdapter wraps kv. An empty key selects DefaultKey.
func NewAdapter(kv KV, key string, logger *log.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Adapter{kv: kv, key: key, logger: logger.WithComponent("store")}
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Load returns the stored raw records. It never fails: a missing value, an
// unreadable backend and a corrupted value all yield an empty result.
func (a *Adapter) Load(ctx context.Context) LoadResult {
	data, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		a.logger.Failure(ctx, "reading stored ledger", err, "key", a.key)
		return LoadResult{}
	}
	if !ok || len(data) == 0 {
		return LoadResult{}
	}

	records, err := codec.UnmarshalJSON(data)
	if err != nil {
		a.logger.WarnContext(ctx, "discarding malformed stored ledger", "key", a.key, "error", err, "bytes", len(data))
		return LoadResult{Malformed: true}
	}

	a.logger.DebugContext(ctx, "loaded stored ledger", "key", a.key, "records", len(records))
	return LoadResult{Records: records}
}

// Save writes the full ledger, replacing the previous value.
func (a *Adapter) Save(ctx context.Context, txns []model.Transaction) error {
	data, err := codec.MarshalJSON(txns)
	if err != nil {
		return fmt.Errorf("serializing ledger: %w", err)
	}
	if err := a.kv.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	a.logger.DebugContext(ctx, "saved ledger", "key", a.key, "records", len(txns))
	return nil
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.kv.Close()
}
