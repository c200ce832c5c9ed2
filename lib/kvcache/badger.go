package kvcache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/kvcache")

// Badger is a Store backed by an embedded badger database. It serves
// as the shared cache tier that survives process restarts.
type Badger struct {
	db *badger.DB
}

func NewBadger(dir string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "badger:Get")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	tx := b.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, err
	}
	return value, nil
}

func (b *Badger) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "badger:Set")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	return b.db.Update(func(tx *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		err := tx.SetEntry(entry)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to set badger item")
		}
		return err
	})
}

func (b *Badger) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "badger:Delete")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(key))
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}
