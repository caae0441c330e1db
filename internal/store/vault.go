package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// Key layout inside the vault database.
//
//	esc/<conversation>/<counter %020d>/<direction>/<message id> -> EscrowRecord JSON
//	cur/<conversation>                                          -> uint64 big endian
const (
	escrowPrefix = "esc/"
	cursorPrefix = "cur/"
)

var (
	// ErrEmptyMessageKey rejects escrow records without key material.
	ErrEmptyMessageKey = errors.New("escrow record has no message key")
)

// BadgerVault is the local implementation of the key escrow contract plus
// the per-conversation sequence cursor. Both live in one embedded BadgerDB
// so a commit's key and cursor share a durability domain.
type BadgerVault struct {
	db  *badger.DB
	log *zap.SugaredLogger
}

// VaultOptions configure OpenVault.
type VaultOptions struct {
	Path     string
	InMemory bool // for tests
	Logger   *zap.SugaredLogger
}

// OpenVault opens (or creates) the vault database.
func OpenVault(opts VaultOptions) (*BadgerVault, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	bo := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithSyncWrites(!opts.InMemory).
		WithLogger(nil)
	if opts.InMemory {
		bo = bo.WithDir("").WithValueDir("")
	}
	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	return &BadgerVault{db: db, log: log}, nil
}

// Close flushes and closes the database.
func (v *BadgerVault) Close() error { return v.db.Close() }

// EscrowPut durably stores one escrow record. The write is synchronous; a
// nil return is the commit point of the whole pipeline.
func (v *BadgerVault) EscrowPut(ctx context.Context, rec domain.EscrowRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rec.MessageKey) == 0 {
		return ErrEmptyMessageKey
	}
	if rec.ConversationID == "" || rec.Counter == 0 {
		return fmt.Errorf("escrow record missing conversation or counter")
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := escrowKey(rec)
	return v.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// EscrowGet returns every record stored for (conv, counter), both
// directions. The status command uses it to show what is recoverable at
// the cursor.
func (v *BadgerVault) EscrowGet(ctx context.Context, conv domain.ConversationID, counter uint64) ([]domain.EscrowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(fmt.Sprintf("%s%s/%020d/", escrowPrefix, conv, counter))
	var out []domain.EscrowRecord
	err := v.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec domain.EscrowRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// LocalMaxCounter reads the conversation cursor. ok=false means nothing has
// been committed yet.
func (v *BadgerVault) LocalMaxCounter(ctx context.Context, conv domain.ConversationID) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var max uint64
	found := false
	err := v.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cursorKey(conv))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt cursor for %s", conv)
			}
			max = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	return max, found, err
}

// CommitCounter advances the cursor to counter. The cursor is monotonic;
// a lower or equal value is a no-op.
func (v *BadgerVault) CommitCounter(ctx context.Context, conv domain.ConversationID, counter uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.db.Update(func(txn *badger.Txn) error {
		cur := uint64(0)
		item, err := txn.Get(cursorKey(conv))
		if err == nil {
			err = item.Value(func(val []byte) error {
				if len(val) == 8 {
					cur = binary.BigEndian.Uint64(val)
				}
				return nil
			})
			if err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if counter <= cur {
			return nil
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], counter)
		return txn.Set(cursorKey(conv), buf[:])
	})
}

func escrowKey(rec domain.EscrowRecord) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s/%s",
		escrowPrefix, rec.ConversationID, rec.Counter, rec.Direction, rec.MessageID))
}

func cursorKey(conv domain.ConversationID) []byte {
	return []byte(cursorPrefix + string(conv))
}

// Compile-time assertions for the vault contracts.
var (
	_ domain.KeyVault       = (*BadgerVault)(nil)
	_ domain.SequenceSource = (*BadgerVault)(nil)
)
