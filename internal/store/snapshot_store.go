package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

const snapshotDirName = "snapshots"

// SnapshotFileStore persists passphrase-encrypted ratchet snapshots, one
// file per peer device. The same sealed form is attached to escrow records
// so the vault can hand a recovery point to another device.
type SnapshotFileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewSnapshotFileStore returns a store rooted at dir.
func NewSnapshotFileStore(dir, passphrase string) (*SnapshotFileStore, error) {
	d := filepath.Join(dir, snapshotDirName)
	if err := os.MkdirAll(d, 0o700); err != nil {
		return nil, err
	}
	return &SnapshotFileStore{dir: d, passphrase: passphrase}, nil
}

// Persist seals st and writes it to the peer's snapshot file.
func (s *SnapshotFileStore) Persist(_ context.Context, peer domain.PeerDevice, st *domain.RatchetState) error {
	sealed, err := s.Seal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(s.path(peer), sealed, 0o600)
}

// Load reads and opens the peer's snapshot file, if any.
func (s *SnapshotFileStore) Load(_ context.Context, peer domain.PeerDevice) (*domain.RatchetState, bool, error) {
	s.mu.Lock()
	blobBytes, err := os.ReadFile(s.path(peer))
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	raw, err := decrypt(s.passphrase, blobBytes)
	if err != nil {
		return nil, false, err
	}
	var st domain.RatchetState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false, err
	}
	return &st, true, nil
}

// Seal returns the encrypted form of st.
func (s *SnapshotFileStore) Seal(st *domain.RatchetState) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	return encrypt(s.passphrase, raw, N, r, p)
}

func (s *SnapshotFileStore) path(peer domain.PeerDevice) string {
	sum := sha256.Sum256([]byte(peer.String()))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".snap")
}

// Compile-time assertion that SnapshotFileStore implements domain.SnapshotStore.
var _ domain.SnapshotStore = (*SnapshotFileStore)(nil)
