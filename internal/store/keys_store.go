package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

const (
	idFile       = "identity.enc"
	spkPairsFile = "spk_pairs.json" // map[string]spkPair
	opkPairsFile = "opk_pairs.json" // map[string]opkPair
)

type spkPair struct {
	Priv [32]byte
	Pub  [32]byte
	At   int64
}

type opkPair struct {
	Priv [32]byte
	Pub  [32]byte
	At   int64
}

type identityPair struct {
	Priv [32]byte `json:"priv"`
	Pub  [32]byte `json:"pub"`
}

// KeyFileStore keeps the long-term identity pair and the local halves of
// published prekeys on disk. The identity is passphrase-encrypted; prekey
// pairs are short-lived and stored as plain JSON.
type KeyFileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir.
func NewKeyFileStore(dir, passphrase string) *KeyFileStore {
	return &KeyFileStore{dir: dir, passphrase: passphrase}
}

// SaveIdentity encrypts and writes the identity pair.
func (s *KeyFileStore) SaveIdentity(priv domain.X25519Private, pub domain.X25519Public) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(identityPair{Priv: priv, Pub: pub})
	if err != nil {
		return err
	}
	N, r, p := scryptParamsDefault()
	sealed, err := encrypt(s.passphrase, raw, N, r, p)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, idFile), sealed, 0o600)
}

// LoadIdentity reads and decrypts the identity pair.
func (s *KeyFileStore) LoadIdentity() (domain.X25519Private, domain.X25519Public, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pair identityPair
	sealed, err := os.ReadFile(filepath.Join(s.dir, idFile))
	if err != nil {
		return pair.Priv, pair.Pub, err
	}
	raw, err := decrypt(s.passphrase, sealed)
	if err != nil {
		return pair.Priv, pair.Pub, err
	}
	if err := json.Unmarshal(raw, &pair); err != nil {
		return pair.Priv, pair.Pub, err
	}
	return pair.Priv, pair.Pub, nil
}

// SaveSignedPreKey stores one signed prekey pair under id.
func (s *KeyFileStore) SaveSignedPreKey(id string, priv domain.X25519Private, pub domain.X25519Public) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]spkPair)
	_ = readJSON(filepath.Join(s.dir, spkPairsFile), &m)
	m[id] = spkPair{Priv: priv, Pub: pub, At: time.Now().Unix()}
	return writeJSON(filepath.Join(s.dir, spkPairsFile), m, 0o600)
}

// LoadSignedPreKey returns the private half of the signed prekey id.
func (s *KeyFileStore) LoadSignedPreKey(id string) (domain.X25519Private, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]spkPair)
	if err := readJSON(filepath.Join(s.dir, spkPairsFile), &m); err != nil {
		return domain.X25519Private{}, false, err
	}
	p, ok := m[id]
	if !ok {
		return domain.X25519Private{}, false, nil
	}
	return p.Priv, true, nil
}

// SaveOneTimePreKey stores one one-time prekey pair under id.
func (s *KeyFileStore) SaveOneTimePreKey(id string, priv domain.X25519Private, pub domain.X25519Public) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]opkPair)
	_ = readJSON(filepath.Join(s.dir, opkPairsFile), &m)
	m[id] = opkPair{Priv: priv, Pub: pub, At: time.Now().Unix()}
	return writeJSON(filepath.Join(s.dir, opkPairsFile), m, 0o600)
}

// ConsumeOneTimePreKey removes and returns the private half of the one-time
// prekey id, if still present.
func (s *KeyFileStore) ConsumeOneTimePreKey(id string) (domain.X25519Private, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]opkPair)
	if err := readJSON(filepath.Join(s.dir, opkPairsFile), &m); err != nil {
		return domain.X25519Private{}, false, err
	}
	p, ok := m[id]
	if !ok {
		return domain.X25519Private{}, false, nil
	}
	delete(m, id)
	if err := writeJSON(filepath.Join(s.dir, opkPairsFile), m, 0o600); err != nil {
		return domain.X25519Private{}, false, err
	}
	return p.Priv, true, nil
}

// Compile-time assertions for the store interfaces.
var (
	_ domain.IdentityStore = (*KeyFileStore)(nil)
	_ domain.PreKeyStore   = (*KeyFileStore)(nil)
)
