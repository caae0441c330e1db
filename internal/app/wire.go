package app

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/commit"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/gate"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/ratchet"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/session"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/store"
)

// Wire bundles the stores, adapters and the pipeline for the CLI.
type Wire struct {
	Keys      *store.KeyFileStore
	Snapshots domain.SnapshotStore
	States    domain.RatchetStateStore
	Vault     *store.BadgerVault
	Bootstrap domain.SessionBootstrap
	Committer *commit.Service
	Logger    *zap.SugaredLogger
}

// NewWire constructs the dependency graph from cfg. History and Timeline
// are optional outside collaborators and stay nil here; callers that have
// them inject through commit.Params themselves.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	keys := store.NewKeyFileStore(cfg.Home, cfg.Passphrase)
	snapshots, err := store.NewSnapshotFileStore(cfg.Home, cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	states := store.NewStateRegistry(snapshots)

	vault, err := store.OpenVault(store.VaultOptions{Path: cfg.VaultDir, Logger: logger})
	if err != nil {
		return nil, err
	}

	codec := ratchet.NewCodec(cfg.MaxSkippedKeys)
	boot := session.New(keys, keys, states, logger)

	committer := commit.New(commit.Params{
		Self: domain.PeerDevice{
			AccountDigest: domain.AccountDigest(cfg.SelfDigest),
			DeviceID:      domain.DeviceID(cfg.SelfDevice),
		},
		States:    states,
		Decryptor: codec,
		Ratchet:   codec,
		Bootstrap: boot,
		Vault:     vault,
		Snapshots: snapshots,
		Sequence:  vault,
		Gate:      gate.New(),
		Policy:    commit.Policy{FillCap: cfg.FillCap},
		Logger:    logger,
	})

	return &Wire{
		Keys:      keys,
		Snapshots: snapshots,
		States:    states,
		Vault:     vault,
		Bootstrap: boot,
		Committer: committer,
		Logger:    logger,
	}, nil
}

// Close releases everything the wire owns.
func (w *Wire) Close() error {
	_ = w.Logger.Sync()
	return w.Vault.Close()
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
