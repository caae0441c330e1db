package domain

import (
	interfaces "github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain/interfaces"
	types "github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	AccountDigest    = types.AccountDigest
	DeviceID         = types.DeviceID
	ConversationID   = types.ConversationID
	MessageID        = types.MessageID
	PeerDevice       = types.PeerDevice
	X25519Private    = types.X25519Private
	X25519Public     = types.X25519Public
	Ed25519Public    = types.Ed25519Public
	RatchetRole      = types.RatchetRole
	RatchetHeader    = types.RatchetHeader
	RatchetState     = types.RatchetState
	RatchetSnapshot  = types.RatchetSnapshot
	HandshakeBundle  = types.HandshakeBundle
	Envelope         = types.Envelope
	LiveJob          = types.LiveJob
	DecryptedMessage = types.DecryptedMessage
	ReasonCode       = types.ReasonCode
	CommitResult     = types.CommitResult
	SkippedKeyRecord = types.SkippedKeyRecord
	DecryptResult    = types.DecryptResult
	EscrowDirection  = types.EscrowDirection
	EscrowRecord     = types.EscrowRecord
)

// Shared constants re-exported alongside their types.
const (
	RoleInitiator = types.RoleInitiator
	RoleResponder = types.RoleResponder
	DirectionIn   = types.DirectionIn
	DirectionOut  = types.DirectionOut

	ReasonCommitted         = types.ReasonCommitted
	ReasonStale             = types.ReasonStale
	ReasonControlSkip       = types.ReasonControlSkip
	ReasonAppendFailed      = types.ReasonAppendFailed
	ReasonMissingParams     = types.ReasonMissingParams
	ReasonAdaptersUnavail   = types.ReasonAdaptersUnavail
	ReasonNotReady          = types.ReasonNotReady
	ReasonSecurePending     = types.ReasonSecurePending
	ReasonSecureFailed      = types.ReasonSecureFailed
	ReasonStateUnavailable  = types.ReasonStateUnavailable
	ReasonGapDetected       = types.ReasonGapDetected
	ReasonGapCheckFailed    = types.ReasonGapCheckFailed
	ReasonDecryptFail       = types.ReasonDecryptFail
	ReasonMissingMessageKey = types.ReasonMissingMessageKey
	ReasonMissingMsgFields  = types.ReasonMissingMsgFields
	ReasonVaultPutFailed    = types.ReasonVaultPutFailed
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Decryptor         = interfaces.Decryptor
	SessionBootstrap  = interfaces.SessionBootstrap
	KeyVault          = interfaces.KeyVault
	SnapshotStore     = interfaces.SnapshotStore
	SequenceSource    = interfaces.SequenceSource
	HistoryClient     = interfaces.HistoryClient
	TimelineAppender  = interfaces.TimelineAppender
	RatchetStateStore = interfaces.RatchetStateStore
	PreKeyStore       = interfaces.PreKeyStore
	IdentityStore     = interfaces.IdentityStore
	CommitOptions     = interfaces.CommitOptions
	Committer         = interfaces.Committer
	Sealer            = interfaces.Sealer
)
