package types

// ReasonCode classifies the outcome of a commit attempt.
type ReasonCode string

const (
	ReasonCommitted          ReasonCode = "COMMITTED"
	ReasonStale              ReasonCode = "STALE"
	ReasonControlSkip        ReasonCode = "CONTROL_SKIP"
	ReasonAppendFailed       ReasonCode = "APPEND_FAILED"
	ReasonMissingParams      ReasonCode = "MISSING_PARAMS"
	ReasonAdaptersUnavail    ReasonCode = "ADAPTERS_UNAVAILABLE"
	ReasonNotReady           ReasonCode = "NOT_READY"
	ReasonSecurePending      ReasonCode = "SECURE_PENDING"
	ReasonSecureFailed       ReasonCode = "SECURE_FAILED"
	ReasonStateUnavailable   ReasonCode = "DR_STATE_UNAVAILABLE"
	ReasonGapDetected        ReasonCode = "GAP_DETECTED"
	ReasonGapCheckFailed     ReasonCode = "GAP_CHECK_FAILED"
	ReasonDecryptFail        ReasonCode = "DECRYPT_FAIL"
	ReasonMissingMessageKey  ReasonCode = "MISSING_MESSAGE_KEY"
	ReasonMissingMsgFields   ReasonCode = "MISSING_MESSAGE_FIELDS"
	ReasonVaultPutFailed     ReasonCode = "VAULT_PUT_FAILED"
)

// Retryable reports whether a later attempt with the same envelope can
// succeed. Everything else is terminal for this message.
func (r ReasonCode) Retryable() bool {
	switch r {
	case ReasonGapDetected, ReasonGapCheckFailed, ReasonVaultPutFailed, ReasonAdaptersUnavail:
		return true
	}
	return false
}

// CommitResult reports one commit attempt. Produced once, never mutated
// after return.
type CommitResult struct {
	OK         bool              `json:"ok"`
	Reason     ReasonCode        `json:"reason"`
	Counter    uint64            `json:"counter,omitempty"`
	MessageID  MessageID         `json:"message_id,omitempty"`
	DecryptOK  bool              `json:"decrypt_ok"`
	VaultPutOK bool              `json:"vault_put_ok"`
	Message    *DecryptedMessage `json:"message,omitempty"`
	Err        error             `json:"-"`
}

// SkippedKeyRecord is a message key derived for a counter that was jumped
// over during a forward advance. The chain has already moved past it, so it
// is escrowed separately and best-effort.
type SkippedKeyRecord struct {
	Counter    uint64 `json:"counter"`
	MessageKey []byte `json:"message_key"`
}

// DecryptResult is the structured return of a decrypt. The message key and
// any skipped keys come back as values rather than through mutation
// callbacks, so the committer alone decides what gets persisted.
type DecryptResult struct {
	Plaintext  []byte
	MessageKey []byte
	Skipped    []SkippedKeyRecord
}

// EscrowDirection tags which chain a vaulted key belongs to.
type EscrowDirection string

const (
	DirectionIn  EscrowDirection = "in"
	DirectionOut EscrowDirection = "out"
)

// EscrowRecord is the durable unit the key vault stores per message.
type EscrowRecord struct {
	ConversationID    ConversationID  `json:"conversation_id"`
	MessageID         MessageID       `json:"message_id"`
	Counter           uint64          `json:"counter"`
	MessageKey        []byte          `json:"message_key"`
	Direction         EscrowDirection `json:"direction"`
	MsgType           string          `json:"msg_type,omitempty"`
	EncryptedSnapshot []byte          `json:"encrypted_snapshot,omitempty"`
}
