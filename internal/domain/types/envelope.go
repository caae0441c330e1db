package types

// HandshakeBundle rides on the first message of a conversation so the
// receiver can derive the shared root key and seed its ratchet.
type HandshakeBundle struct {
	InitiatorIK     X25519Public `json:"initiator_ik"`
	Ephemeral       X25519Public `json:"ephemeral"`
	SignedPreKeyID  string       `json:"spk_id"`
	OneTimePreKeyID string       `json:"opk_id,omitempty"`
}

// Envelope is the canonical incoming message shape. Only the normalization
// boundary (commit.Normalize) produces it; the pipeline assumes nothing
// about transport field spellings beyond this struct.
//
// Counter is the cryptographic per-direction sequence number from the
// header, 1-based. Zero means the counter is absent, which the pipeline
// rejects rather than substituting a transport id.
type Envelope struct {
	ConversationID  ConversationID   `json:"conversation_id"`
	MessageID       MessageID        `json:"message_id"`
	ServerMessageID string           `json:"server_message_id,omitempty"`
	Sender          PeerDevice       `json:"sender"`
	Counter         uint64           `json:"counter"`
	Header          RatchetHeader    `json:"header"`
	Ciphertext      []byte           `json:"ciphertext"`
	AssociatedData  []byte           `json:"associated_data,omitempty"`
	Handshake       *HandshakeBundle `json:"handshake,omitempty"`
	MsgType         string           `json:"msg_type,omitempty"`
	Timestamp       int64            `json:"timestamp"`
}

// LiveJob is what the socket push layer hands us. Transport payloads are
// duck-typed and alias several field names; Normalize folds them into one
// Envelope and validates the required identifiers.
type LiveJob struct {
	ConversationID string `json:"conversation_id"`
	ConvID         string `json:"conv_id,omitempty"` // legacy alias
	MessageID      string `json:"message_id,omitempty"`
	ServerMsgID    string `json:"server_msg_id,omitempty"`

	SenderDigest string `json:"sender_digest,omitempty"`
	From         string `json:"from,omitempty"` // legacy alias
	SenderDevice string `json:"sender_device,omitempty"`

	Counter    uint64           `json:"counter,omitempty"`
	Header     *RatchetHeader   `json:"header,omitempty"`
	Ciphertext []byte           `json:"ciphertext,omitempty"`
	AD         []byte           `json:"associated_data,omitempty"`
	Handshake  *HandshakeBundle `json:"handshake,omitempty"`
	MsgType    string           `json:"msg_type,omitempty"`
	Timestamp  int64            `json:"timestamp,omitempty"`
}

// DecryptedMessage is the display projection handed to the timeline.
type DecryptedMessage struct {
	ConversationID ConversationID `json:"conversation_id"`
	MessageID      MessageID      `json:"message_id"`
	Sender         PeerDevice     `json:"sender"`
	Counter        uint64         `json:"counter"`
	Plaintext      []byte         `json:"plaintext"`
	MsgType        string         `json:"msg_type,omitempty"`
	Timestamp      int64          `json:"timestamp"`
}
