package commit

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// ErrMissingParams is returned by Normalize when a job lacks the required
// identifiers.
var ErrMissingParams = errors.New("live job missing required parameters")

// defaultDeviceID stands in when a push payload omits the sender device.
const defaultDeviceID = domain.DeviceID("primary")

// Normalize is the single boundary that folds the duck-typed push payload
// into the canonical envelope shape. Everything downstream assumes only
// domain.Envelope; legacy field aliases stop here.
//
// A job is valid iff it names a conversation, a sender identity, and at
// least one of message id / server message id.
func Normalize(job domain.LiveJob) (domain.Envelope, error) {
	conv := job.ConversationID
	if conv == "" {
		conv = job.ConvID
	}
	digest := job.SenderDigest
	if digest == "" {
		digest = job.From
	}

	switch {
	case conv == "":
		return domain.Envelope{}, fmt.Errorf("%w: conversation id", ErrMissingParams)
	case digest == "":
		return domain.Envelope{}, fmt.Errorf("%w: sender identity", ErrMissingParams)
	case job.MessageID == "" && job.ServerMsgID == "":
		return domain.Envelope{}, fmt.Errorf("%w: message id", ErrMissingParams)
	}

	device := domain.DeviceID(job.SenderDevice)
	if device == "" {
		device = defaultDeviceID
	}

	msgID := domain.MessageID(job.MessageID)
	if msgID == "" {
		// Server-only deliveries get a locally minted id; the server id is
		// preserved alongside for dedup.
		msgID = domain.MessageID(uuid.NewString())
	}

	var header domain.RatchetHeader
	if job.Header != nil {
		header = *job.Header
	}

	return domain.Envelope{
		ConversationID:  domain.ConversationID(conv),
		MessageID:       msgID,
		ServerMessageID: job.ServerMsgID,
		Sender: domain.PeerDevice{
			AccountDigest: domain.AccountDigest(digest),
			DeviceID:      device,
		},
		Counter:        job.Counter,
		Header:         header,
		Ciphertext:     job.Ciphertext,
		AssociatedData: job.AD,
		Handshake:      job.Handshake,
		MsgType:        job.MsgType,
		Timestamp:      job.Timestamp,
	}, nil
}
