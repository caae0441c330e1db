package commit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/commit"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

func TestNormalize_CanonicalFields(t *testing.T) {
	header := domain.RatchetHeader{DHPub: make([]byte, 32), N: 4}
	env, err := commit.Normalize(domain.LiveJob{
		ConversationID: "conv-1",
		SenderDigest:   "digest-1",
		SenderDevice:   "dev-2",
		MessageID:      "m-1",
		Counter:        5,
		Header:         &header,
		Ciphertext:     []byte{1},
		MsgType:        "text",
		Timestamp:      1700000000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("conv-1"), env.ConversationID)
	assert.Equal(t, domain.MessageID("m-1"), env.MessageID)
	assert.Equal(t, domain.AccountDigest("digest-1"), env.Sender.AccountDigest)
	assert.Equal(t, domain.DeviceID("dev-2"), env.Sender.DeviceID)
	assert.Equal(t, uint64(5), env.Counter)
	assert.Equal(t, header, env.Header)
	assert.Equal(t, int64(1700000000), env.Timestamp)
}

func TestNormalize_LegacyAliasesFold(t *testing.T) {
	env, err := commit.Normalize(domain.LiveJob{
		ConvID:    "conv-legacy",
		From:      "digest-legacy",
		MessageID: "m-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("conv-legacy"), env.ConversationID)
	assert.Equal(t, domain.AccountDigest("digest-legacy"), env.Sender.AccountDigest)
}

func TestNormalize_CanonicalNameWinsOverAlias(t *testing.T) {
	env, err := commit.Normalize(domain.LiveJob{
		ConversationID: "conv-canonical",
		ConvID:         "conv-legacy",
		SenderDigest:   "digest-canonical",
		From:           "digest-legacy",
		MessageID:      "m-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("conv-canonical"), env.ConversationID)
	assert.Equal(t, domain.AccountDigest("digest-canonical"), env.Sender.AccountDigest)
}

func TestNormalize_DefaultsDevice(t *testing.T) {
	env, err := commit.Normalize(domain.LiveJob{
		ConversationID: "conv-1",
		SenderDigest:   "digest-1",
		MessageID:      "m-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceID("primary"), env.Sender.DeviceID)
}

func TestNormalize_MintsMessageIDForServerOnlyDelivery(t *testing.T) {
	env, err := commit.Normalize(domain.LiveJob{
		ConversationID: "conv-1",
		SenderDigest:   "digest-1",
		ServerMsgID:    "srv-42",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, env.MessageID, "a local id is minted when only the server id exists")
	assert.Equal(t, "srv-42", env.ServerMessageID)
}

func TestNormalize_RejectsIncompleteJobs(t *testing.T) {
	for name, job := range map[string]domain.LiveJob{
		"empty":           {},
		"no conversation": {SenderDigest: "d", MessageID: "m"},
		"no sender":       {ConversationID: "c", MessageID: "m"},
		"no id at all":    {ConversationID: "c", SenderDigest: "d"},
	} {
		_, err := commit.Normalize(job)
		require.ErrorIs(t, err, commit.ErrMissingParams, name)
	}
}

func TestNormalize_NilHeaderBecomesZeroHeader(t *testing.T) {
	env, err := commit.Normalize(domain.LiveJob{
		ConversationID: "conv-1",
		SenderDigest:   "digest-1",
		MessageID:      "m-1",
	})
	require.NoError(t, err)
	assert.Empty(t, env.Header.DHPub)
}
