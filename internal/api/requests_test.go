package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/csmith1188/digipogs/internal/services"
)

func decodeTransfer(t *testing.T, raw string) transferBody {
	t.Helper()
	var b transferBody
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func toRequest(t *testing.T, raw string) services.TransferRequest {
	t.Helper()
	req, err := decodeTransfer(t, raw).toRequest()
	require.NoError(t, err)
	return req
}

func TestTransferBodyCurrentShape(t *testing.T) {
	req := toRequest(t, `{"from":{"type":"user","id":1},"to":{"type":"pool","id":7},"amount":10,"pin":"1234"}`)

	assert.False(t, req.Legacy)
	assert.Equal(t, models.AccountRef{Type: models.AccountUser, ID: 1}, req.From)
	assert.Equal(t, models.AccountRef{Type: models.AccountPool, ID: 7}, req.To)
	assert.Equal(t, int64(10), req.Amount)
}

func TestTransferBodyBareIDs(t *testing.T) {
	req := toRequest(t, `{"from":1,"to":2,"amount":10,"pin":"1234"}`)

	assert.True(t, req.Legacy)
	assert.Equal(t, models.AccountRef{Type: models.AccountUser, ID: 1}, req.From)
	assert.Equal(t, models.AccountRef{Type: models.AccountUser, ID: 2}, req.To)
}

func TestTransferBodyPoolOverridesRecipient(t *testing.T) {
	req := toRequest(t, `{"from":1,"to":2,"pool":7,"amount":10,"pin":"1234"}`)
	assert.True(t, req.Legacy)
	assert.Equal(t, models.AccountRef{Type: models.AccountPool, ID: 7}, req.To)

	// Legacy callers may omit "to" entirely when paying into a pool.
	req = toRequest(t, `{"from":1,"pool":7,"amount":10,"pin":"1234"}`)
	assert.True(t, req.Legacy)
	assert.Equal(t, models.AccountRef{Type: models.AccountPool, ID: 7}, req.To)
}

func TestTransferBodyMixedShapeRejected(t *testing.T) {
	for _, raw := range []string{
		// A typed sender must not be coerced into a bare user id.
		`{"from":{"type":"pool","id":7},"to":2,"amount":10,"pin":"1234"}`,
		`{"from":1,"to":{"type":"user","id":2},"amount":10,"pin":"1234"}`,
		`{"from":{"type":"user","id":1},"to":{"type":"user","id":2},"pool":7,"amount":10,"pin":"1234"}`,
	} {
		_, err := decodeTransfer(t, raw).toRequest()
		assert.Error(t, err, raw)
	}
}

func TestAwardBodyTarget(t *testing.T) {
	var b awardBody
	require.NoError(t, json.Unmarshal([]byte(`{"to":{"type":"class","code":"ab12cd"},"amount":5,"reason":"field day"}`), &b))

	target := b.target()
	assert.Equal(t, models.AwardClass, target.Type)
	assert.Equal(t, "ab12cd", target.Code)
	assert.Equal(t, int64(0), target.ID)
}
