package eventbus

import (
	"encoding/json"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	payload := struct {
		ContestID string `json:"contest_id"`
		Username  string `json:"username"`
		Score     int    `json:"score"`
	}{
		ContestID: gofakeit.UUID(),
		Username:  gofakeit.Username(),
		Score:     gofakeit.Number(0, 100),
	}

	msg, err := NewMessage(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.UUID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, payload.ContestID, decoded["contest_id"])
	assert.Equal(t, payload.Username, decoded["username"])
}

func TestNewMessage_UnmarshalablePayload(t *testing.T) {
	_, err := NewMessage(make(chan int))
	require.Error(t, err)
}

func TestNewMessage_UniqueUUIDs(t *testing.T) {
	a, err := NewMessage(map[string]string{"k": "v"})
	require.NoError(t, err)
	b, err := NewMessage(map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.NotEqual(t, a.UUID, b.UUID)
}
