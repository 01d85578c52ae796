package redisstore

import (
	"context"
	"os"
	"testing"

	"classifybot/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "classifybot:history", key("history"))
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestRoundTripAgainstServer(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	b, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	name := "test-" + uuid.NewString()
	t.Cleanup(func() { b.client.Del(context.Background(), key(name)) })

	_, err = b.Read(ctx, name)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, b.Write(ctx, name, []byte(`[]`)))
	got, err := b.Read(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}
