package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, ActorID(ctx))
	assert.Empty(t, SessionID(ctx))
	assert.Empty(t, RequestID(ctx))

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ctx = WithActorID(ctx, 9)
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithClientIP(ctx, "203.0.113.7")
	ctx = WithUserAgent(ctx, "curl/8.0")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithLocale(ctx, "ko")
	ctx = WithTime(ctx, at)

	assert.EqualValues(t, 9, ActorID(ctx))
	assert.Equal(t, "sess-1", SessionID(ctx))
	assert.Equal(t, "203.0.113.7", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "ko", Locale(ctx))
	assert.Equal(t, at, Now(ctx))
}

func TestProvider(t *testing.T) {
	var p Provider
	ctx := context.Background()

	assert.Nil(t, p.UserAgent(ctx))
	assert.Nil(t, p.SourceAddress(ctx))
	assert.Nil(t, p.SessionID(ctx))
	assert.Nil(t, p.ActorID(ctx))

	ctx = WithUserAgent(WithClientIP(WithSessionID(WithActorID(ctx, 3), "s"), "10.0.0.1"), "ua")
	require.NotNil(t, p.ActorID(ctx))
	assert.EqualValues(t, 3, *p.ActorID(ctx))
	assert.Equal(t, "ua", *p.UserAgent(ctx))
	assert.Equal(t, "10.0.0.1", *p.SourceAddress(ctx))
	assert.Equal(t, "s", *p.SessionID(ctx))
}
