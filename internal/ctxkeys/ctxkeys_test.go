package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionID(t *testing.T) {
	ctx := context.Background()
	_, ok := SessionID(ctx)
	assert.False(t, ok)

	_, ok = SessionID(WithSessionID(ctx, ""))
	assert.False(t, ok)

	id, ok := SessionID(WithSessionID(ctx, "s-1"))
	assert.True(t, ok)
	assert.Equal(t, "s-1", id)
}

func TestRound(t *testing.T) {
	ctx := context.Background()
	_, ok := Round(ctx)
	assert.False(t, ok)

	round, ok := Round(WithRound(ctx, 3))
	assert.True(t, ok)
	assert.Equal(t, 3, round)
}

func TestFields(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))

	ctx := WithRound(WithSessionID(context.Background(), "s-1"), 2)
	fields := Fields(ctx)
	assert.Len(t, fields, 2)
	assert.Equal(t, "session_id", fields[0].Key)
	assert.Equal(t, "round", fields[1].Key)
}
