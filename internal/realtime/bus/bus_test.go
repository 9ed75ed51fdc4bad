package bus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/newsboy-backend/internal/realtime"
)

func TestMemoryBusForwards(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan realtime.Event, 1)
	require.NoError(t, b.StartForwarder(ctx, func(ev realtime.Event) { got <- ev }))

	uid := uuid.New()
	require.NoError(t, b.Publish(ctx, realtime.NewEvent(realtime.EventGenerationStarted, uid)))

	select {
	case ev := <-got:
		assert.Equal(t, realtime.EventGenerationStarted, ev.Type)
		assert.Equal(t, uid, ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}

	require.NoError(t, b.Close())
	assert.Error(t, b.Publish(ctx, realtime.NewEvent(realtime.EventGenerationFailed, uid)))
}

func TestRedisBusRequiresAddr(t *testing.T) {
	_, err := NewRedisBus(nil, RedisConfig{})
	assert.Error(t, err)
}
