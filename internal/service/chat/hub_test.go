package chat

import (
	"context"
	"testing"

	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHubPublishReachesSessionSubscribersOnly(t *testing.T) {
	hub := NewHub(4, zaptest.NewLogger(t))

	a, cancelA := hub.Subscribe("a")
	defer cancelA()
	b, cancelB := hub.Subscribe("b")
	defer cancelB()

	n := hub.PublishSnapshot(conversation.Snapshot{SessionID: "a", Draft: "hi"})
	assert.Equal(t, 1, n)

	evt := <-a
	assert.Equal(t, EventSnapshot, evt.Type)
	assert.Equal(t, "hi", evt.Snapshot.Draft)
	assert.Empty(t, b)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(1, zaptest.NewLogger(t))
	events, cancel := hub.Subscribe("s")
	defer cancel()

	assert.Equal(t, 1, hub.Publish(Event{Type: EventSnapshot, SessionID: "s"}))
	assert.Equal(t, 0, hub.Publish(Event{Type: EventSnapshot, SessionID: "s"}))
	assert.Len(t, events, 1)
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub(0, nil)
	events, cancel := hub.Subscribe("s")
	assert.Equal(t, 1, hub.Subscribers("s"))

	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("s"))
}

func TestHubPlay(t *testing.T) {
	hub := NewHub(2, nil)
	clip := speechmodel.Clip{SessionID: "s", Text: "hello", Audio: []byte("mp3"), ContentType: "audio/mpeg"}

	assert.ErrorIs(t, hub.Play(context.Background(), clip), ErrNoListeners)

	events, cancel := hub.Subscribe("s")
	defer cancel()
	require.NoError(t, hub.Play(context.Background(), clip))

	evt := <-events
	assert.Equal(t, EventAudio, evt.Type)
	require.NotNil(t, evt.Audio)
	assert.Equal(t, []byte("mp3"), evt.Audio.Audio)
}

func TestHubCloseSession(t *testing.T) {
	hub := NewHub(2, nil)
	first, cancelFirst := hub.Subscribe("s")
	second, cancelSecond := hub.Subscribe("s")

	hub.CloseSession("s")
	_, open := <-first
	assert.False(t, open)
	_, open = <-second
	assert.False(t, open)

	cancelFirst()
	cancelSecond()
	assert.Equal(t, 0, hub.Subscribers("s"))
}
