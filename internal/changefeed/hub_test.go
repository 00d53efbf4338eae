package changefeed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversInOrderPerTopic(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(TopicPets)
	defer cancel()

	other, cancelOther := h.Subscribe(TopicAdoptionRequests)
	defer cancelOther()

	for _, id := range []string{"a", "b", "c"} {
		e, err := NewEvent(TopicPets, KindUpsert, id, map[string]string{"id": id})
		require.NoError(t, err)
		require.NoError(t, h.Publish(context.Background(), e))
	}

	for _, want := range []string{"a", "b", "c"} {
		got := <-ch
		assert.Equal(t, want, got.ID)
		assert.Equal(t, KindUpsert, got.Kind)
	}

	select {
	case e := <-other:
		t.Fatalf("unexpected cross-topic event %+v", e)
	default:
	}
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(TopicPets)
	require.Equal(t, 1, h.Subscribers(TopicPets))

	cancel()
	cancel() // idempotente

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers(TopicPets))

	// publicar después del cancel no debe paniquear
	e, _ := NewEvent(TopicPets, KindDelete, "x", nil)
	assert.NoError(t, h.Publish(context.Background(), e))
}

func TestHub_SlowSubscriberIsCut(t *testing.T) {
	h := NewHubWithBuffer(1)
	slow, cancelSlow := h.Subscribe(TopicPets)
	defer cancelSlow()
	fast, cancelFast := h.Subscribe(TopicPets)
	defer cancelFast()

	for _, id := range []string{"a", "b", "c"} {
		e, _ := NewEvent(TopicPets, KindUpsert, id, nil)
		h.Deliver(e)
		if id == "a" {
			// el rápido vacía su canal a tiempo
			assert.Equal(t, "a", (<-fast).ID)
		}
	}

	// El lento recibe lo que alcanzó a encolar y después ve el canal cerrado.
	first, open := <-slow
	require.True(t, open)
	assert.Equal(t, "a", first.ID)
	_, open = <-slow
	assert.False(t, open, "slow subscriber must be closed, not left with a gap")

	// El rápido también se quedó atrás en "c" y se cortó.
	got, open := <-fast
	require.True(t, open)
	assert.Equal(t, "b", got.ID)
	_, open = <-fast
	assert.False(t, open)

	assert.Equal(t, 2, h.Dropped())
	assert.Equal(t, 0, h.Subscribers(TopicPets))
}

func TestHub_CutSubscriberCancelIsNoop(t *testing.T) {
	h := NewHubWithBuffer(1)
	ch, cancel := h.Subscribe(TopicPets)

	e, _ := NewEvent(TopicPets, KindUpsert, "x", nil)
	h.Deliver(e)
	h.Deliver(e)
	require.Equal(t, 1, h.Dropped())

	assert.NotPanics(t, cancel)
	<-ch
	_, open := <-ch
	assert.False(t, open)

	// Una suscripción nueva vuelve a recibir.
	again, cancelAgain := h.Subscribe(TopicPets)
	defer cancelAgain()
	h.Deliver(e)
	assert.Equal(t, "x", (<-again).ID)
}
