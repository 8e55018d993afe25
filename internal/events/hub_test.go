package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(TypeBatchAccepted, Batch{BatchID: "20250101_000000", Filename: "jan.csv"})

	select {
	case ev := <-ch:
		assert.Equal(t, int64(1), ev.ID)
		assert.Equal(t, TypeBatchAccepted, ev.Type)
		var b Batch
		require.NoError(t, json.Unmarshal(ev.Data, &b))
		assert.Equal(t, "jan.csv", b.Filename)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSinceReplaysRing(t *testing.T) {
	h := NewHub(3)
	for i := 0; i < 5; i++ {
		h.Publish(TypeBatchSucceeded, nil)
	}

	all := h.Since(0)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.JSONEq(t, `{}`, string(all[0].Data))

	after := h.Since(4)
	require.Len(t, after, 1)
	assert.Equal(t, int64(5), after[0].ID)
	assert.Empty(t, h.Since(5))
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(1)
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(TypeBatchFailed, Batch{Error: "boom"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
}

func TestCancelAndClose(t *testing.T) {
	h := NewHub(0)
	ch1, cancel1 := h.Subscribe()
	ch2, _ := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	cancel1()
	cancel1()
	_, ok := <-ch1
	assert.False(t, ok)
	assert.Equal(t, 1, h.Subscribers())

	h.Close()
	_, ok = <-ch2
	assert.False(t, ok)
	assert.Zero(t, h.Subscribers())

	h.Publish(TypeBatchDuplicate, nil)
	assert.Empty(t, h.Since(0))

	ch3, cancel3 := h.Subscribe()
	cancel3()
	_, ok = <-ch3
	assert.False(t, ok)
}
