package beam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCondBroadcastWakesSubscriber(t *testing.T) {
	c := newCond()
	ch := c.subscribe()

	done := make(chan bool, 1)
	go func() {
		done <- wait(ch, 0)
	}()

	time.Sleep(10 * time.Millisecond)
	c.broadcast()

	select {
	case woke := <-done:
		assert.True(t, woke)
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}
}

func TestCondWaitTimesOut(t *testing.T) {
	c := newCond()
	ch := c.subscribe()
	assert.False(t, wait(ch, 10*time.Millisecond))
}

func TestCondSubscribeAfterBroadcastIsNewGeneration(t *testing.T) {
	c := newCond()
	first := c.subscribe()
	c.broadcast()

	select {
	case <-first:
	default:
		t.Fatal("first generation channel should be closed by broadcast")
	}

	second := c.subscribe()
	select {
	case <-second:
		t.Fatal("new generation channel should not be pre-closed")
	default:
	}
}
