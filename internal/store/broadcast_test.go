package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBroadcasterKeepsLatest(t *testing.T) {
	b := newBroadcaster[int]("test", zap.NewNop())
	slow := b.subscribe(1)

	b.publish(1)
	b.publish(2)
	b.publish(3)

	assert.Equal(t, 3, <-slow)
	assert.Equal(t, 2, b.numSkip)
}

func TestBroadcasterCancelAndClose(t *testing.T) {
	b := newBroadcaster[int]("test", zap.NewNop())
	a := b.subscribe(1)
	c := b.subscribe(1)
	assert.Equal(t, 2, b.size())

	b.cancelSubscription(a)
	b.cancelSubscription(a)
	_, open := <-a
	assert.False(t, open)

	b.close()
	_, open = <-c
	assert.False(t, open)

	late := b.subscribe(1)
	_, open = <-late
	assert.False(t, open)
	b.publish(1)
}
