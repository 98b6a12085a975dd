package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoard_SupersedesWithinChannel(t *testing.T) {
	b := NewBoard()

	b.Notify(NoResults())
	b.Notify(NoResults())
	b.Notify(Notification{Channel: ChannelEmpty, Message: "replacement"})

	assert.Equal(t, 1, b.Pending())
	assert.Equal(t, 3, b.Posted())

	got := b.Drain()
	assert.Equal(t, []Notification{{Channel: ChannelEmpty, Message: "replacement"}}, got)
	assert.Zero(t, b.Pending())
	assert.Nil(t, b.Drain())
}

func TestBoard_DrainOrder(t *testing.T) {
	b := NewBoard()

	b.Notify(NoResults())
	b.Notify(Failure())

	got := b.Drain()
	assert.Equal(t, []Notification{Failure(), NoResults()}, got)
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "error", ChannelError.String())
	assert.Equal(t, "no-results", ChannelEmpty.String())
	assert.Equal(t, "unknown", Channel(9).String())
}
