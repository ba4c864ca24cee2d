package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkState_Terminal(t *testing.T) {
	for _, s := range []LinkState{LinkStateLinked, LinkStateFailed, LinkStateAlreadyConnected, LinkStateMockLinked, LinkStateDisconnected} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []LinkState{LinkStateIdle, LinkStateAuthorizationRequested, LinkStateAwaitingCallback, LinkStatePendingConfirmation} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestLinkState_CanTransitionTo(t *testing.T) {
	assert.True(t, LinkStateIdle.CanTransitionTo(LinkStateAuthorizationRequested))
	assert.True(t, LinkStatePendingConfirmation.CanTransitionTo(LinkStateDisconnected))
	assert.False(t, LinkStateIdle.CanTransitionTo(LinkStateLinked))
	assert.False(t, LinkStateLinked.CanTransitionTo(LinkStateFailed))
}
