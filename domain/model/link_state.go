package model

// LinkState is a step of the account linking lifecycle.
type LinkState string

const (
	LinkStateIdle                   LinkState = "idle"
	LinkStateAuthorizationRequested LinkState = "authorization_requested"
	LinkStateAwaitingCallback       LinkState = "awaiting_callback"
	LinkStateExchangingToken        LinkState = "exchanging_token"
	LinkStateFetchingProfile        LinkState = "fetching_profile"
	LinkStatePersisting             LinkState = "persisting"
	LinkStateLinked                 LinkState = "linked"
	LinkStateFailed                 LinkState = "failed"
	LinkStateAlreadyConnected       LinkState = "already_connected"
	LinkStateMockLinked             LinkState = "mock_linked"
	LinkStatePendingConfirmation    LinkState = "pending_confirmation"
	LinkStateDisconnected           LinkState = "disconnected"
)

// Recovery actions offered with a failed link.
const (
	ActionReturnToDashboard = "return_to_dashboard"
	ActionGoToSettings      = "go_to_settings"
)

var linkTransitions = map[LinkState][]LinkState{
	LinkStateIdle: {
		LinkStateAuthorizationRequested,
		LinkStatePendingConfirmation,
		LinkStateFailed,
	},
	LinkStateAuthorizationRequested: {
		LinkStateAwaitingCallback,
		LinkStateAlreadyConnected,
		LinkStateMockLinked,
		LinkStateFailed,
	},
	LinkStateAwaitingCallback: {
		LinkStateExchangingToken,
		LinkStateFailed,
	},
	LinkStateExchangingToken: {
		LinkStateFetchingProfile,
		LinkStateFailed,
	},
	LinkStateFetchingProfile: {
		LinkStatePersisting,
		LinkStateFailed,
	},
	LinkStatePersisting: {
		LinkStateLinked,
		LinkStateFailed,
	},
	LinkStatePendingConfirmation: {
		LinkStateDisconnected,
		LinkStateIdle,
		LinkStateFailed,
	},
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s LinkState) CanTransitionTo(next LinkState) bool {
	for _, allowed := range linkTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s LinkState) Terminal() bool {
	return len(linkTransitions[s]) == 0
}
