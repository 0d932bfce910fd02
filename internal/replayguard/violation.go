package replayguard

import "github.com/trajectly/trajectly/internal/verdict"

// CodeNetworkBlocked is the TOOLING-class code the orchestrator
// attaches when a replay's own network guard refuses a connection.
// It is distinct from CONTRACT_NETWORK_DENIED: the contract code is a
// post-hoc read of a recorded event's destination field against
// policy, while this one fires at the moment a live socket or DNS
// call was actually attempted during an offline replay.
const CodeNetworkBlocked = "REPLAY_NETWORK_BLOCKED"

// Violation translates a blocked network attempt into the TOOLING
// violation anchored at the event index of the call that attempted it.
func Violation(err error, eventIndex int) (verdict.Violation, bool) {
	be, ok := err.(BlockedError)
	if !ok {
		return verdict.Violation{}, false
	}
	return verdict.Violation{
		Class:      verdict.ClassTooling,
		Code:       CodeNetworkBlocked,
		EventIndex: eventIndex,
		Message:    be.Error(),
		Detail:     be.Host,
	}, true
}
