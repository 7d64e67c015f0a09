package constants

// SessionState is the review state of a candidate record.
type SessionState string

const (
	SessionDraft      SessionState = "DRAFT"      // extracted, review not started
	SessionReviewing  SessionState = "REVIEWING"  // findings outstanding
	SessionClean      SessionState = "CLEAN"      // nothing outstanding
	SessionOverridden SessionState = "OVERRIDDEN" // remaining findings accepted by the reviewer
	SessionAbandoned  SessionState = "ABANDONED"
	SessionCommitted  SessionState = "COMMITTED"
)

// Terminal reports whether no further transition is possible.
func (s SessionState) Terminal() bool {
	return s == SessionAbandoned || s == SessionCommitted
}

// Committable reports whether the commit gate accepts a record in this state.
func (s SessionState) Committable() bool {
	return s == SessionClean || s == SessionOverridden
}
