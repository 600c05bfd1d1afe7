package authclient

// SessionStatus enumerates the states a client session can be in.
type SessionStatus string

const (
	// StatusAnonymous means no credential is held.
	StatusAnonymous SessionStatus = "anonymous"
	// StatusPendingVerification means the identity exists but email ownership
	// is unconfirmed; the login is parked until SubmitVerification succeeds.
	StatusPendingVerification SessionStatus = "pending_verification"
	// StatusPending2FA means the password was accepted but a second factor is
	// required before a token is issued.
	StatusPending2FA SessionStatus = "pending_2fa"
	// StatusAuthenticated means a live bearer token is held and attached to
	// outgoing requests.
	StatusAuthenticated SessionStatus = "authenticated"
	// StatusInvalid marks a forced demotion in progress. It is transient: the
	// machine resolves it to StatusAnonymous within the same transition, so
	// snapshots never observe it. It appears only in activity event metadata.
	StatusInvalid SessionStatus = "invalid"
)

// Session is an immutable snapshot of the client's authentication state.
// Reading one never blocks on the network or on in-flight transitions.
type Session struct {
	Status   SessionStatus
	Identity Identity
	// HasToken is true only while Status is StatusAuthenticated. The token
	// itself stays inside the client and the credential store.
	HasToken bool
}

// IsAuthenticated reports whether the session holds a live credential.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// IsPending reports whether a login is parked on a challenge.
func (s Session) IsPending() bool {
	return s.Status == StatusPendingVerification || s.Status == StatusPending2FA
}

// pendingChallenge parks the part of a login that is awaiting email
// verification or a second factor. Present iff the session is pending.
type pendingChallenge struct {
	// Login is the normalized identifier the password was accepted for.
	Login string
	// Email is the address verification codes are sent to, when known.
	Email string
	// IdentityID is the server-side id of the identity, when the login
	// response carried one.
	IdentityID string
}
