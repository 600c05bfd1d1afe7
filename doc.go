// Package authclient manages the authentication session of a Go application
// that talks to a remote bearer-token API: login, email verification,
// two-factor challenges, recovery codes, logout, and forced demotion when the
// server rejects a credential.
//
// Session lifecycle:
//   - A single Session per Client carries a SessionStatus (anonymous,
//     pending-verification, pending-2fa, authenticated, invalid). All mutation
//     funnels through an internal state machine so illegal combinations (a
//     token outside the authenticated state, a pending challenge outside the
//     pending states) are unrepresentable.
//   - The credential store (credstore package) is the durable projection of
//     the session. It is written only as a transition side effect and is the
//     single source of truth at cold start: Hydrate restores an optimistic
//     authenticated session without a network round trip, and the first 401
//     demotes it exactly once.
//
// Request authorization:
//   - Authorizer is an http.RoundTripper that attaches the current bearer
//     token to outgoing requests and reports 401 responses back to the
//     session exactly once per credential, so N concurrent rejections produce
//     a single demotion. Transport failures never touch the session; they are
//     surfaced as a distinct connectivity condition.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the state machine
//     and the auth flows to describe status changes, login outcomes, and
//     demotions. Sinks run best-effort (errors are logged) so you can forward
//     events to a queue or metrics pipeline without blocking authentication.
package authclient
