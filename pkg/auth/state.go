package auth

import (
	"crypto/subtle"
	"encoding/base64"

	"github.com/tendant/scanvault/pkg/session"
)

const stateBytes = 32

// StateKey is the session key holding the pending state for provider.
func StateKey(provider string) string {
	return provider + "_oauth_state"
}

// IssueState generates a fresh state for provider and records it in the
// session, replacing any pending one.
func IssueState(sess *session.Session, provider string) (string, error) {
	b := make([]byte, stateBytes)
	if _, err := randomBytes(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	sess.Set(StateKey(provider), state)
	return state, nil
}

// VerifyState reports whether presented exactly matches the state pending
// for provider. It is false when none is pending.
func VerifyState(sess *session.Session, provider, presented string) bool {
	expected, ok := sess.Get(StateKey(provider))
	if !ok || expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// ConsumeState drops the pending state for provider.
func ConsumeState(sess *session.Session, provider string) {
	sess.Delete(StateKey(provider))
}
