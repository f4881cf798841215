package sharing

import "time"

// AccessState classifies a visitor's access to a share link. The three
// failure states carry distinct user-facing explanations.
type AccessState string

const (
	// AccessInvalid covers unknown tokens; the message stays generic so
	// tokens cannot be probed apart from expired ones.
	AccessInvalid AccessState = "invalid"
	// AccessExpired covers links whose expiry timestamp has passed.
	AccessExpired AccessState = "expired"
	// AccessPrivate covers links the owner has switched off.
	AccessPrivate AccessState = "private"
	// AccessValid grants settings-gated read access.
	AccessValid AccessState = "valid"
)

// ClassifyAccess runs the read-time state machine over a share record.
// Expiry is checked before the public flag: an expired link classifies as
// Expired even when it is still marked public.
func ClassifyAccess(link *ShareLink, now time.Time) AccessState {
	if link == nil {
		return AccessInvalid
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
		return AccessExpired
	}
	if !link.IsPublic {
		return AccessPrivate
	}
	return AccessValid
}
