package auth

import "errors"

// The three externally observable failures. Each one deliberately
// collapses every underlying cause into a single error so callers
// cannot distinguish "no such user" from "wrong password", or "revoked"
// from "expired" from "unknown token".
var (
	// ErrAuthenticationFailed is returned for any bad email/password
	// combination.
	ErrAuthenticationFailed = errors.New("invalid credentials")

	// ErrRefreshInvalid is returned for any unusable refresh token:
	// unknown, expired, revoked, or detected as reused.
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")

	// ErrTokenInvalid is returned for any access token that fails
	// verification, regardless of which check failed.
	ErrTokenInvalid = errors.New("could not validate credentials")
)

// ErrTokenClaimed is returned by the refresh store when a rotation
// loses the race for a token that another request (or an attacker)
// already consumed.
var ErrTokenClaimed = errors.New("refresh token already claimed")
