package service

import "errors"

// Account service errors. These sit on top of the store sentinels and
// carry the business-level failure signals of the account lifecycle.
var (
	// ErrLoginTaken is returned by Create when the requested login is
	// already held by any account, active or revoked.
	ErrLoginTaken = errors.New("login already taken")

	// ErrLoginConflict is returned by ChangeLogin when the new login is
	// already taken, or when the old login is missing or revoked. The two
	// causes are deliberately indistinguishable to callers.
	ErrLoginConflict = errors.New("login change conflict")
)
