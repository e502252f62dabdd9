package auth

import "strings"

// Authorization gate decisions. All take validated token claims; callers
// are responsible for having authenticated the request first, so a denial
// here always means "forbidden", never "unauthenticated".

// CanManageAccount reports whether the caller may mutate the target
// account: administrators may manage any account, everyone else only
// their own. Login comparison is case-insensitive.
func CanManageAccount(claims *Claims, targetLogin string) bool {
	if claims == nil {
		return false
	}
	if claims.Admin {
		return true
	}
	return strings.EqualFold(claims.Login, targetLogin)
}

// IsSelf reports whether the caller's login matches the target login,
// case-insensitively. Used by the self-lookup operation, which is not
// extended to administrators.
func IsSelf(claims *Claims, targetLogin string) bool {
	return claims != nil && strings.EqualFold(claims.Login, targetLogin)
}

// IsAdmin reports whether the caller holds the administrator role.
func IsAdmin(claims *Claims) bool {
	return claims != nil && claims.Admin
}
