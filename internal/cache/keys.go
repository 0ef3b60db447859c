package cache

import (
	"fmt"
	"time"
)

const (
	// IndexPagePrefix namespaces cached renders of the home listing.
	IndexPagePrefix = "index_page"

	revokedTokenPrefix = "revoked_token:"
)

// IndexPageKey identifies one cached render of the home listing. The viewer is
// part of the key because the page header differs per session.
func IndexPageKey(viewerID uint, page string) string {
	if page == "" {
		page = "1"
	}
	return fmt.Sprintf("%s:%d:%s", IndexPagePrefix, viewerID, page)
}

// RevokedTokenKey marks a logged-out access token.
func RevokedTokenKey(jti string) string {
	return revokedTokenPrefix + jti
}

// RevocationTTL keeps a revocation marker until the token would have expired anyway.
func RevocationTTL(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}
