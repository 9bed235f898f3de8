package greader

import (
	"context"
	"hash/fnv"

	"yana/internal/handler/http/auth"
)

// userID derives a stable numeric domain user id from the authenticated
// principal's email. The ambient auth layer (hauth.MultiUserAuthProvider)
// identifies callers by a fixed admin/viewer email pair rather than a
// users table, so there is no numeric id to read off the JWT claims;
// hashing the email gives every request for the same principal the same
// Feed.UserID-compatible int64 without introducing a separate user-account
// subsystem.
func userID(ctx context.Context) int64 {
	email := auth.UserFromContext(ctx)
	h := fnv.New64a()
	_, _ = h.Write([]byte(email))
	return int64(h.Sum64() >> 1) // clear the sign bit: Feed.UserID is a positive identifier
}
