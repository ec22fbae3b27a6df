package session

// Session is the record stored under prefix:<id>. Times are unix seconds;
// ExpiresAt is zero when the store applies no expiry.
type Session struct {
	SessionID string
	UserID    string
	CreatedAt int64
	ExpiresAt int64
}
