package domain

import "time"

// DefaultSessionTTL is the default session time-to-bound (spec §3, §4.4).
const DefaultSessionTTL = 3600 * time.Second

// Session is a per-client authenticated context keyed by a rotating
// refresh token (spec §3). Indexed three ways by the queue store: by
// refresh token, by client instance id, and by copy setup id (spec §4.4).
type Session struct {
	RefreshToken     string
	ClientInstanceID string
	CopySetupID      int64
	ClientIP         string
	PollInterval     int
}
