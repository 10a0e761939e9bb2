package domain

// PendingItemKind distinguishes the two queues a client drains (spec §3).
type PendingItemKind string

const (
	PendingItemKindTrade PendingItemKind = "trade"
	PendingItemKindReply PendingItemKind = "reply"
)

// MaxPollItems bounds how many pending trades/replies a single poll
// returns (spec §4.5: "read up to 100 pending trades and 100 pending
// replies").
const MaxPollItems = 100
