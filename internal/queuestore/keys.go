// Package queuestore is the Session & pending-queue store: low-latency
// CRUD for Sessions and PendingItems shared across stateless API workers
// and the distribution engine (spec §4.4).
package queuestore

import "fmt"

// keyspace builds the exact key layout spec §4.4 enumerates, under a
// single configurable namespace prefix (omitted entirely when empty).
type keyspace struct {
	ns string
}

func newKeyspace(ns string) keyspace {
	return keyspace{ns: ns}
}

func (k keyspace) prefix() string {
	if k.ns == "" {
		return ""
	}
	return k.ns + ":"
}

// session:{refresh_token} -> JSON-serialized Session; TTL on set.
func (k keyspace) session(refreshToken string) string {
	return fmt.Sprintf("%ssession:%s", k.prefix(), refreshToken)
}

// client_session:{client_instance_id} -> string refresh_token (forward index).
func (k keyspace) clientSession(clientInstanceID string) string {
	return fmt.Sprintf("%sclient_session:%s", k.prefix(), clientInstanceID)
}

// copysetup_sessions:{copy_setup_id} -> SET of refresh_token (reverse index).
func (k keyspace) copySetupSessions(copySetupID int64) string {
	return fmt.Sprintf("%scopysetup_sessions:%d", k.prefix(), copySetupID)
}

// pending:{client_instance_id}:trades:{trade_id} -> JSON TradeScheme.
func (k keyspace) pendingTrade(clientInstanceID string, tradeID int64) string {
	return fmt.Sprintf("%spending:%s:trades:%d", k.prefix(), clientInstanceID, tradeID)
}

// pending:{client_instance_id}:trades:* scan pattern.
func (k keyspace) pendingTradesPattern(clientInstanceID string) string {
	return fmt.Sprintf("%spending:%s:trades:*", k.prefix(), clientInstanceID)
}

// pending:{client_instance_id}:signal_replies:{reply_id} -> JSON SignalReplyScheme.
func (k keyspace) pendingSignalReply(clientInstanceID string, replyID int64) string {
	return fmt.Sprintf("%spending:%s:signal_replies:%d", k.prefix(), clientInstanceID, replyID)
}

func (k keyspace) pendingSignalRepliesPattern(clientInstanceID string) string {
	return fmt.Sprintf("%spending:%s:signal_replies:*", k.prefix(), clientInstanceID)
}
