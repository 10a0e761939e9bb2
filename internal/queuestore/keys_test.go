package queuestore

import "testing"

func TestKeyspaceLayoutWithNamespace(t *testing.T) {
	k := newKeyspace("tradesignal")

	cases := map[string]string{
		k.session("R0"):                     "tradesignal:session:R0",
		k.clientSession("cid-1"):            "tradesignal:client_session:cid-1",
		k.copySetupSessions(7):              "tradesignal:copysetup_sessions:7",
		k.pendingTrade("cid-1", 9):          "tradesignal:pending:cid-1:trades:9",
		k.pendingTradesPattern("cid-1"):     "tradesignal:pending:cid-1:trades:*",
		k.pendingSignalReply("cid-1", 3):   "tradesignal:pending:cid-1:signal_replies:3",
		k.pendingSignalRepliesPattern("cid-1"): "tradesignal:pending:cid-1:signal_replies:*",
	}

	for got, want := range cases {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestKeyspaceLayoutWithoutNamespace(t *testing.T) {
	k := newKeyspace("")
	if got, want := k.session("R0"), "session:R0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
