package distribution

import (
	"context"

	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/queuestore"
)

// DistributeSignalReply runs the reply fan-out algorithm (spec §4.3
// "Reply fan-out algorithm. Identical scaffolding; no expansion needed.
// Convert the SignalReply to its scheme once; enqueue to every session
// of every attached CopySetup via add_pending_signal_replies.").
func (e *Engine) DistributeSignalReply(ctx context.Context, reply *domain.SignalReply, chatRoomID int64) {
	copySetups, err := e.Repo.CopySetupsForChatRoom(ctx, chatRoomID)
	if err != nil {
		e.Log.Error("distribution: load copy setups", "chat_room_id", chatRoomID, "error", err)
		return
	}
	if len(copySetups) == 0 {
		return
	}

	scheme := toSignalReplyScheme(reply)

	for _, cs := range copySetups {
		sessions, err := e.Queue.SessionsByCopySetup(ctx, cs.ID, 0)
		if err != nil {
			e.Log.Error("distribution: load sessions", "copy_setup_id", cs.ID, "error", err)
			continue
		}
		for _, sess := range sessions {
			if err := e.Queue.AddPendingSignalReplies(ctx, sess.ClientInstanceID, []queuestore.SignalReplyScheme{scheme}, domain.DefaultSessionTTL); err != nil {
				e.Log.Error("distribution: enqueue pending signal reply", "copy_setup_id", cs.ID, "client_instance_id", sess.ClientInstanceID, "error", err)
			}
		}
	}
	e.notify("signal_reply_distributed", map[string]any{"reply_id": reply.ID, "chat_room_id": chatRoomID})
}
