package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/queuestore"
)

// handleClientInit implements POST /client/init (spec §4.5): resolve
// the CopySetup by token, mint a refresh token, persist a Session,
// respond with a projection of the CopySetupConfig.
func (s *Server) handleClientInit(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-CopySetup-Token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing X-CopySetup-Token header")
		return
	}

	var body ClientInitBody
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cs, cfg, err := s.Repo.CopySetupByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unknown copy setup token")
			return
		}
		s.Log.Error("httpapi: resolve copy setup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	clientInstanceID := body.ClientInstanceID
	if clientInstanceID == "" {
		clientInstanceID = "cid-" + uuid.NewString()
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		s.Log.Error("httpapi: mint refresh token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ttl := domain.DefaultSessionTTL
	if body.PollInterval > 0 {
		// poll_interval is a hint for the client's cadence, not the TTL;
		// the TTL stays the process default so stale clients still expire.
		_ = body.PollInterval
	}

	sess := domain.Session{
		RefreshToken:     refreshToken,
		ClientInstanceID: clientInstanceID,
		CopySetupID:      cs.ID,
		ClientIP:         clientIP(r),
		PollInterval:     body.PollInterval,
	}
	if err := s.Queue.AddSession(ctx, sess, ttl); err != nil {
		s.Log.Error("httpapi: persist session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, ClientInitResponse{
		ClientInstanceID:                   clientInstanceID,
		RefreshToken:                       refreshToken,
		ExpireSec:                          int(ttl.Seconds()),
		ServerCaps:                         map[string]any{"version": 1},
		LotMode:                            cfg.LotMode,
		FixedLot:                           cfg.FixedLot,
		BreakevenOnTPLayer:                 cfg.BreakevenOnTPLayer,
		CloseTradesBeforeEverydaySwap:      cfg.CloseTradesBeforeEverydaySwap,
		CloseTradesBeforeWednesdaySwap:     cfg.CloseTradesBeforeWednesdaySwap,
		CloseTradesBeforeWeekend:           cfg.CloseTradesBeforeWeekend,
		TrailingStopOnTPs:                  cfg.TrailingStopOnTPs,
		TradeProfitPercentFromBalanceForBE: cfg.TradeProfitPercentFromBalanceForBE,
		ExpireMinutesPendingTrade:          cfg.ExpireMinutesPendingTrade,
		ExpireMinutesActiveTrade:           cfg.ExpireMinutesActiveTrade,
		ExpireAtTPHitBeforeEntry:           cfg.ExpireAtTPHitBeforeEntry,
	})
}

// handlePoll implements POST /poll (spec §4.5): rotate the session,
// drain acks, read up to 100 pending trades and 100 pending replies.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.Header.Get("X-Refresh-Token")
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "missing X-Refresh-Token header")
		return
	}

	var body PollBody
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, err := s.Queue.GetSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, queuestore.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "unknown or expired refresh token")
			return
		}
		s.Log.Error("httpapi: load session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	newToken, err := newRefreshToken()
	if err != nil {
		s.Log.Error("httpapi: mint refresh token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rotated := sess
	rotated.RefreshToken = newToken
	if err := s.Queue.UpdateSession(ctx, refreshToken, rotated, domain.DefaultSessionTTL); err != nil {
		s.Log.Error("httpapi: rotate session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if len(body.TradeAckIDs) > 0 {
		if err := s.Queue.DeletePendingTrades(ctx, sess.ClientInstanceID, body.TradeAckIDs); err != nil {
			s.Log.Error("httpapi: ack pending trades", "error", err)
		}
	}
	if len(body.SignalReplyAckIDs) > 0 {
		if err := s.Queue.DeletePendingSignalReplies(ctx, sess.ClientInstanceID, body.SignalReplyAckIDs); err != nil {
			s.Log.Error("httpapi: ack pending signal replies", "error", err)
		}
	}

	// body.Trades (client-uploaded trade state) is logged, as a count
	// only, for observability; it is not persisted and has no downstream
	// effect.
	if len(body.Trades) > 0 {
		s.Log.Info("httpapi: client trade state", "client_instance_id", sess.ClientInstanceID, "count", len(body.Trades))
	}

	const maxItems = 100
	pendingTrades, err := s.Queue.PendingTrades(ctx, sess.ClientInstanceID, maxItems)
	if err != nil {
		s.Log.Error("httpapi: load pending trades", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	pendingReplies, err := s.Queue.PendingSignalReplies(ctx, sess.ClientInstanceID, maxItems)
	if err != nil {
		s.Log.Error("httpapi: load pending signal replies", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, PollResponse{
		RefreshToken:  newToken,
		Trades:        toWireTrades(pendingTrades),
		SignalReplies: toWireReplies(pendingReplies),
	})
}

func toWireTrades(schemes []queuestore.TradeScheme) []Trade {
	out := make([]Trade, len(schemes))
	for i, t := range schemes {
		out[i] = Trade{
			ID:                 t.ID,
			SignalID:           t.SignalID,
			Symbol:             t.Symbol,
			Type:               t.Type,
			EntryPrice:         t.EntryPrice,
			TPPrice:            t.TPPrice,
			SLPrice:            t.SLPrice,
			SignalPostDatetime: t.SignalPostDatetime,
			State:              t.State,
			SignalTPsIdx:       t.SignalTPsIdx,
			SignalEntriesIdx:   t.SignalEntriesIdx,
		}
	}
	return out
}

func toWireReplies(schemes []queuestore.SignalReplyScheme) []SignalReply {
	out := make([]SignalReply, len(schemes))
	for i, r := range schemes {
		out[i] = SignalReply{
			ID:               r.ID,
			Action:           r.Action,
			GeneratedBy:      r.GeneratedBy,
			OriginalSignalID: r.OriginalSignalID,
			InfoMessage:      r.InfoMessage,
		}
	}
	return out
}

// newRefreshToken mints a cryptographically random, URL-safe token of
// at least 16 bytes (spec §4.5).
func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// clientIP extracts the caller's address, preferring a proxy header if
// present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
