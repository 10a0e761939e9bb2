// Package lifecycle translates chat events into Signals and
// SignalReplies, maintaining referential integrity before handing off to
// distribution (spec §4.2).
package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ndrandal/tradesignal-core/internal/chatsource"
	"github.com/ndrandal/tradesignal-core/internal/distribution"
	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/extract"
	"github.com/ndrandal/tradesignal-core/internal/repository"
)

// Repository is the subset of *repository.Store the lifecycle state
// machine needs. Narrowed to an interface so tests can exercise the
// state machine against an in-memory fake instead of a live MongoDB
// (the small-interface-behind-one-production-implementation convention
// already used by chatsource.Source).
type Repository interface {
	UpsertChatRoom(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error)
	CopySetupsForChatRoom(ctx context.Context, chatRoomID int64) ([]*domain.CopySetup, error)
	CopySetupWithConfig(ctx context.Context, id int64) (*domain.CopySetup, domain.CopySetupConfig, error)
	WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (any, error)) (any, error)
	MessageByExternalID(ctx context.Context, chatRoomID int64, externalMessageID string) (*domain.Message, error)
	UpsertMessage(sessCtx context.Context, m *domain.Message) (*domain.Message, error)
	CreateSignal(sessCtx context.Context, sig *domain.Signal) error
	ReplaceSignal(sessCtx context.Context, sig *domain.Signal) error
	SignalByID(ctx context.Context, id int64) (*domain.Signal, error)
	SignalByMessageID(ctx context.Context, messageID int64) (*domain.Signal, error)
	LinkMessageToSignal(sessCtx context.Context, messageID, signalID int64) error
	CreateSignalReply(sessCtx context.Context, reply *domain.SignalReply) error
	LinkMessageToSignalReply(sessCtx context.Context, messageID, replyID int64) error
}

// Extractor is the subset of *extract.Pipeline the state machine calls.
type Extractor interface {
	Run(ctx context.Context, text string, synonymIndex map[string]string, replyTo *domain.Signal) extract.ExtractionResult
}

// Distributor is the subset of *distribution.Engine the state machine
// calls after a transaction commits.
type Distributor interface {
	DistributeSignal(ctx context.Context, signal *domain.Signal, chatRoomID int64)
	DistributeSignalReply(ctx context.Context, reply *domain.SignalReply, chatRoomID int64)
}

var (
	_ Repository  = (*repository.Store)(nil)
	_ Extractor   = (*extract.Pipeline)(nil)
	_ Distributor = (*distribution.Engine)(nil)
)

// Processor is the message lifecycle state machine (spec §4.2's table).
type Processor struct {
	Repo         Repository
	Pipeline     Extractor
	Distribution Distributor
	Log          *slog.Logger
}

// NewProcessor builds a Processor.
func NewProcessor(repo Repository, pipeline Extractor, dist Distributor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Repo: repo, Pipeline: pipeline, Distribution: dist, Log: logger}
}

// Process handles one chat event end to end: preconditions, the state
// machine, persistence inside a single transaction, then distribution
// after commit (spec §4.2 Transactionality: "distribution happens after
// the transaction commits; distribution failures never roll back the
// persisted state").
func (p *Processor) Process(ctx context.Context, ev chatsource.Event) {
	if len(ev.Text) < domain.MinTextLen || len(ev.Text) > domain.MaxTextLen {
		return // spec §8 invariant 10: boundary text lengths rejected before extraction
	}

	room, err := p.Repo.UpsertChatRoom(ctx, &domain.ChatRoom{ExternalID: ev.ChatExternalID})
	if err != nil {
		p.Log.Error("lifecycle: upsert chat room", "chat_external_id", ev.ChatExternalID, "error", err)
		return
	}

	copySetups, err := p.Repo.CopySetupsForChatRoom(ctx, room.ID)
	if err != nil {
		p.Log.Error("lifecycle: load copy setups", "chat_room_id", room.ID, "error", err)
		return
	}
	if len(copySetups) == 0 {
		return // acknowledged but ignored: no extraction, no writes
	}

	overrides, err := p.mergedSynonymOverrides(ctx, copySetups)
	if err != nil {
		p.Log.Error("lifecycle: load copy setup configs", "chat_room_id", room.ID, "error", err)
		return
	}

	outcome, err := p.runTransaction(ctx, room, ev, overrides)
	if err != nil {
		p.Log.Error("lifecycle: event aborted", "chat_id", room.ID, "message_external_id", ev.MessageExternalID, "error", err)
		return
	}
	if outcome == nil {
		return
	}

	switch {
	case outcome.signal != nil:
		p.Distribution.DistributeSignal(ctx, outcome.signal, room.ID)
	case outcome.reply != nil:
		p.Distribution.DistributeSignalReply(ctx, outcome.reply, room.ID)
	}
}

// transactionOutcome carries the one signal or reply produced by an
// event, read back out of the WithTransaction closure.
type transactionOutcome struct {
	signal *domain.Signal
	reply  *domain.SignalReply
}

func (p *Processor) runTransaction(ctx context.Context, room *domain.ChatRoom, ev chatsource.Event, overrides map[string][]string) (*transactionOutcome, error) {
	result, err := p.Repo.WithTransaction(ctx, func(sessCtx context.Context) (any, error) {
		return p.handleEvent(sessCtx, room, ev, overrides)
	})
	if err != nil {
		return nil, err
	}
	outcome, _ := result.(*transactionOutcome)
	return outcome, nil
}

// mergedSynonymOverrides unions the per-symbol synonym overrides across
// every CopySetup attached to the chat room (SPEC_FULL §C.2), the way
// original_source/server/backend/messages/helpers.py's get_symbol_map()
// accumulates synonyms from each attached CopySetup's config rather than
// from a single one.
func (p *Processor) mergedSynonymOverrides(ctx context.Context, copySetups []*domain.CopySetup) (map[string][]string, error) {
	out := map[string][]string{}
	seen := map[string]map[string]bool{}

	for _, cs := range copySetups {
		_, cfg, err := p.Repo.CopySetupWithConfig(ctx, cs.ID)
		if err != nil {
			return nil, err
		}
		for canonical, synonyms := range cfg.SymbolSynonymOverrides {
			if seen[canonical] == nil {
				seen[canonical] = map[string]bool{}
			}
			for _, syn := range synonyms {
				if seen[canonical][syn] {
					continue
				}
				seen[canonical][syn] = true
				out[canonical] = append(out[canonical], syn)
			}
		}
	}
	return out, nil
}

func (p *Processor) handleEvent(sessCtx context.Context, room *domain.ChatRoom, ev chatsource.Event, overrides map[string][]string) (*transactionOutcome, error) {
	existing, err := p.Repo.MessageByExternalID(sessCtx, room.ID, ev.MessageExternalID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	switch ev.Kind {
	case chatsource.EventDeleted:
		return p.handleDeleted(sessCtx, existing)
	default: // new and edited share the same state-machine path (spec §4.2 table)
		return p.handleUpsert(sessCtx, room, ev, existing, overrides)
	}
}

// handleUpsert covers the "new" and "edited" rows of spec §4.2's table:
// NONE -> upsert, then dispatch to the signal or reply path; edited +
// SIGNAL_LINKED re-extracts and overwrites in place.
func (p *Processor) handleUpsert(sessCtx context.Context, room *domain.ChatRoom, ev chatsource.Event, existing *domain.Message, overrides map[string][]string) (*transactionOutcome, error) {
	msg := &domain.Message{
		ChatRoomID:        room.ID,
		ExternalMessageID: ev.MessageExternalID,
		Text:              ev.Text,
		PostTime:          ev.PostTime.UTC(),
	}
	if existing != nil {
		msg.ID = existing.ID
		msg.SignalID = existing.SignalID
		msg.SignalReplyID = existing.SignalReplyID
	}

	msg, err := p.Repo.UpsertMessage(sessCtx, msg)
	if err != nil {
		return nil, err
	}

	synonymIndex := extract.BuildSynonymIndex(room, overrides)

	if ev.ReplyToExternalID != "" {
		return p.runReplyPath(sessCtx, room, msg, ev.ReplyToExternalID, synonymIndex)
	}

	if msg.State() == domain.MessageStateSignalLinked && existing != nil {
		return p.reExtractSignal(sessCtx, msg, synonymIndex)
	}

	return p.runSignalPath(sessCtx, msg, synonymIndex)
}

// runSignalPath implements spec §4.2.S: extract, on success persist
// Signal, link Message -> Signal.
func (p *Processor) runSignalPath(sessCtx context.Context, msg *domain.Message, synonymIndex map[string]string) (*transactionOutcome, error) {
	result := p.Pipeline.Run(sessCtx, msg.Text, synonymIndex, nil)
	if result.Kind != extract.ResultSignal {
		return nil, nil // None is normal, not an error (spec §4.2 Failure semantics)
	}

	result.Signal.MessageID = msg.ID
	if err := p.Repo.CreateSignal(sessCtx, result.Signal); err != nil {
		return nil, err
	}
	if err := p.Repo.LinkMessageToSignal(sessCtx, msg.ID, result.Signal.ID); err != nil {
		return nil, err
	}
	return &transactionOutcome{signal: result.Signal}, nil
}

// reExtractSignal implements spec §4.2's edited/SIGNAL_LINKED row:
// re-extract; if a new Signal results, overwrite the existing row in
// place, preserving identity.
func (p *Processor) reExtractSignal(sessCtx context.Context, msg *domain.Message, synonymIndex map[string]string) (*transactionOutcome, error) {
	existingSignal, err := p.Repo.SignalByMessageID(sessCtx, msg.ID)
	if err != nil {
		return nil, err
	}

	result := p.Pipeline.Run(sessCtx, msg.Text, synonymIndex, nil)
	if result.Kind != extract.ResultSignal {
		return nil, nil
	}

	unchanged := result.Signal.Equal(existingSignal)

	result.Signal.ID = existingSignal.ID
	result.Signal.MessageID = msg.ID
	if err := p.Repo.ReplaceSignal(sessCtx, result.Signal); err != nil {
		return nil, err
	}
	if unchanged {
		// Same trade intent re-extracted: persisted for identity/audit
		// continuity, but no distribution (spec §8 testable property 8).
		return nil, nil
	}
	return &transactionOutcome{signal: result.Signal}, nil
}

// runReplyPath implements spec §4.2.R: require reply_to resolves to a
// Message with a Signal; extract a reply action against that Signal; on
// success persist SignalReply{generated_by=REPLY}, link Message.
func (p *Processor) runReplyPath(sessCtx context.Context, room *domain.ChatRoom, msg *domain.Message, replyToExternalID string, synonymIndex map[string]string) (*transactionOutcome, error) {
	target, err := p.Repo.MessageByExternalID(sessCtx, room.ID, replyToExternalID)
	if err != nil {
		return nil, nil // reply_to doesn't resolve: not an error, just no reply path (spec §4.2.R precondition)
	}
	if target.SignalID == nil {
		return nil, nil
	}

	originalSignal, err := p.Repo.SignalByID(sessCtx, *target.SignalID)
	if err != nil {
		return nil, err
	}

	result := p.Pipeline.Run(sessCtx, msg.Text, synonymIndex, originalSignal)
	if result.Kind != extract.ResultReply {
		return nil, nil
	}

	result.Reply.MessageID = msg.ID
	if err := p.Repo.CreateSignalReply(sessCtx, result.Reply); err != nil {
		return nil, err
	}
	if err := p.Repo.LinkMessageToSignalReply(sessCtx, msg.ID, result.Reply.ID); err != nil {
		return nil, err
	}
	return &transactionOutcome{reply: result.Reply}, nil
}

// handleDeleted implements spec §4.2's deleted/SIGNAL_LINKED row:
// synthesize SignalReply{action=CLOSE, generated_by=DELETE} linked to
// the original Signal; deleted/other is a no-op.
func (p *Processor) handleDeleted(sessCtx context.Context, existing *domain.Message) (*transactionOutcome, error) {
	if existing == nil || existing.State() != domain.MessageStateSignalLinked {
		return nil, nil
	}

	reply := &domain.SignalReply{
		MessageID:        existing.ID,
		Action:           domain.ReplyActionClose,
		GeneratedBy:      domain.GeneratedByDelete,
		OriginalSignalID: *existing.SignalID,
	}
	if err := p.Repo.CreateSignalReply(sessCtx, reply); err != nil {
		return nil, err
	}
	if err := p.Repo.LinkMessageToSignalReply(sessCtx, existing.ID, reply.ID); err != nil {
		return nil, err
	}
	return &transactionOutcome{reply: reply}, nil
}
