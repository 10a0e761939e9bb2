package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/tradesignal-core/internal/chatsource"
	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/extract"
)

// fakeRepo is an in-memory stand-in for *repository.Store, sized to
// exactly what the lifecycle state machine calls (the Repository
// interface in processor.go).
type fakeRepo struct {
	room       *domain.ChatRoom
	copySetups []*domain.CopySetup
	configs    map[int64]domain.CopySetupConfig

	messagesByExternal map[string]*domain.Message
	signalsByID        map[int64]*domain.Signal
	signalsByMessage   map[int64]*domain.Signal
	replies            []*domain.SignalReply

	nextMessageID int64
	nextSignalID  int64
	nextReplyID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		configs:            map[int64]domain.CopySetupConfig{},
		messagesByExternal: map[string]*domain.Message{},
		signalsByID:        map[int64]*domain.Signal{},
		signalsByMessage:   map[int64]*domain.Signal{},
	}
}

func (f *fakeRepo) UpsertChatRoom(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error) {
	return f.room, nil
}

func (f *fakeRepo) CopySetupsForChatRoom(ctx context.Context, chatRoomID int64) ([]*domain.CopySetup, error) {
	return f.copySetups, nil
}

func (f *fakeRepo) CopySetupWithConfig(ctx context.Context, id int64) (*domain.CopySetup, domain.CopySetupConfig, error) {
	for _, cs := range f.copySetups {
		if cs.ID == id {
			return cs, f.configs[id], nil
		}
	}
	return nil, domain.CopySetupConfig{}, fmt.Errorf("%w: copy setup %d", domain.ErrNotFound, id)
}

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

func (f *fakeRepo) MessageByExternalID(ctx context.Context, chatRoomID int64, externalMessageID string) (*domain.Message, error) {
	key := fmt.Sprintf("%d:%s", chatRoomID, externalMessageID)
	msg, ok := f.messagesByExternal[key]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, externalMessageID)
	}
	return msg, nil
}

func (f *fakeRepo) UpsertMessage(sessCtx context.Context, m *domain.Message) (*domain.Message, error) {
	if m.ID == 0 {
		f.nextMessageID++
		m.ID = f.nextMessageID
	}
	key := fmt.Sprintf("%d:%s", m.ChatRoomID, m.ExternalMessageID)
	f.messagesByExternal[key] = m
	return m, nil
}

func (f *fakeRepo) CreateSignal(sessCtx context.Context, sig *domain.Signal) error {
	f.nextSignalID++
	sig.ID = f.nextSignalID
	f.signalsByID[sig.ID] = sig
	f.signalsByMessage[sig.MessageID] = sig
	return nil
}

func (f *fakeRepo) ReplaceSignal(sessCtx context.Context, sig *domain.Signal) error {
	f.signalsByID[sig.ID] = sig
	f.signalsByMessage[sig.MessageID] = sig
	return nil
}

func (f *fakeRepo) SignalByID(ctx context.Context, id int64) (*domain.Signal, error) {
	sig, ok := f.signalsByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: signal %d", domain.ErrNotFound, id)
	}
	return sig, nil
}

func (f *fakeRepo) SignalByMessageID(ctx context.Context, messageID int64) (*domain.Signal, error) {
	sig, ok := f.signalsByMessage[messageID]
	if !ok {
		return nil, fmt.Errorf("%w: signal for message %d", domain.ErrNotFound, messageID)
	}
	return sig, nil
}

func (f *fakeRepo) LinkMessageToSignal(sessCtx context.Context, messageID, signalID int64) error {
	for _, m := range f.messagesByExternal {
		if m.ID == messageID {
			m.SignalID = &signalID
		}
	}
	return nil
}

func (f *fakeRepo) CreateSignalReply(sessCtx context.Context, reply *domain.SignalReply) error {
	f.nextReplyID++
	reply.ID = f.nextReplyID
	f.replies = append(f.replies, reply)
	return nil
}

func (f *fakeRepo) LinkMessageToSignalReply(sessCtx context.Context, messageID, replyID int64) error {
	for _, m := range f.messagesByExternal {
		if m.ID == messageID {
			m.SignalReplyID = &replyID
		}
	}
	return nil
}

// fakeExtractor returns a canned ExtractionResult regardless of input,
// letting tests drive the state machine without the manual parser.
type fakeExtractor struct {
	result extract.ExtractionResult
}

func (f *fakeExtractor) Run(ctx context.Context, text string, synonymIndex map[string]string, replyTo *domain.Signal) extract.ExtractionResult {
	return f.result
}

// fakeDistributor records what the state machine handed it post-commit.
type fakeDistributor struct {
	signalCalls int
	replyCalls  int
}

func (f *fakeDistributor) DistributeSignal(ctx context.Context, signal *domain.Signal, chatRoomID int64) {
	f.signalCalls++
}

func (f *fakeDistributor) DistributeSignalReply(ctx context.Context, reply *domain.SignalReply, chatRoomID int64) {
	f.replyCalls++
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleSignal() *domain.Signal {
	return &domain.Signal{
		Symbol:  "EURUSD",
		Side:    domain.SideBuy,
		Entries: []decimal.Decimal{dec("1.1000")},
		TPs:     []decimal.Decimal{dec("1.1100")},
		SL:      dec("1.0950"),
	}
}

func newTestProcessor(repo *fakeRepo, ex *fakeExtractor, dist *fakeDistributor) *Processor {
	return NewProcessor(repo, ex, dist, slog.Default())
}

// TestProcessEditedMessageUnchangedSignalSkipsDistribution covers spec §8
// testable property 8: editing a Message that re-extracts to an
// identical Signal persists the replacement but never distributes.
func TestProcessEditedMessageUnchangedSignalSkipsDistribution(t *testing.T) {
	repo := newFakeRepo()
	room := &domain.ChatRoom{ID: 1, ExternalID: "chat-1", AllowedSymbols: map[string][]string{"EURUSD": nil}}
	repo.room = room
	cs := &domain.CopySetup{ID: 1, Active: true, ChatRoomIDs: []int64{1}}
	repo.copySetups = []*domain.CopySetup{cs}

	existingSignal := sampleSignal()
	existingSignal.ID = 1
	existingSignal.MessageID = 1
	repo.signalsByID[1] = existingSignal

	signalID := int64(1)
	existingMsg := &domain.Message{ID: 1, ChatRoomID: 1, ExternalMessageID: "msg-1", Text: "original text", SignalID: &signalID}
	repo.messagesByExternal["1:msg-1"] = existingMsg
	repo.signalsByMessage[1] = existingSignal

	ex := &fakeExtractor{result: extract.ExtractionResult{Kind: extract.ResultSignal, Signal: sampleSignal()}}
	dist := &fakeDistributor{}
	p := newTestProcessor(repo, ex, dist)

	ev := chatsource.Event{Kind: chatsource.EventEdited, ChatExternalID: "chat-1", MessageExternalID: "msg-1", Text: "buy eurusd @ 1.1000 tp 1.1100 sl 1.0950 reworded"}
	p.Process(context.Background(), ev)

	if dist.signalCalls != 0 {
		t.Fatalf("got %d DistributeSignal calls, want 0 for an unchanged re-extraction", dist.signalCalls)
	}
	if repo.signalsByID[1].Symbol != "EURUSD" {
		t.Fatal("expected the replacement signal to still be persisted")
	}
}

// TestProcessEditedMessageChangedSignalDistributes is the counterpart:
// a genuinely different re-extraction still distributes.
func TestProcessEditedMessageChangedSignalDistributes(t *testing.T) {
	repo := newFakeRepo()
	room := &domain.ChatRoom{ID: 1, ExternalID: "chat-1", AllowedSymbols: map[string][]string{"EURUSD": nil}}
	repo.room = room
	cs := &domain.CopySetup{ID: 1, Active: true, ChatRoomIDs: []int64{1}}
	repo.copySetups = []*domain.CopySetup{cs}

	existingSignal := sampleSignal()
	existingSignal.ID = 1
	existingSignal.MessageID = 1
	repo.signalsByID[1] = existingSignal

	signalID := int64(1)
	existingMsg := &domain.Message{ID: 1, ChatRoomID: 1, ExternalMessageID: "msg-1", Text: "original text", SignalID: &signalID}
	repo.messagesByExternal["1:msg-1"] = existingMsg
	repo.signalsByMessage[1] = existingSignal

	changed := sampleSignal()
	changed.SL = dec("1.0900") // a genuinely different stop loss
	ex := &fakeExtractor{result: extract.ExtractionResult{Kind: extract.ResultSignal, Signal: changed}}
	dist := &fakeDistributor{}
	p := newTestProcessor(repo, ex, dist)

	ev := chatsource.Event{Kind: chatsource.EventEdited, ChatExternalID: "chat-1", MessageExternalID: "msg-1", Text: "buy eurusd @ 1.1000 tp 1.1100 sl 1.0900"}
	p.Process(context.Background(), ev)

	if dist.signalCalls != 1 {
		t.Fatalf("got %d DistributeSignal calls, want 1 for a changed re-extraction", dist.signalCalls)
	}
}

// TestProcessNewMessageMergesSynonymOverridesAcrossCopySetups covers
// SPEC_FULL §C.2: the synonym override threaded into extraction is the
// union across every CopySetup attached to the room, not nil.
func TestProcessNewMessageMergesSynonymOverridesAcrossCopySetups(t *testing.T) {
	repo := newFakeRepo()
	room := &domain.ChatRoom{ID: 1, ExternalID: "chat-1", AllowedSymbols: map[string][]string{"EURUSD": nil}}
	repo.room = room
	csA := &domain.CopySetup{ID: 1, Active: true, ChatRoomIDs: []int64{1}}
	csB := &domain.CopySetup{ID: 2, Active: true, ChatRoomIDs: []int64{1}}
	repo.copySetups = []*domain.CopySetup{csA, csB}
	repo.configs[1] = domain.CopySetupConfig{SymbolSynonymOverrides: map[string][]string{"EURUSD": {"FIBER"}}}
	repo.configs[2] = domain.CopySetupConfig{SymbolSynonymOverrides: map[string][]string{"EURUSD": {"EU"}}}

	merged, err := (&Processor{Repo: repo, Log: slog.Default()}).mergedSynonymOverrides(context.Background(), repo.copySetups)
	if err != nil {
		t.Fatalf("mergedSynonymOverrides: %v", err)
	}
	if len(merged["EURUSD"]) != 2 {
		t.Fatalf("expected synonyms from both copy setups to merge, got %v", merged["EURUSD"])
	}
}
