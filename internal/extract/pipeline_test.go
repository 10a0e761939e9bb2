package extract

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(nil, slog.Default())
}

func TestPipelineRunExtractsSignalFromManualParse(t *testing.T) {
	p := newTestPipeline()
	synonymIndex := map[string]string{"EURUSD": "EURUSD"}

	text := "BUY EURUSD @ 1.1000 TP 1.1100 TP 1.1200 SL 1.0950"
	result := p.Run(context.Background(), text, synonymIndex, nil)

	if result.Kind != ResultSignal {
		t.Fatalf("got kind %v, want ResultSignal", result.Kind)
	}
	if result.Signal.Symbol != "EURUSD" || result.Signal.Side != domain.SideBuy {
		t.Fatalf("unexpected signal: %+v", result.Signal)
	}
	if len(result.Signal.Entries) != 1 || len(result.Signal.TPs) != 2 {
		t.Fatalf("unexpected price counts: entries=%d tps=%d", len(result.Signal.Entries), len(result.Signal.TPs))
	}
}

func TestPipelineRunNoMatchWithoutAIClient(t *testing.T) {
	p := newTestPipeline()
	synonymIndex := map[string]string{"EURUSD": "EURUSD"}

	// Missing SL and TP: 2 validation errors, below StageBThreshold, but
	// AI is nil so Stage B never runs and the result must be NoMatch.
	text := "BUY EURUSD @ 1.1000"
	result := p.Run(context.Background(), text, synonymIndex, nil)

	if result.Kind != ResultNoMatch {
		t.Fatalf("got kind %v, want ResultNoMatch", result.Kind)
	}
}

func TestPipelineRunReplyMatchesCloseKeyword(t *testing.T) {
	p := newTestPipeline()
	original := &domain.Signal{ID: 7, Symbol: "EURUSD", Side: domain.SideBuy}

	result := p.Run(context.Background(), "please close this position", nil, original)

	if result.Kind != ResultReply {
		t.Fatalf("got kind %v, want ResultReply", result.Kind)
	}
	if result.Reply.Action != domain.ReplyActionClose {
		t.Fatalf("got action %v, want ReplyActionClose", result.Reply.Action)
	}
	if result.Reply.GeneratedBy != domain.GeneratedByReply {
		t.Fatalf("got generated_by %v, want GeneratedByReply", result.Reply.GeneratedBy)
	}
	if result.Reply.OriginalSignalID != original.ID {
		t.Fatalf("got original signal id %d, want %d", result.Reply.OriginalSignalID, original.ID)
	}
}

func TestPipelineRunReplyNoMatchWithoutAIClient(t *testing.T) {
	p := newTestPipeline()
	original := &domain.Signal{ID: 7, Symbol: "EURUSD", Side: domain.SideBuy}

	result := p.Run(context.Background(), "what a nice day today", nil, original)

	if result.Kind != ResultNoMatch {
		t.Fatalf("got kind %v, want ResultNoMatch", result.Kind)
	}
}

func TestPipelineRunRejectsUnsalvageableSignal(t *testing.T) {
	p := newTestPipeline()
	synonymIndex := map[string]string{"EURUSD": "EURUSD"}

	// Entry below SL on a BUY is filtered to nothing: unsalvageable even
	// though every token class was present.
	text := "BUY EURUSD @ 1.00 TP 1.11 SL 1.05"
	result := p.Run(context.Background(), text, synonymIndex, nil)

	if result.Kind != ResultNoMatch {
		t.Fatalf("got kind %v, want ResultNoMatch", result.Kind)
	}
}
