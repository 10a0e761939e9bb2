package extract

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v5"

	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/extract/ai"
	"github.com/ndrandal/tradesignal-core/internal/extract/manual"
)

// ResultKind tags which variant of ExtractionResult is populated (spec
// §9 Design Notes: "ExtractionResult = Signal | ReplyAction | NoMatch is
// a tagged union; avoid returning typeless None across layers").
type ResultKind int

const (
	ResultNoMatch ResultKind = iota
	ResultSignal
	ResultReply
)

// ExtractionResult is the tagged-union output of Pipeline.Run. Exactly
// one of Signal/Reply is populated, selected by Kind.
type ExtractionResult struct {
	Kind   ResultKind
	Signal *domain.Signal
	Reply  *domain.SignalReply
}

// StageBThreshold is the validation-error count under which Stage A's
// near-miss result is escalated to Stage B (spec §4.1: "fewer than K
// validation errors, default 3").
const StageBThreshold = 3

// Pipeline runs the two-stage extraction pipeline. A nil AI client
// disables Stage B entirely (extraction then never escalates).
type Pipeline struct {
	AI          *ai.Client
	RetryConfig RetryConfig
	Logger      *slog.Logger
}

// NewPipeline builds a Pipeline with an optional Stage B client.
func NewPipeline(aiClient *ai.Client, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{AI: aiClient, RetryConfig: DefaultRetryConfig(), Logger: logger}
}

// Run extracts a Signal or SignalReply from text, given the room's
// synonym index and, when replying to a prior Signal, that Signal (spec
// §4.1 Inputs: "original Signal when parsing a reply").
//
// Failure never propagates to the caller (spec §4.1 Failure semantics):
// a failed extraction yields ResultNoMatch plus a structured log entry.
func (p *Pipeline) Run(ctx context.Context, text string, synonymIndex map[string]string, replyTo *domain.Signal) ExtractionResult {
	if replyTo != nil {
		if action, ok := manual.ParseReplyAction(text); ok {
			return ExtractionResult{
				Kind: ResultReply,
				Reply: &domain.SignalReply{
					Action:           action,
					GeneratedBy:      domain.GeneratedByReply,
					InfoMessage:      text,
					OriginalSignalID: replyTo.ID,
				},
			}
		}
		if p.AI != nil {
			if reply, ok := p.runStageBReply(ctx, text, replyTo); ok {
				return ExtractionResult{Kind: ResultReply, Reply: reply}
			}
		}
		return ExtractionResult{Kind: ResultNoMatch}
	}

	allowed := AllowedTokenSet(synonymIndex)
	base := manual.Parse(text, allowed)
	normalized := Normalize(base, synonymIndex)

	signal, errCount := buildSignal(normalized)
	if signal != nil {
		return ExtractionResult{Kind: ResultSignal, Signal: signal}
	}

	if errCount >= StageBThreshold || p.AI == nil {
		p.Logger.Debug("extraction abandoned", "error_count", errCount)
		return ExtractionResult{Kind: ResultNoMatch}
	}

	stageBSignal, ok := p.runStageBSignal(ctx, text, synonymIndex)
	if !ok {
		p.Logger.Debug("stage b extraction failed", "text_len", len(text))
		return ExtractionResult{Kind: ResultNoMatch}
	}
	return ExtractionResult{Kind: ResultSignal, Signal: stageBSignal}
}

// buildSignal validates a NormalizedSignal per spec §4.1 Validation
// ("exactly 1 symbol, exactly 1 side, exactly 1 sl, >=1 entry, >=1 tp")
// and returns the assembled Signal plus the count of failed rules (used
// to decide whether Stage B should run).
func buildSignal(n NormalizedSignal) (*domain.Signal, int) {
	errCount := 0
	if len(n.Symbols) != 1 {
		errCount++
	}
	if len(n.Sides) != 1 {
		errCount++
	}
	if len(n.SLs) != 1 {
		errCount++
	}
	if len(n.Entries) == 0 {
		errCount++
	}
	if len(n.TPs) == 0 {
		errCount++
	}
	if errCount > 0 {
		return nil, errCount
	}

	signal := &domain.Signal{
		Symbol:  n.Symbols[0],
		Side:    n.Sides[0],
		Entries: n.Entries,
		TPs:     n.TPs,
		SL:      n.SLs[0],
	}
	signal.SortPrices()

	// Extraction-time filtering runs uncapped (no CopySetup is known yet);
	// distribution re-applies FilterPrices per copy-setup caps (§4.3).
	filtered := FilterPrices(signal.Side, signal.Entries, signal.TPs, signal.SL, 0, 0)
	if !filtered.OK {
		return nil, StageBThreshold // unsalvageable: no valid (entry, tp) pair survives
	}
	signal.Entries, signal.TPs = filtered.Entries, filtered.TPs

	if err := signal.ValidateMonotonicity(); err != nil {
		return nil, StageBThreshold // monotonicity failure is not salvageable by Stage B
	}
	return signal, 0
}

func (p *Pipeline) runStageBSignal(ctx context.Context, text string, synonymIndex map[string]string) (*domain.Signal, bool) {
	allowedSymbols := make([]string, 0, len(synonymIndex))
	for tok, canonical := range synonymIndex {
		if tok == canonical {
			allowedSymbols = append(allowedSymbols, canonical)
		}
	}

	raw, err := RetryCall(ctx, p.RetryConfig, func(ctx context.Context) (ai.RawSignal, error) {
		res, err := p.AI.ExtractSignal(ctx, text, allowedSymbols)
		if err != nil && !ai.IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	})
	if err != nil {
		p.Logger.Warn("stage b signal extraction failed", "error", err)
		return nil, false
	}

	base := manual.SignalBase{
		Symbols:     []string{raw.Symbol},
		Types:       []string{raw.Side},
		EntryPrices: FromRawFloats(raw.Entries),
		TPPrices:    FromRawFloats(raw.TakeProfits),
		SLPrices:    FromRawFloats([]float64{raw.StopLoss}),
		InfoMessage: text,
	}
	normalized := Normalize(base, synonymIndex)
	signal, errCount := buildSignal(normalized)
	if errCount > 0 {
		return nil, false
	}
	return signal, true
}

func (p *Pipeline) runStageBReply(ctx context.Context, text string, replyTo *domain.Signal) (*domain.SignalReply, bool) {
	summary := replyTo.Symbol + " " + string(replyTo.Side)
	raw, err := RetryCall(ctx, p.RetryConfig, func(ctx context.Context) (ai.RawReply, error) {
		res, err := p.AI.ExtractReply(ctx, text, summary)
		if err != nil && !ai.IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	})
	if err != nil {
		p.Logger.Warn("stage b reply extraction failed", "error", err)
		return nil, false
	}

	action := domain.ReplyAction(raw.Action)
	reply := &domain.SignalReply{
		Action:           action,
		GeneratedBy:      domain.GeneratedByAI,
		InfoMessage:      text,
		OriginalSignalID: replyTo.ID,
	}
	if raw.HasNewSL {
		sl := FromRawFloats([]float64{raw.NewSL})
		if len(sl) == 1 {
			reply.NewSL = &sl[0]
		}
	}
	if err := reply.Validate(); err != nil {
		return nil, false
	}
	return reply, true
}
