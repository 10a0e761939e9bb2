package manual

import (
	"regexp"
	"strings"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

// closeSingleWords/closeMultiWords and breakevenSingleWords/
// breakevenMultiWords enumerate the reply-action keyword families (spec
// §4.1 Reply-action parse). Single-word keywords match with common
// English suffixes; multi-word phrases match whole-word with flexible
// whitespace. Priority: CLOSE > BREAKEVEN.
var (
	closeSingleWords  = []string{"CLOSE", "EXIT", "TERMINATE", "CANCEL", "CLOSING"}
	closeMultiWords   = []string{"CLOSING POSITION"}
	breakevenSingleWords = []string{"PROFIT", "BREAKEVEN"}
	breakevenMultiWords  = []string{"SET BE", "LOCK IN", "MOVE SL", "SL TO ENTRY"}
)

var (
	closeMatcher     = buildMatcher(closeSingleWords, closeMultiWords)
	breakevenMatcher = buildMatcher(breakevenSingleWords, breakevenMultiWords)
)

func buildMatcher(singleWords, multiWords []string) *regexp.Regexp {
	var parts []string
	for _, w := range singleWords {
		// common English suffixes: close, closed, closing
		parts = append(parts, `\b`+regexp.QuoteMeta(w)+`(?:D|ED|ING)?\b`)
	}
	for _, phrase := range multiWords {
		words := strings.Fields(phrase)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		parts = append(parts, `\b`+strings.Join(quoted, `\s+`)+`\b`)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(parts, "|") + `)`)
}

// ParseReplyAction matches text against the CLOSE/BREAKEVEN keyword
// families, case-insensitively. Returns ok=false if no family matches
// (the model-assisted path then supports MODIFY_SL, spec §4.1).
func ParseReplyAction(text string) (action domain.ReplyAction, ok bool) {
	if closeMatcher.MatchString(text) {
		return domain.ReplyActionClose, true
	}
	if breakevenMatcher.MatchString(text) {
		return domain.ReplyActionBreakeven, true
	}
	return "", false
}
