package ai

import (
	"fmt"
	"strings"
)

func signalSystemPrompt(allowedSymbols []string) string {
	var b strings.Builder
	b.WriteString("You extract trading signals from chat messages. ")
	b.WriteString("Only use symbols from this list: ")
	b.WriteString(strings.Join(allowedSymbols, ", "))
	b.WriteString(". side must be BUY or SELL. If no valid signal is present, set confidence to 0.")
	return b.String()
}

func replySystemPrompt(originalSignalSummary string) string {
	return fmt.Sprintf(
		"You classify a chat reply to a previously posted trading signal (%s). "+
			"action must be one of CLOSE, BREAKEVEN, MODIFY_SL. "+
			"Set has_new_sl true and new_sl to the replacement stop only for MODIFY_SL.",
		originalSignalSummary,
	)
}

func signalSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol":       map[string]any{"type": "string"},
			"side":         map[string]any{"type": "string", "enum": []string{"BUY", "SELL"}},
			"entries":      map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
			"take_profits": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
			"stop_loss":    map[string]any{"type": "number"},
			"confidence":   map[string]any{"type": "number"},
		},
		"required":             []string{"symbol", "side", "entries", "take_profits", "stop_loss", "confidence"},
		"additionalProperties": false,
	}
}

func replySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":     map[string]any{"type": "string", "enum": []string{"CLOSE", "BREAKEVEN", "MODIFY_SL"}},
			"new_sl":     map[string]any{"type": "number"},
			"has_new_sl": map[string]any{"type": "boolean"},
		},
		"required":             []string{"action", "new_sl", "has_new_sl"},
		"additionalProperties": false,
	}
}
