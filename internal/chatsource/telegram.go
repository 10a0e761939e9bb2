package chatsource

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSource adapts the Telegram Bot API's long-poll update stream
// into a Source.
type TelegramSource struct {
	bot    *tgbotapi.BotAPI
	events chan Event
	log    *slog.Logger
}

// NewTelegramSource authenticates against Telegram and starts long-
// polling updates.
func NewTelegramSource(token string, logger *slog.Logger) (*TelegramSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("chatsource: telegram auth: %w", err)
	}

	ts := &TelegramSource{bot: bot, events: make(chan Event, 256), log: logger}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := bot.GetUpdatesChan(updateCfg)

	go ts.pump(updates)

	return ts, nil
}

func (t *TelegramSource) pump(updates tgbotapi.UpdatesChannel) {
	defer close(t.events)
	for update := range updates {
		if ev, ok := toEvent(update); ok {
			t.events <- ev
		}
	}
}

// toEvent translates a tgbotapi.Update into a chatsource.Event.
// Telegram's Bot API surfaces new and edited messages but not
// deletions; deleted-message events (spec §4.2 "deleted") can only be
// synthesized by a platform that reports them, so this adapter never
// emits EventDeleted.
func toEvent(update tgbotapi.Update) (Event, bool) {
	msg := update.Message
	kind := EventNew
	if update.EditedMessage != nil {
		msg = update.EditedMessage
		kind = EventEdited
	}
	if msg == nil {
		return Event{}, false
	}

	ev := Event{
		Kind:              kind,
		ChatExternalID:    strconv.FormatInt(msg.Chat.ID, 10),
		MessageExternalID: strconv.Itoa(msg.MessageID),
		Text:              msg.Text,
		PostTime:          time.Unix(int64(msg.Date), 0).UTC(),
	}
	if msg.ReplyToMessage != nil {
		ev.ReplyToExternalID = strconv.Itoa(msg.ReplyToMessage.MessageID)
	}
	return ev, true
}

// Events implements Source.
func (t *TelegramSource) Events() <-chan Event {
	return t.events
}

// Close implements Source.
func (t *TelegramSource) Close() error {
	t.bot.StopReceivingUpdates()
	return nil
}
