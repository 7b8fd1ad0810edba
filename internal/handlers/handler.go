package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"medication-refill-tracker/internal/messages"
	"medication-refill-tracker/internal/tracker"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Handler struct {
	Bot     BotAPI
	Tracker *tracker.Tracker
	Sink    *messages.TelegramSink // alert destination, bound on /start
	Logger  *zap.Logger
	Loc     *time.Location
	Now     func() time.Time
}

func NewHandler(bot BotAPI, tr *tracker.Tracker, sink *messages.TelegramSink, loc *time.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{Bot: bot, Tracker: tr, Sink: sink, Logger: logger, Loc: loc, Now: time.Now}
}

// pollTimeout is the long-poll wait in seconds; messages.BotHTTPTimeout stays above it.
const pollTimeout = 30

// Listen handles updates until ctx is done or the update channel closes.
func (h *Handler) Listen(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := h.Bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.HandleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.IsCommand() {
		h.HandleCommand(ctx, chatID, msg.Command())
		return
	}
	h.HandleText(ctx, chatID, msg.Text)
}

// refusal returns why chatID may not use the bot, or "" when it may. Only
// the bound chat is served; before any chat is bound only /start works.
func (h *Handler) refusal(chatID int64) string {
	switch h.Sink.ChatID() {
	case chatID:
		return ""
	case 0:
		return txtStartFirst
	default:
		return txtNotAllowed
	}
}

func (h *Handler) now() time.Time {
	return h.Now().In(h.Loc)
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.Logger.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
