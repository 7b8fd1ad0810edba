package handlers

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"medication-refill-tracker/internal/models"
)

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	data := cq.Data

	if why := h.refusal(chatID); why != "" {
		h.answer(cq.ID, why)
		return
	}

	switch {
	case strings.HasPrefix(data, cbTakenPrefix):
		h.handleTaken(ctx, cq, strings.TrimPrefix(data, cbTakenPrefix))
	default:
		// always answer callback to remove 'loading...'
		h.answer(cq.ID, "")
	}
}

func (h *Handler) handleTaken(ctx context.Context, cq *tgbotapi.CallbackQuery, id string) {
	err := h.Tracker.MarkTaken(ctx, id, h.now())
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.answer(cq.ID, txtNotFound)
		return
	case err != nil:
		h.Logger.Warn("mark taken failed", zap.String("medication_id", id), zap.Error(err))
		h.answer(cq.ID, txtTryAgain)
		return
	}
	h.answer(cq.ID, txtMarkedTaken)

	// drop the button so the dose is not marked twice
	edit := tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = h.Bot.Request(edit)
}

func (h *Handler) answer(callbackID, text string) {
	_, _ = h.Bot.Request(tgbotapi.NewCallback(callbackID, text))
}
