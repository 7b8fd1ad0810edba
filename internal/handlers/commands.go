package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medication-refill-tracker/internal/messages"
	"medication-refill-tracker/internal/models"
)

func (h *Handler) HandleCommand(ctx context.Context, chatID int64, cmd string) {
	if cmd == "start" {
		h.HandleStart(chatID)
		return
	}
	if why := h.refusal(chatID); why != "" {
		h.send(chatID, why)
		return
	}
	switch cmd {
	case "status":
		h.HandleStatus(chatID)
	case "upcoming":
		h.send(chatID, messages.UpcomingText(h.Tracker.Upcoming(h.now())))
	case "summary":
		h.send(chatID, h.Tracker.Summary(h.now()))
	default:
		h.send(chatID, txtHelp)
	}
}

// ---------------- /start --------------------

// HandleStart binds the alert sink to chatID, unless another chat holds it.
func (h *Handler) HandleStart(chatID int64) {
	if !h.Sink.Bind(chatID) {
		h.send(chatID, txtNotAllowed)
		return
	}

	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuStatus),
			tgbotapi.NewKeyboardButton(menuUpcoming),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuSummary),
		),
	)
	reply := tgbotapi.NewMessage(chatID, txtWelcome)
	reply.ReplyMarkup = kb
	_, _ = h.Bot.Send(reply)
}

// HandleStatus sends one card per medication. Expired ones get no "taken" button.
func (h *Handler) HandleStatus(chatID int64) {
	views := h.Tracker.Views(models.FilterAll, h.now())
	if len(views) == 0 {
		h.send(chatID, txtNoMeds)
		return
	}
	for _, v := range views {
		msg := tgbotapi.NewMessage(chatID, messages.StatusCard(v))
		if v.Status.Label != models.LabelExpired {
			msg.ReplyMarkup = takenKeyboard(v.ID)
		}
		_, _ = h.Bot.Send(msg)
	}
}

func takenKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnTaken, cbTakenPrefix+id),
		),
	)
}
