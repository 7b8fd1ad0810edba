package handlers

import (
	"context"
	"strings"
)

// HandleText maps reply-keyboard buttons to their commands.
func (h *Handler) HandleText(ctx context.Context, chatID int64, text string) {
	switch strings.TrimSpace(text) {
	case menuStatus:
		h.HandleCommand(ctx, chatID, "status")
	case menuUpcoming:
		h.HandleCommand(ctx, chatID, "upcoming")
	case menuSummary:
		h.HandleCommand(ctx, chatID, "summary")
	default:
		h.send(chatID, txtUnknown)
	}
}
