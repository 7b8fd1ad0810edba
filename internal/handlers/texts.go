package handlers

const (
	menuStatus   = "Status"
	menuUpcoming = "Next 24 hours"
	menuSummary  = "Summary"

	btnTaken = "Mark as taken"

	cbTakenPrefix = "taken:"

	txtWelcome     = "Reminders will be sent to this chat."
	txtNotAllowed  = "This bot is already bound to another chat."
	txtStartFirst  = "Send /start to receive reminders in this chat."
	txtNoMeds      = "No medications yet."
	txtUnknown     = "Use the menu or /status, /upcoming, /summary."
	txtMarkedTaken = "Marked as taken"
	txtNotFound    = "Medication not found"
	txtTryAgain    = "Could not save, try again"
	txtHelp        = "/status: every medication with its status\n/upcoming: doses in the next 24 hours\n/summary: caregiver summary"
)
