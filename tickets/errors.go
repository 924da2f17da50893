package tickets

import "errors"

var (
	// ErrNotConfigured means the guild has no ticket configuration yet;
	// an admin has to run the setup command first.
	ErrNotConfigured = errors.New("tickets: guild not configured")

	// ErrForbidden means the caller lacks the support role or permission
	// required for the operation. State is never changed on this error.
	ErrForbidden = errors.New("tickets: caller not permitted")

	ErrTicketNotFound = errors.New("tickets: no ticket for this channel")

	// ErrTicketClosed means the ticket already reached its terminal
	// state and the requested transition is not allowed.
	ErrTicketClosed = errors.New("tickets: ticket already closed")

	// ErrNoRatings means a feedback form was submitted with every
	// question unanswered.
	ErrNoRatings = errors.New("tickets: no ratings provided")

	ErrUnknownCategory = errors.New("tickets: unknown category")

	// ErrCanceled is the creation flow's cancel pseudo-category; nothing
	// is created and nothing is persisted.
	ErrCanceled = errors.New("tickets: creation canceled")
)
