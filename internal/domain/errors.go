package domain

import "errors"

var (
	// ErrNetwork is returned when the question fetch failed at the transport or HTTP level.
	ErrNetwork = errors.New("trivia service unavailable")
	// ErrEmptyResult is returned when the trivia service answered with zero questions.
	ErrEmptyResult = errors.New("trivia service returned no questions")
	// ErrInvalidAction indicates an action that the current stage does not accept.
	ErrInvalidAction = errors.New("action not valid in current stage")
	// ErrAnswerPending indicates an answer arrived while feedback for the previous one is showing.
	ErrAnswerPending = errors.New("previous answer still being evaluated")
	// ErrOptionNotFound indicates a selected option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrSessionClosed is returned by actions on a session after Close.
	ErrSessionClosed = errors.New("quiz session closed")
)
