package transcriber

import "errors"

var (
	// ErrMissingAPIKey is returned by Start before any capture is attempted.
	ErrMissingAPIKey = errors.New("deepgram api key not provided")

	ErrAlreadyStarted = errors.New("transcription session already started")
)
