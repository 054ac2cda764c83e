package domain

import "errors"

var (
	// ErrTopicRejected means the validation collaborator judged the requested
	// topic inappropriate. Surfaced as 404, never retried.
	ErrTopicRejected = errors.New("topic rejected by validation")

	// ErrPromptMissing means an image was requested whose prompt was never
	// registered by any rendered page. Indicates a pipeline consistency gap.
	ErrPromptMissing = errors.New("no prompt registered for image")

	// ErrPromptPending means the image prompt exists but is still being
	// generated. Clients poll until it clears.
	ErrPromptPending = errors.New("image prompt not ready")

	// ErrMalformedOutput means model output could not be parsed even after
	// structural repair.
	ErrMalformedOutput = errors.New("malformed model output")
)
