package interpret

import "errors"

// Failure taxonomy of the interpreter. Hard errors abort the enclosing
// persist job; soft errors drop the offending message and processing
// continues. The dispatcher makes that call with errors.Is.
var (
	// ErrTopicIDDoesNotExist means a minute message referenced a topic
	// outside the chat's tree. Hard.
	ErrTopicIDDoesNotExist = errors.New("topic id does not exist in the chat's topic collection")

	// ErrInvalidChatMinute means finalize found a minute whose start or
	// end was never set. Hard.
	ErrInvalidChatMinute = errors.New("chat minute has unset start or end")

	// ErrNoActiveChatMinute means a tag or marker arrived before any
	// minute-create was accepted. Soft.
	ErrNoActiveChatMinute = errors.New("no active chat minute")

	// ErrDuplicateTagID means a tag-create repeated an already seen tag
	// id. Soft.
	ErrDuplicateTagID = errors.New("duplicate tag id")

	// ErrTagIDDoesNotExist means a tag-delete referenced an unknown tag
	// id. Soft.
	ErrTagIDDoesNotExist = errors.New("tag id does not exist")

	// ErrOperationNotSupported means the dispatcher routed a message to
	// a handler operation that handler does not implement. Always a
	// dispatcher bug, never a data problem.
	ErrOperationNotSupported = errors.New("operation not supported by handler")
)

// IsSoft reports whether err is one of the droppable failures.
func IsSoft(err error) bool {
	return errors.Is(err, ErrNoActiveChatMinute) ||
		errors.Is(err, ErrDuplicateTagID) ||
		errors.Is(err, ErrTagIDDoesNotExist)
}
