package notify

import "context"

// Sink delivers a plain-text announcement to a group chat. Mention and
// markup formatting is the caller's concern; implementations must accept
// the text as-is. This keeps the dispatch logic decoupled from the
// specific bot library.
type Sink interface {
	Send(ctx context.Context, groupID int64, text string) error
}
