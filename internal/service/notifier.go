package service

import "github.com/google/uuid"

// Notifier fans out change events to live clients. owner is the user whose
// row changed; only clients that may see that owner's rows receive the
// event. Implementations must not block the caller.
type Notifier interface {
	Notify(owner uuid.UUID, payload map[string]interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(uuid.UUID, map[string]interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
