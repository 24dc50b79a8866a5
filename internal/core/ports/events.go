package ports

import "github.com/jonuar/Donacrypto/internal/core/domain"

// SessionEvents fans session lifecycle events out to subscribers.
type SessionEvents interface {
	Publish(event domain.SessionEvent)
	// Subscribe registers fn and returns a function that unregisters it.
	// Events reach each subscriber in publish order. fn should return
	// promptly; shutdown waits for running callbacks.
	Subscribe(fn func(domain.SessionEvent)) (unsubscribe func())
}
