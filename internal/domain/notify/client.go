// internal/domain/notify/client.go
package notify

// Client defines the interface for delivering operator-facing messages.
type Client interface {
	SendMessage(text string) error
}
