// Package bus abstracts the message broker that carries webhook envelopes
// from the HTTP receiver to the routing workers.
package bus

import "context"

type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close()
}
