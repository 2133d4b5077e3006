package delivery

import "context"

// Delivery is a long running inbound adapter started at boot.
type Delivery interface {
	Serve(ctx context.Context) error
}
