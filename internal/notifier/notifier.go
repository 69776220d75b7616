package notifier

import "context"

// Notifier is the narrow interface to the outbound notification sender.
// Delivery is fire-and-forget from the pipeline's perspective: failures are
// logged by callers and never affect job state.
type Notifier interface {
	Send(ctx context.Context, recipient, message string) error
}
