package events

import (
	"context"
	"time"

	"github.com/taylordaughtry/formie/internal/eventbus"
)

// Call runs fn between a ServiceCallStart and a ServiceCallFinish event.
func Call(ctx context.Context, service, method, form string, fn func() error) error {
	start := time.Now()
	eventbus.Publish(ctx, ServiceCallStart{Service: service, Method: method, Form: form})
	err := fn()
	eventbus.Publish(ctx, ServiceCallFinish{
		Service:  service,
		Method:   method,
		Form:     form,
		Err:      err,
		Duration: time.Since(start),
	})
	return err
}
