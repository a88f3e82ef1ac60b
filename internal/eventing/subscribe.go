package eventing

import "context"

// SubscribeTyped registers a handler that only sees events of type T,
// rejecting anything else with ErrInvalidEventType.
func SubscribeTyped[T any](bus EventBus, handler func(ctx context.Context, event T) error) {
	if bus == nil || handler == nil {
		return
	}
	bus.Subscribe(EventTypeOf[T](), func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return ErrInvalidEventType
		}
		return handler(ctx, typed)
	})
}
