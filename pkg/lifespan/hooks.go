package lifespan

import "context"

// Hook is a single startup or shutdown step of a hosted application.
type Hook func(ctx context.Context) error

// Hooks builds a conforming App from ordered startup and shutdown hooks.
type Hooks struct {
	Startup  []Hook
	Shutdown []Hook
}

// App returns the lifespan entry point. A failing startup hook is reported
// with lifespan.startup.failed and its error is returned; a failing shutdown
// hook ends the task with its error before acknowledging shutdown.
func (h Hooks) App() App {
	return func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		for {
			msg, err := receive(ctx)
			if err != nil {
				return err
			}

			switch msg.Type {
			case TypeStartup:
				if err := runHooks(ctx, h.Startup); err != nil {
					_ = send(ctx, Message{Type: TypeStartupFailed, Message: err.Error()})
					return err
				}
				if err := send(ctx, Message{Type: TypeStartupComplete}); err != nil {
					return err
				}
			case TypeShutdown:
				if err := runHooks(ctx, h.Shutdown); err != nil {
					return err
				}
				return send(ctx, Message{Type: TypeShutdownComplete})
			}
		}
	}
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	return nil
}
