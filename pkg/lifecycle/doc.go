// Package lifecycle provides the state machine of a single command invocation.
//
// # State Machine
//
// Valid state transitions:
//   - Idle -> Entering, Failed
//   - Entering -> Running, Exiting, Failed
//   - Running -> Exiting, Failed
//   - Exiting -> Done, Failed
//
// Done and Failed are terminal. A Manager records the first failure reported
// through Record or Fail so that it can be returned once teardown has finished.
//
// # Usage
//
//	m := lifecycle.NewManager(logger, emitter)
//	if err := m.TransitionTo(lifecycle.StateEntering, "acquire lifespan"); err != nil {
//	    return err
//	}
package lifecycle
