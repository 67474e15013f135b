package lifespan

// Message types exchanged during the lifespan handshake.
// The strings are part of the wire contract and must not change.
const (
	TypeStartup          = "lifespan.startup"
	TypeStartupComplete  = "lifespan.startup.complete"
	TypeStartupFailed    = "lifespan.startup.failed"
	TypeShutdown         = "lifespan.shutdown"
	TypeShutdownComplete = "lifespan.shutdown.complete"
)

// ScopeType is the scope type passed to the application entry point.
const ScopeType = "lifespan"

// Message is a single lifespan event. Message carries the optional failure
// text of the *.failed types.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Scope describes the connection handed to the application entry point.
type Scope struct {
	Type  string
	State map[string]interface{}
}

// NewScope returns a lifespan scope with an empty state map.
func NewScope() Scope {
	return Scope{Type: ScopeType, State: map[string]interface{}{}}
}
