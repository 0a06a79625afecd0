// Package vault holds the client-local state machine that gates display and
// decryption of private clinical records. The state is never persisted or
// transmitted; a client embeds a Controller, recomputes it each session, and
// consults it before rendering decrypted content.
package vault

import (
	"errors"
	"sync"
)

// State is the vault gate position.
type State int

const (
	// Locked is the initial state: decrypted records must not be shown.
	Locked State = iota
	// Unlocked permits decryption for the current connected identity.
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// ErrNotConnected rejects an unlock attempt while no identity is connected.
var ErrNotConnected = errors.New("no connected identity")

// Controller is the two-state gate. Unlocked is never observable without a
// currently connected identity: a disconnect forces the state back to
// Locked before the next access check, whichever of SetConnected or
// Unlocked runs first.
type Controller struct {
	mu        sync.Mutex
	state     State
	connected bool
}

// New returns a Controller in the Locked state with no identity connected.
func New() *Controller { return &Controller{} }

// SetConnected records the externally observed connection status. Losing
// the connection while Unlocked forces a transition to Locked.
func (c *Controller) SetConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
	if !connected {
		c.state = Locked
	}
}

// Unlock runs the caller-supplied decryption proof and, when it succeeds,
// moves the gate to Unlocked. The proof itself (a wallet signature, a
// server capability) is delegated to the caller; this component only
// enforces that an identity is connected before the proof even runs.
func (c *Controller) Unlock(proof func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		c.state = Locked
		return ErrNotConnected
	}
	if proof != nil {
		if err := proof(); err != nil {
			return err
		}
	}
	c.state = Unlocked
	return nil
}

// Lock moves the gate to Locked unconditionally.
func (c *Controller) Lock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Locked
}

// Unlocked is the access check. It re-validates the connection invariant on
// every call, so a stale Unlocked can never leak past a disconnect.
func (c *Controller) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		c.state = Locked
	}
	return c.state == Unlocked
}

// State returns the current gate position after enforcing the connection
// invariant.
func (c *Controller) State() State {
	if c.Unlocked() {
		return Unlocked
	}
	return Locked
}
