package server

// Callbacks receive session events. Any field may be nil. Each callback runs
// on the goroutine that produced the event, so it must not block for long;
// it may call Session.State, Session.Clients, and the other accessors.
type Callbacks struct {
	// OnStatusChanged receives human-readable status lines.
	OnStatusChanged func(text string)

	// OnClientAdded fires when a viewer connects.
	OnClientAdded func(addr string)

	// OnClientRemoved fires when a viewer leaves the roster, for any reason.
	OnClientRemoved func(addr string)

	// OnFatalError fires when the session cannot continue: bind failure or
	// an accept error while running.
	OnFatalError func(title, message string)
}

func (c Callbacks) statusChanged(text string) {
	if c.OnStatusChanged != nil {
		c.OnStatusChanged(text)
	}
}

func (c Callbacks) clientAdded(addr string) {
	if c.OnClientAdded != nil {
		c.OnClientAdded(addr)
	}
}

func (c Callbacks) clientRemoved(addr string) {
	if c.OnClientRemoved != nil {
		c.OnClientRemoved(addr)
	}
}

func (c Callbacks) fatalError(title, message string) {
	if c.OnFatalError != nil {
		c.OnFatalError(title, message)
	}
}

// Merge returns Callbacks that invoke c first and then other.
func (c Callbacks) Merge(other Callbacks) Callbacks {
	return Callbacks{
		OnStatusChanged: func(text string) {
			c.statusChanged(text)
			other.statusChanged(text)
		},
		OnClientAdded: func(addr string) {
			c.clientAdded(addr)
			other.clientAdded(addr)
		},
		OnClientRemoved: func(addr string) {
			c.clientRemoved(addr)
			other.clientRemoved(addr)
		},
		OnFatalError: func(title, message string) {
			c.fatalError(title, message)
			other.fatalError(title, message)
		},
	}
}
