package server

import (
	"log/slog"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Client is one connected viewer. The Registry owns it; production loops
// hold a reference only to check liveness and write.
type Client struct {
	addr        string
	conn        net.Conn
	connectedAt time.Time

	alive     atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Addr returns the viewer's host:port.
func (c *Client) Addr() string { return c.addr }

// Conn returns the viewer's socket.
func (c *Client) Conn() net.Conn { return c.conn }

// ConnectedAt returns when the viewer was registered.
func (c *Client) ConnectedAt() time.Time { return c.connectedAt }

// Alive reports whether the client is still in the roster.
func (c *Client) Alive() bool { return c.alive.Load() }

// Done is closed when the client's socket is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// close marks the client dead and closes its socket exactly once.
func (c *Client) close() error {
	c.alive.Store(false)
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// ClientInfo is a snapshot of one roster entry.
type ClientInfo struct {
	Addr        string    `json:"addr"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Registry is the roster of connected viewers keyed by address. The mutex
// guards only the map; sockets are closed after it is released.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client

	onAdded   func(addr string)
	onRemoved func(addr string)
	logger    *slog.Logger
	now       func() time.Time
}

// NewRegistry creates an empty Registry. onAdded and onRemoved may be nil.
func NewRegistry(onAdded, onRemoved func(addr string), logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		clients:   make(map[string]*Client),
		onAdded:   onAdded,
		onRemoved: onRemoved,
		logger:    logger.With("component", "registry"),
		now:       time.Now,
	}
}

// Add registers conn under addr and returns the entry. A stale entry with
// the same address is replaced and closed.
func (r *Registry) Add(addr string, conn net.Conn) *Client {
	c := &Client{addr: addr, conn: conn, connectedAt: r.now(), done: make(chan struct{})}
	c.alive.Store(true)

	r.mu.Lock()
	old := r.clients[addr]
	r.clients[addr] = c
	r.mu.Unlock()

	if old != nil {
		old.close()
		r.notifyRemoved(addr)
	}
	r.logger.Debug("client added", "client", addr)
	r.notifyAdded(addr)
	return c
}

// Remove drops addr from the roster without closing its socket. It reports
// whether an entry was removed.
func (r *Registry) Remove(addr string) bool {
	r.mu.Lock()
	c, ok := r.clients[addr]
	if ok {
		delete(r.clients, addr)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	c.alive.Store(false)
	r.notifyRemoved(addr)
	return true
}

// removeClient drops c only if it is still the registered entry for its
// address, so a loop cannot evict a newer connection that reused the key.
func (r *Registry) removeClient(c *Client) bool {
	r.mu.Lock()
	cur, ok := r.clients[c.addr]
	if ok && cur == c {
		delete(r.clients, c.addr)
	}
	r.mu.Unlock()

	if !ok || cur != c {
		return false
	}
	r.notifyRemoved(c.addr)
	return true
}

// Get returns the socket registered under addr.
func (r *Registry) Get(addr string) (net.Conn, bool) {
	r.mu.Lock()
	c, ok := r.clients[addr]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c.conn, true
}

// Contains reports whether addr is registered.
func (r *Registry) Contains(addr string) bool {
	r.mu.Lock()
	_, ok := r.clients[addr]
	r.mu.Unlock()
	return ok
}

// Len returns the number of registered viewers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Addresses returns the registered addresses, sorted.
func (r *Registry) Addresses() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.clients))
	for addr := range r.clients {
		out = append(out, addr)
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}

// Snapshot returns the roster sorted by address.
func (r *Registry) Snapshot() []ClientInfo {
	r.mu.Lock()
	out := make([]ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, ClientInfo{Addr: c.addr, ConnectedAt: c.connectedAt})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// CloseOne removes addr and closes its socket. It is safe to call for an
// absent address and from several goroutines at once; the socket is closed
// exactly once. It reports whether this call removed the entry.
func (r *Registry) CloseOne(addr string) bool {
	r.mu.Lock()
	c, ok := r.clients[addr]
	if ok {
		delete(r.clients, addr)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if err := c.close(); err != nil {
		r.logger.Debug("close client", "client", addr, "error", err)
	}
	r.notifyRemoved(addr)
	return true
}

// CloseAll closes every socket and empties the roster. It returns the
// number of entries closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	all := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	addrs := make([]string, 0, len(all))
	for addr, c := range all {
		if err := c.close(); err != nil {
			r.logger.Debug("close client", "client", addr, "error", err)
		}
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		r.notifyRemoved(addr)
	}
	return len(addrs)
}

func (r *Registry) notifyAdded(addr string) {
	if r.onAdded != nil {
		r.onAdded(addr)
	}
}

func (r *Registry) notifyRemoved(addr string) {
	if r.onRemoved != nil {
		r.onRemoved(addr)
	}
}
