package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"echosphere-client/internal/models"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Gateway owns at most one realtime connection per authenticated session.
// It is an enhancement on top of REST: every failure here is logged and
// swallowed, never surfaced to the caller as an error.
type Gateway struct {
	baseURL string
	sugar   *zap.SugaredLogger

	// reconnection policy, mirrors the original client options
	reconnectAttempts int
	reconnectDelay    time.Duration
	connectTimeout    time.Duration

	state atomic.Int32

	mutex       sync.Mutex
	transport   transport
	stop        chan struct{}
	intentional bool
	connID      string

	subsMutex sync.Mutex
	subs      map[uint64]func(models.Event)
	nextSubID uint64
}

func New(baseURL string, sugar *zap.SugaredLogger) *Gateway {
	return &Gateway{
		baseURL:           baseURL,
		sugar:             sugar,
		reconnectAttempts: 3,
		reconnectDelay:    time.Second,
		connectTimeout:    5 * time.Second,
		subs:              make(map[uint64]func(models.Event)),
	}
}

// SetReconnectPolicy overrides the default bounded-retry policy. Call it
// before Connect.
func (g *Gateway) SetReconnectPolicy(attempts int, delay time.Duration, timeout time.Duration) {
	g.reconnectAttempts = attempts
	g.reconnectDelay = delay
	g.connectTimeout = timeout
}

func (g *Gateway) State() State {
	return State(g.state.Load())
}

func (g *Gateway) Connected() bool {
	return g.State() == StateConnected
}

// Connect brings the connection up for the given session token. A second
// call while a connection is live or being established is a no-op, so one
// session never holds more than one connection.
func (g *Gateway) Connect(ctx context.Context, token string) {
	g.mutex.Lock()
	if g.stop != nil {
		g.mutex.Unlock()
		return
	}
	stop := make(chan struct{})
	g.stop = stop
	g.intentional = false
	g.connID = uuid.NewString()
	connID := g.connID
	g.state.Store(int32(StateConnecting))
	g.mutex.Unlock()

	go g.run(ctx, token, connID, stop)
}

// Disconnect tears the connection down and suppresses any reconnection.
// Safe to call at any time, in any state, any number of times.
func (g *Gateway) Disconnect() {
	g.mutex.Lock()
	g.intentional = true
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
	tr := g.transport
	g.transport = nil
	g.state.Store(int32(StateDisconnected))
	g.mutex.Unlock()

	if tr != nil {
		if err := tr.close(); err != nil {
			g.sugar.Debugf("closing transport: %v", err)
		}
	}
}

// SendIntent emits a fire-and-forget command. While disconnected the
// intent is dropped, not queued: REST remains the durable path for every
// state-changing action.
func (g *Gateway) SendIntent(kind string, intent models.Intent) {
	if !g.Connected() {
		g.sugar.Debugf("dropping intent %q, not connected", kind)
		return
	}

	g.mutex.Lock()
	tr := g.transport
	g.mutex.Unlock()
	if tr == nil {
		return
	}

	ev, err := models.NewEvent(kind, intent)
	if err != nil {
		g.sugar.Error(err)
		return
	}
	if err := tr.send(ev); err != nil {
		g.sugar.Debugf("sending intent %q: %v", kind, err)
	}
}

// Subscription is a registered event handler. Closing it deregisters the
// handler; the handler survives reconnects until then, so callers never
// re-register and never accumulate duplicates.
type Subscription struct {
	gateway *Gateway
	id      uint64
	once    sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.gateway.subsMutex.Lock()
		defer s.gateway.subsMutex.Unlock()
		delete(s.gateway.subs, s.id)
	})
}

func (g *Gateway) Subscribe(fn func(models.Event)) *Subscription {
	g.subsMutex.Lock()
	defer g.subsMutex.Unlock()

	g.nextSubID++
	id := g.nextSubID
	g.subs[id] = fn
	return &Subscription{gateway: g, id: id}
}

func (g *Gateway) dispatch(ev models.Event) {
	g.subsMutex.Lock()
	handlers := make([]func(models.Event), 0, len(g.subs))
	for _, fn := range g.subs {
		handlers = append(handlers, fn)
	}
	g.subsMutex.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// run owns the dial/read/reconnect loop for one Connect call. Transient
// drops are retried with a fixed delay up to the attempt bound; after that
// the connection stays down until the session reconnects explicitly.
func (g *Gateway) run(ctx context.Context, token string, connID string, stop chan struct{}) {
	attempts := 0
	for {
		tr, err := g.dial(ctx, token, connID)
		if err != nil {
			attempts++
			g.sugar.Debugf("realtime connect failed (attempt %d/%d): %v", attempts, g.reconnectAttempts, err)
			if attempts >= g.reconnectAttempts {
				g.giveUp(stop)
				return
			}
			if !g.sleep(stop) {
				return
			}
			continue
		}
		attempts = 0

		g.mutex.Lock()
		if g.stop != stop {
			// Disconnect raced the dial; release the fresh transport.
			g.mutex.Unlock()
			tr.close()
			return
		}
		g.transport = tr
		g.state.Store(int32(StateConnected))
		g.mutex.Unlock()
		g.sugar.Debugf("realtime connected via %s", tr.name())

		g.pump(tr, stop)

		// State moves under the same lock that checks whether Disconnect
		// or a newer Connect already took over; a store after that check
		// would let this loop overwrite the state they just published.
		g.mutex.Lock()
		superseded := g.intentional || g.stop != stop
		if g.transport == tr {
			g.transport = nil
		}
		if !superseded {
			g.state.Store(int32(StateConnecting))
		}
		g.mutex.Unlock()
		tr.close()

		if superseded {
			return
		}

		attempts = 1
		if !g.sleep(stop) {
			return
		}
	}
}

func (g *Gateway) pump(tr transport, stop chan struct{}) {
	events := make(chan models.Event)
	errs := make(chan error, 1)

	go func() {
		for {
			ev, err := tr.receive()
			if err != nil {
				errs <- err
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-stop:
			return
		case err := <-errs:
			g.sugar.Debugf("realtime read: %v", err)
			return
		case ev := <-events:
			g.dispatch(ev)
		}
	}
}

func (g *Gateway) giveUp(stop chan struct{}) {
	g.mutex.Lock()
	if g.stop == stop {
		g.stop = nil
		g.state.Store(int32(StateDisconnected))
	}
	g.mutex.Unlock()
	g.sugar.Warnf("realtime connection abandoned after %d attempts, continuing over REST only", g.reconnectAttempts)
}

// sleep waits out the reconnect delay; false means Disconnect was called.
func (g *Gateway) sleep(stop chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-time.After(g.reconnectDelay):
		return true
	}
}
