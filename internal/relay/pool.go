// Package relay manages websocket connections to Nostr relays.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gleam/internal/metrics"
	"gleam/internal/nostr"
	"gleam/internal/types"
)

// ErrUnsafeURL is returned for relay URLs that point at private networks.
var ErrUnsafeURL = errors.New("relay URL blocked: unsafe destination")

// ErrConnClosed is returned to waiters when a connection drops.
var ErrConnClosed = errors.New("relay connection closed")

// Options configures a Pool. Zero values select defaults.
type Options struct {
	Logger       *slog.Logger
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Subscription represents an active subscription on a relay connection
type Subscription struct {
	ID        string
	EventChan chan types.Event
	EOSEChan  chan bool
	Done      chan struct{}
	closeOnce sync.Once
}

// Close safely closes the Done channel exactly once
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.Done)
	})
}

type okResult struct {
	accepted bool
	message  string
}

// relayConn manages a single websocket connection with multiple subscriptions
type relayConn struct {
	conn          *websocket.Conn
	relayURL      string
	log           *slog.Logger
	mu            sync.Mutex
	writeMu       sync.Mutex
	writeTimeout  time.Duration
	subscriptions map[string]*Subscription
	okWaiters     map[string]chan okResult
	closed        bool
	lastActivity  time.Time
}

// Pool reuses one connection per relay URL.
type Pool struct {
	opts        Options
	log         *slog.Logger
	dialer      *websocket.Dialer
	mu          sync.RWMutex
	connections map[string]*relayConn
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewPool creates a pool and starts its idle cleanup loop.
func NewPool(opts Options) *Pool {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Minute
	}
	p := &Pool{
		opts:        opts,
		log:         opts.Logger.With("component", "relay_pool"),
		dialer:      &websocket.Dialer{HandshakeTimeout: opts.DialTimeout},
		connections: make(map[string]*relayConn),
		stop:        make(chan struct{}),
	}
	go p.cleanupLoop()
	return p
}

// getOrCreateConn gets an existing connection or creates a new one
func (p *Pool) getOrCreateConn(ctx context.Context, relayURL string) (*relayConn, error) {
	if !IsURLSafe(relayURL) {
		return nil, ErrUnsafeURL
	}

	p.mu.RLock()
	rc := p.connections[relayURL]
	p.mu.RUnlock()
	if rc != nil && !rc.isClosed() {
		return rc, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	rc = p.connections[relayURL]
	if rc != nil && !rc.isClosed() {
		return rc, nil
	}

	p.log.Debug("dialing relay", "relay", relayURL)
	conn, _, err := p.dialer.DialContext(ctx, relayURL, nil)
	if err != nil {
		metrics.IncRelayError("connect")
		return nil, fmt.Errorf("dial %s: %w", relayURL, err)
	}

	rc = &relayConn{
		conn:          conn,
		relayURL:      relayURL,
		log:           p.log.With("relay", relayURL),
		writeTimeout:  p.opts.WriteTimeout,
		subscriptions: make(map[string]*Subscription),
		okWaiters:     make(map[string]chan okResult),
		lastActivity:  time.Now(),
	}
	p.connections[relayURL] = rc
	metrics.SetRelayConnections(len(p.connections))

	go rc.readLoop()
	return rc, nil
}

// Subscribe sends a REQ on the relay's shared connection.
func (p *Pool) Subscribe(ctx context.Context, relayURL string, subID string, filter map[string]interface{}) (*Subscription, error) {
	rc, err := p.getOrCreateConn(ctx, relayURL)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:        subID,
		EventChan: make(chan types.Event, 100),
		EOSEChan:  make(chan bool, 1),
		Done:      make(chan struct{}),
	}

	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil, ErrConnClosed
	}
	rc.subscriptions[subID] = sub
	rc.lastActivity = time.Now()
	rc.mu.Unlock()

	if err := rc.writeJSON([]interface{}{"REQ", subID, filter}); err != nil {
		metrics.IncRelayError("subscribe")
		rc.mu.Lock()
		delete(rc.subscriptions, subID)
		rc.mu.Unlock()
		rc.markClosed()
		return nil, fmt.Errorf("send REQ to %s: %w", relayURL, err)
	}
	return sub, nil
}

// Unsubscribe closes a subscription
func (p *Pool) Unsubscribe(relayURL string, sub *Subscription) {
	if sub == nil {
		return
	}
	defer sub.Close()

	p.mu.RLock()
	rc := p.connections[relayURL]
	p.mu.RUnlock()
	if rc == nil {
		return
	}

	rc.mu.Lock()
	_, exists := rc.subscriptions[sub.ID]
	shouldSendClose := !rc.closed && exists
	delete(rc.subscriptions, sub.ID)
	rc.mu.Unlock()

	if shouldSendClose {
		// best effort, the connection may be going away
		_ = rc.writeJSON([]interface{}{"CLOSE", sub.ID})
	}
}

// Connections returns the number of open relay connections.
func (p *Pool) Connections() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.connections)
}

// Close shuts every connection and stops the cleanup loop.
func (p *Pool) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	conns := p.connections
	p.connections = make(map[string]*relayConn)
	p.mu.Unlock()
	for _, rc := range conns {
		rc.markClosed()
	}
	metrics.SetRelayConnections(0)
}

func (p *Pool) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.cleanup()
		case <-p.stop:
			return
		}
	}
}

// cleanup removes connections that have been idle too long
func (p *Pool) cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for u, rc := range p.connections {
		rc.mu.Lock()
		closed := rc.closed
		idle := len(rc.subscriptions) == 0 && len(rc.okWaiters) == 0 && now.Sub(rc.lastActivity) > p.opts.IdleTimeout
		rc.mu.Unlock()

		if closed || idle {
			if !closed {
				p.log.Debug("closing idle connection", "relay", u)
				rc.markClosed()
			}
			delete(p.connections, u)
		}
	}
	metrics.SetRelayConnections(len(p.connections))
}

func (rc *relayConn) isClosed() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.closed
}

// writeJSON sends a message with a write deadline
func (rc *relayConn) writeJSON(v interface{}) error {
	rc.writeMu.Lock()
	defer rc.writeMu.Unlock()
	_ = rc.conn.SetWriteDeadline(time.Now().Add(rc.writeTimeout))
	defer rc.conn.SetWriteDeadline(time.Time{})
	return rc.conn.WriteJSON(v)
}

// readLoop continuously reads from the connection and routes messages
func (rc *relayConn) readLoop() {
	defer rc.markClosed()

	for {
		var msg []interface{}
		if err := rc.conn.ReadJSON(&msg); err != nil {
			if !rc.isClosed() {
				rc.log.Debug("read error", "error", err)
			}
			return
		}

		rc.mu.Lock()
		rc.lastActivity = time.Now()
		rc.mu.Unlock()

		if len(msg) < 2 {
			continue
		}
		msgType, ok := msg[0].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "EVENT":
			rc.handleEvent(msg)
		case "EOSE":
			subID, _ := msg[1].(string)
			if sub := rc.subscription(subID); sub != nil {
				select {
				case sub.EOSEChan <- true:
				default:
				}
			}
		case "OK":
			rc.handleOK(msg)
		case "CLOSED":
			subID, _ := msg[1].(string)
			rc.mu.Lock()
			sub := rc.subscriptions[subID]
			delete(rc.subscriptions, subID)
			rc.mu.Unlock()
			if sub != nil {
				sub.Close()
			}
		case "NOTICE":
			notice, _ := msg[1].(string)
			rc.log.Info("relay notice", "notice", notice)
		}
	}
}

func (rc *relayConn) subscription(id string) *Subscription {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.subscriptions[id]
}

func (rc *relayConn) handleEvent(msg []interface{}) {
	if len(msg) < 3 {
		return
	}
	subID, ok := msg[1].(string)
	if !ok {
		return
	}
	sub := rc.subscription(subID)
	if sub == nil {
		return
	}

	evt, ok := nostr.ParseEventFromInterface(msg[2])
	if !ok {
		rc.log.Debug("dropping invalid event")
		return
	}
	evt.RelaysSeen = []string{rc.relayURL}

	select {
	case sub.EventChan <- evt:
	case <-sub.Done:
	default:
		metrics.IncDroppedEvent()
	}
}

func (rc *relayConn) handleOK(msg []interface{}) {
	if len(msg) < 3 {
		return
	}
	id, _ := msg[1].(string)
	accepted, _ := msg[2].(bool)
	message := ""
	if len(msg) >= 4 {
		message, _ = msg[3].(string)
	}

	rc.mu.Lock()
	ch := rc.okWaiters[id]
	delete(rc.okWaiters, id)
	rc.mu.Unlock()

	if ch != nil {
		ch <- okResult{accepted: accepted, message: message}
	}
}

// markClosed marks the connection as closed and releases all waiters
func (rc *relayConn) markClosed() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return
	}
	rc.closed = true
	rc.conn.Close()

	for _, sub := range rc.subscriptions {
		sub.Close()
	}
	rc.subscriptions = make(map[string]*Subscription)

	for id, ch := range rc.okWaiters {
		ch <- okResult{message: ErrConnClosed.Error()}
		delete(rc.okWaiters, id)
	}
}
