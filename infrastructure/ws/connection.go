package ws

import (
	"context"
	"convo-hub/domain"
	"convo-hub/domain/event"
	"convo-hub/errors"
	"convo-hub/services"
	"convo-hub/sink"
	"convo-hub/subscription"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection is one client socket. It owns every subscription opened on it
// and a single ConnectionSink that all of them deliver into.
type connection struct {
	id            string
	log           *slog.Logger
	conn          *websocket.Conn
	session       *domain.Session
	subscriptions services.ISubscriptionService
	sink          *sink.ConnectionSink
	control       chan ServerFrame
	cfg           Config

	mu   sync.Mutex
	seq  uint64
	subs map[string]*route // client subscription id -> route
	tags map[string]string // delivery tag -> client subscription id
}

// route ties a client subscription id to the tag its deliveries carry.
// The tag is unique per subscribe, so deliveries of a cancelled subscription
// never reach a later one reusing the same id.
type route struct {
	sub *subscription.Subscription // nil while registering
	tag string
}

func newConnection(id string, log *slog.Logger, conn *websocket.Conn, session *domain.Session,
	subscriptions services.ISubscriptionService, cfg Config) *connection {
	return &connection{
		id:            id,
		log:           log.With("connection_id", id, "user_id", session.UserID),
		conn:          conn,
		session:       session,
		subscriptions: subscriptions,
		sink:          sink.NewConnectionSink(log, cfg.ConnectionBufferSize),
		control:       make(chan ServerFrame, cfg.ConnectionBufferSize),
		cfg:           cfg,
		subs:          make(map[string]*route),
		tags:          make(map[string]string),
	}
}

// serve blocks until the client goes away or ctx is cancelled. Every
// subscription of the connection is released exactly once on the way out.
func (c *connection) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx)
	}()

	c.readPump(ctx)
	cancel()
	released := c.subscriptions.Disconnect(c.id)
	<-writerDone
	c.log.Debug("Connection closed", "released_subscriptions", released, "dropped_deliveries", c.sink.Dropped())
}

func (c *connection) readPump(ctx context.Context) {
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Websocket read failed", "error", err)
			}
			return
		}
		var frame ClientFrame
		if err = json.Unmarshal(raw, &frame); err != nil {
			c.push(ctx, errorFrame("", fmt.Errorf("%w: malformed frame", errors.ErrInvalidInput)))
			continue
		}
		c.handle(ctx, frame)
	}
}

func (c *connection) handle(ctx context.Context, frame ClientFrame) {
	switch frame.Type {
	case FrameSubscribe:
		c.subscribe(ctx, frame)
	case FrameUnsubscribe:
		c.unsubscribe(frame.ID)
	case FramePing:
		c.push(ctx, ServerFrame{Type: FramePong})
	default:
		c.push(ctx, errorFrame(frame.ID, fmt.Errorf("%w: unknown frame type %q", errors.ErrInvalidInput, frame.Type)))
	}
}

func (c *connection) subscribe(ctx context.Context, frame ClientFrame) {
	if frame.ID == "" {
		c.push(ctx, errorFrame("", fmt.Errorf("%w: subscription id is required", errors.ErrInvalidInput)))
		return
	}
	// The id is reserved before registering so deliveries racing the
	// registration are not discarded by the writer.
	c.mu.Lock()
	if _, taken := c.subs[frame.ID]; taken {
		c.mu.Unlock()
		c.push(ctx, errorFrame(frame.ID, fmt.Errorf("%w: subscription id already in use", errors.ErrInvalidInput)))
		return
	}
	c.seq++
	r := &route{tag: fmt.Sprintf("%s#%d", frame.ID, c.seq)}
	c.subs[frame.ID] = r
	c.tags[r.tag] = frame.ID
	c.mu.Unlock()

	sub, err := c.subscriptions.Subscribe(ctx, c.session, c.id,
		services.SubscribeRequest{Topic: event.Topic(frame.Topic), ConversationID: frame.ConversationID},
		c.sink.For(r.tag))
	if err != nil {
		c.mu.Lock()
		c.forget(frame.ID, r)
		c.mu.Unlock()
		c.push(ctx, errorFrame(frame.ID, err))
		return
	}

	c.mu.Lock()
	r.sub = sub
	c.mu.Unlock()
	go c.watch(ctx, frame.ID, sub)
}

// unsubscribe stops routing the id before cancelling, so deliveries already
// buffered for it are discarded and the id can be reused at once.
func (c *connection) unsubscribe(id string) {
	c.mu.Lock()
	r := c.subs[id]
	if r == nil || r.sub == nil {
		c.mu.Unlock()
		return
	}
	c.forget(id, r)
	c.mu.Unlock()
	c.subscriptions.Unsubscribe(r.sub.Handle())
}

// forget must be called with mu held. It is a no-op when id was already
// reassigned to another route.
func (c *connection) forget(id string, r *route) {
	if c.subs[id] == r {
		delete(c.subs, id)
	}
	delete(c.tags, r.tag)
}

// watch reports the end of a subscription to the client, whether the client
// asked for it or the bus closed it.
func (c *connection) watch(ctx context.Context, id string, sub *subscription.Subscription) {
	select {
	case <-ctx.Done():
		return
	case <-sub.Done():
	}
	c.mu.Lock()
	if r := c.subs[id]; r != nil && r.sub == sub {
		c.forget(id, r)
	}
	c.mu.Unlock()

	// no-op when already released
	c.subscriptions.Unsubscribe(sub.Handle())
	if err := sub.Err(); err != nil {
		c.push(ctx, errorFrame(id, err))
		return
	}
	c.push(ctx, completeFrame(id))
}

// resolve maps a delivery tag back to a live client subscription id.
func (c *connection) resolve(tag string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.tags[tag]
	return id, ok
}

func (c *connection) push(ctx context.Context, frame ServerFrame) {
	select {
	case c.control <- frame:
	case <-ctx.Done():
	}
}

func (c *connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		// unblocks the reader when the writer fails first
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case delivery := <-c.sink.Deliveries:
			id, ok := c.resolve(delivery.SubscriptionID)
			if !ok {
				continue
			}
			if !c.write(eventFrame(id, delivery.Event)) {
				return
			}
		case frame := <-c.control:
			if !c.write(frame) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(frame ServerFrame) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.log.Warn("Websocket write failed", "error", err, "frame_type", string(frame.Type))
		return false
	}
	return true
}
