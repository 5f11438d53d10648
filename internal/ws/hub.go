package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codelive/internal/metrics"
)

// Hub is the room registry: it maps room ids to member sets and fans
// events out to members. Rooms exist only while they have members —
// created on first join, deleted when the last member leaves.
//
// Delivery is fire-and-forget: a member whose outbound buffer is full
// is dropped and purged from every room, which doubles as the purge
// path for dead connections that never sent an explicit leave.
type Hub struct {
	logger *zap.Logger
	bus    *Bus   // optional cross-instance fan-out, nil when disabled
	origin string // this instance's id, used to skip its own bus echoes

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// NewHub creates a hub. bus may be nil for single-instance deployments.
func NewHub(logger *zap.Logger, bus *Bus) *Hub {
	return &Hub{
		logger: logger,
		bus:    bus,
		origin: uuid.NewString(),
		rooms:  make(map[string]map[*Client]bool),
	}
}

// Run forwards bus messages from other instances to local room members.
// It blocks until ctx is cancelled. With no bus it just waits.
func (h *Hub) Run(ctx context.Context) {
	if h.bus == nil {
		<-ctx.Done()
		return
	}
	h.bus.Subscribe(ctx, func(msg BusMessage) {
		if msg.Origin == h.origin {
			return
		}
		h.deliver(msg.Room, msg.Payload, nil)
	})
}

// Join adds the client to the room's member set. Idempotent.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]bool)
		h.rooms[room] = members
		metrics.RoomsActive.Inc()
		h.logger.Debug("room created", zap.String("room", room))
	}
	members[c] = true
}

// Leave removes the client from the room's member set. No-op if absent.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok || !members[c] {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		metrics.RoomsActive.Dec()
		h.logger.Debug("room deleted", zap.String("room", room))
	}
}

// Disconnect purges the client from every room it joined and closes its
// send channel. Safe to call more than once. The close happens under
// the write lock so it cannot overlap a deliver's channel send, which
// runs under the read lock.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	for room := range h.rooms {
		h.leaveLocked(c, room)
	}
	c.close()
	h.mu.Unlock()
}

// Broadcast delivers payload to every member of the room except sender.
// A room with no other members is a harmless no-op. The sender need not
// be a member itself.
func (h *Hub) Broadcast(sender *Client, room string, payload []byte) {
	metrics.BroadcastsTotal.Inc()
	h.deliver(room, payload, sender)

	if h.bus != nil {
		msg := BusMessage{Origin: h.origin, Room: room, Payload: payload}
		go func() {
			if err := h.bus.Publish(context.Background(), msg); err != nil {
				h.logger.Warn("bus publish failed", zap.String("room", room), zap.Error(err))
			}
		}()
	}
}

func (h *Hub) deliver(room string, payload []byte, except *Client) {
	var dead []*Client

	h.mu.RLock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		if !c.trySend(payload) {
			dead = append(dead, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dead {
		h.logger.Warn("dropping slow consumer", zap.String("conn_id", c.ID), zap.String("room", room))
		h.Disconnect(c)
	}
}

// members returns a snapshot of the room's member set, nil if the room
// does not exist.
func (h *Hub) members(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set, ok := h.rooms[room]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
