package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const redisPubSubChannel = "cms:revisions:events"

// Event is the frame pushed to watchers of a subject
type Event struct {
	Type    string      `json:"type"` // "revision.created"
	Payload interface{} `json:"payload"`
}

// Hub fans revision events out to the websocket clients watching a subject.
// With redis, events go through pub/sub so every instance delivers them.
type Hub struct {
	// clients grouped by subject key ("page:12")
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent

	mu          sync.Mutex
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc
}

type roomEvent struct {
	Room  string `json:"room"`
	Event *Event `json:"event"`
}

// NewHub creates a new Hub; redisClient may be nil for a single instance
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *roomEvent, 256),
		redisClient: redisClient,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Watchers returns how many clients watch room
func (h *Hub) Watchers(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[room])
}

// Run is the hub's main loop; it returns after Stop
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.room] == nil {
				h.clients[client.room] = make(map[*Client]struct{})
			}
			h.clients[client.room][client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients[msg.Room] {
				select {
				case client.send <- data:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.room]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.room)
	}
}

// Publish sends event to everyone watching room
func (h *Hub) Publish(room string, event *Event) {
	msg := &roomEvent{Room: room, Event: event}
	if h.redisClient != nil {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, data).Err(); err == nil {
			return
		}
		// fall through to local delivery when redis is down
	}
	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
	}
}

// OnRevisionCreated pushes committed revisions to the subject's watchers
func (h *Hub) OnRevisionCreated(_ context.Context, rev *domain.Revision) error {
	h.Publish(rev.Subject().String(), &Event{Type: "revision.created", Payload: rev})
	return nil
}

// subscribeRedis delivers events published by any instance, including this one
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm roomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				logger.GetLogger().Warn().Err(err).Msg("bad revision event on pubsub")
				continue
			}
			select {
			case h.broadcast <- &rm:
			case <-h.ctx.Done():
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
