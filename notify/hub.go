package notify

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/hpp-app/utils"
)

// Event types
const (
	EventIngredientPriceChanged = "ingredient_price_changed"
	EventMemberJoined           = "member_joined"
	EventMemberRemoved          = "member_removed"
	EventInvitationCreated      = "invitation_created"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	organizationID uint
	userID         uint
}

// Hub keeps the open websocket connections per organization. Writes happen
// under the hub lock, so a connection never sees concurrent writers.
type Hub struct {
	clients map[Conn]client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]client)}
}

// Register adds a connection for a user of an organization.
func (h *Hub) Register(conn Conn, organizationID, userID uint) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = client{organizationID: organizationID, userID: userID}
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
}

// Clients is the number of open connections of an organization.
func (h *Hub) Clients(organizationID uint) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, c := range h.clients {
		if c.organizationID == organizationID {
			n++
		}
	}
	return n
}

// Broadcast sends msg to every connection of the organization, or only to
// userID's connections when userID is not nil. Connections that fail are
// dropped. Returns the number of successful deliveries.
func (h *Hub) Broadcast(organizationID uint, userID *uint, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return 0
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, c := range h.clients {
		if c.organizationID != organizationID {
			continue
		}
		if userID != nil && c.userID != *userID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to user %d: %v", msg.Event, c.userID, err)
			delete(h.clients, conn)
			conn.Close()
			continue
		}
		sent++
	}

	utils.InfoLogger.Debugf("Broadcast %s to %d clients of organization %d", msg.Event, sent, organizationID)
	return sent
}
