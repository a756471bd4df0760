package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasuwa/kasuwa-backend/internal/app/model"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
)

// Event is one push notification delivered to a connected seller.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// OrderPaidPayload tells a seller that one of their listings was sold.
type OrderPaidPayload struct {
	OrderID       uint    `json:"order_id"`
	UserProductID uint    `json:"user_product_id"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
}

// Hub manages seller WebSocket connections. A seller may be connected from
// several devices; events go to every session.
type Hub struct {
	clients    map[uint][]*Client
	register   chan *Client
	unregister chan *Client
	send       chan targetedMessage

	mu sync.RWMutex
}

type targetedMessage struct {
	userID  uint
	message []byte
}

// NewHub creates a hub ready to Run
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		send:       make(chan targetedMessage, 1024),
	}
}

// Run processes registrations and deliveries until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id": client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if list, ok := h.clients[client.UserID]; ok {
				next := make([]*Client, 0, len(list))
				for _, c := range list {
					if c != client {
						next = append(next, c)
					}
				}
				if len(next) == 0 {
					delete(h.clients, client.UserID)
				} else {
					h.clients[client.UserID] = next
				}
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id": client.UserID,
			})

		case msg := <-h.send:
			h.mu.RLock()
			for _, client := range h.clients[msg.userID] {
				select {
				case client.Send <- msg.message:
				default:
					// send buffer full, drop the session
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": msg.userID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register queues a client for registration
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister queues a client for removal
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser delivers an event to every session of one user
func (h *Hub) SendToUser(userID uint, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal websocket event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}
	h.send <- targetedMessage{userID: userID, message: data}
}

// NotifyOrderPaid pushes an order_paid event to each seller whose listing
// appears in the order.
func (h *Hub) NotifyOrderPaid(order *model.Order) {
	for _, item := range order.Items {
		sellerID := item.UserProduct.OwnerID
		if sellerID == 0 {
			continue
		}
		h.SendToUser(sellerID, Event{
			Type: "order_paid",
			Payload: OrderPaidPayload{
				OrderID:       order.ID,
				UserProductID: item.UserProductID,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
			},
		})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades an authenticated request to a WebSocket session
// GET /api/v1/ws
func (h *Hub) ServeWS(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := &Client{
		Hub:    h,
		Conn:   &Conn{Conn: conn},
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
