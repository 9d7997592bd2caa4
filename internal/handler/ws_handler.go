package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/thr-api/internal/domain/repository"
	"github.com/yourusername/thr-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения комнаты
type WSHandler struct {
	hub      *websocket.Hub
	roomRepo repository.RoomRepository
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(hub *websocket.Hub, roomRepo repository.RoomRepository) *WSHandler {
	return &WSHandler{hub: hub, roomRepo: roomRepo}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Пустой Origin — не браузерный клиент (мобильное приложение, curl)
		return true
	},
}

// HandleConnection апгрейдит соединение и подписывает клиента на события
// его комнаты (question:resolved, reward:claimed, redemption:cancelled)
func (h *WSHandler) HandleConnection(c *gin.Context) {
	roomIDStr := c.Query("room_id")
	roomID, err := strconv.ParseUint(roomIDStr, 10, 32)
	if err != nil || roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room_id"})
		return
	}

	room, err := h.roomRepo.GetByID(uint(roomID))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !room.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "room is not active"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения для комнаты #%d: %v", room.ID, err)
		return
	}

	websocket.NewClient(h.hub, conn, room.ID)
	log.Printf("[WSHandler] Клиент подключен к комнате #%d (всего: %d)", room.ID, h.hub.ClientCount(room.ID))
}
