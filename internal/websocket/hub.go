package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub держит активные подключения наблюдателей по комнатам и рассылает
// им события экономики (вопрос закрыт, остаток приза изменился, обмен
// отменен). Рассылка всегда происходит ПОСЛЕ коммита транзакции: клиент
// не может увидеть событие, которое потом откатилось.
type Hub struct {
	mu sync.RWMutex

	// rooms: roomID -> подключенные клиенты
	rooms map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

// NewHub создает новый хаб событий
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
	}
}

// Run обрабатывает регистрацию и отключение клиентов
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.RoomID] == nil {
				h.rooms[client.RoomID] = make(map[*Client]struct{})
			}
			h.rooms[client.RoomID][client] = struct{}{}
			h.mu.Unlock()
			log.Printf("[Hub] Клиент подключен к комнате #%d", client.RoomID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.RoomID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.RoomID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("[Hub] Клиент отключен от комнаты #%d", client.RoomID)
		}
	}
}

// BroadcastToRoom отправляет событие всем наблюдателям комнаты.
// Медленные клиенты (переполненный буфер) пропускают событие.
func (h *Hub) BroadcastToRoom(roomID uint, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[Hub] Ошибка сериализации события %s для комнаты #%d: %v", eventType, roomID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.send <- payload:
		default:
			log.Printf("[Hub] WARNING: Буфер клиента комнаты #%d переполнен, событие %s пропущено", roomID, eventType)
		}
	}
}

// ClientCount возвращает количество подключенных наблюдателей комнаты
func (h *Hub) ClientCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
