package websocket

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения. Наблюдатели ничего не
	// отправляют, кроме pong, поэтому лимит маленький.
	maxMessageSize = 512

	// Размер буфера канала отправки сообщений клиенту
	clientBufferSize = 64
)

// Client представляет одно подключение наблюдателя комнаты
type Client struct {
	RoomID uint

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient создает клиента и запускает его read/write насосы
func NewClient(hub *Hub, conn *websocket.Conn, roomID uint) *Client {
	client := &Client{
		RoomID: roomID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, clientBufferSize),
	}

	hub.register <- client
	go client.writePump()
	go client.readPump()

	return client
}

// readPump вычитывает входящие сообщения (только управление соединением)
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WSClient] Неожиданное закрытие соединения комнаты #%d: %v", c.RoomID, err)
			}
			return
		}
	}
}

// writePump пишет события из канала send и периодические пинги
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
