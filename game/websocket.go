package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait     = time.Minute
	writeWait    = 10 * time.Second
	maxFrameSize = 4096
)

type GorillaWebSocketWrapper struct {
	socket *websocket.Conn
	once   sync.Once
}

func (wc *GorillaWebSocketWrapper) Write(data []byte) error {
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *GorillaWebSocketWrapper) Ping() error {
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wc *GorillaWebSocketWrapper) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

// Close may be called from both pumps; only the first call does anything.
func (wc *GorillaWebSocketWrapper) Close() {
	wc.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		wc.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		wc.socket.Close()
	})
}

func NewGorillaWebSocketWrapper(conn *websocket.Conn) *GorillaWebSocketWrapper {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &GorillaWebSocketWrapper{socket: conn}
}
