package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConnWriter is the part of a websocket connection used for replies.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketDecodeResponse is sent for every frame received on /ws/decode.
type WebSocketDecodeResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "completed" or "error"
	Result    *BitmapInfo `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// decodeWebSocketHandler upgrades the connection and decodes every binary
// frame as an image.
func (s *Server) decodeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
}

func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	var seq atomic.Int64
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		s.handleWebSocketFrame(conn, messageType, data, strconv.FormatInt(seq.Add(1), 10))
	}
}

// handleWebSocketFrame decodes one frame and writes the reply.
func (s *Server) handleWebSocketFrame(conn WebSocketConnWriter, messageType int, data []byte, requestID string) {
	if messageType != websocket.BinaryMessage {
		s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
			Type:      "decode",
			Status:    "error",
			Error:     "binary image frames expected",
			RequestID: requestID,
		})
		return
	}

	res := s.decode("websocket", data)
	b, ok := res.Bitmap()
	if !ok {
		s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
			Type:      "decode",
			Status:    "error",
			Error:     "Invalid image data",
			ErrorKind: errorKind(res.Err()),
			RequestID: requestID,
		})
		return
	}

	s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
		Type:      "decode",
		Status:    "completed",
		Result:    infoFor(b, res.Format()),
		RequestID: requestID,
	})
}

func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketDecodeResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
