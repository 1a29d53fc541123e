package stream

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame wire format: a fixed header followed by raw RGBA pixels, sent as one
// binary websocket message. Control traffic (hello, rename) travels as JSON
// text messages on the same connection.
const (
	frameMagic      = "CMF1"
	frameHeaderSize = 16
	wsWriteTimeout  = 5 * time.Second
)

// encodeFrameHeader writes the frame header into a fresh buffer sized for the
// full message, returning the buffer with the pixel region unwritten.
func encodeFrameHeader(width, height, pixelLen int) []byte {
	buf := make([]byte, frameHeaderSize+pixelLen)
	copy(buf[0:4], frameMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(width))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(height))
	// buf[12:16] reserved, zero.
	return buf
}

type wsControl struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// WSSender forwards bitmap frames to a websocket receiver. It only supports
// the copy path; the session's texture probe fails and falls back to bitmaps,
// which is correct because pixels must cross the network anyway.
type WSSender struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	name     string
	released bool
}

// NewWSSenderFactory returns a SenderFactory dialing url. Dial failure maps
// to the capability-unavailable enable error.
func NewWSSenderFactory(url string) SenderFactory {
	return func(name string) (Sender, error) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", url, err)
		}
		s := &WSSender{conn: conn, name: name}
		if err := s.writeControl(wsControl{Type: "hello", Name: name}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("announcing sender: %w", err)
		}
		return s, nil
	}
}

func (s *WSSender) writeControl(msg wsControl) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// SendBitmap forwards one RGBA frame.
func (s *WSSender) SendBitmap(pixels []byte, width, height int) error {
	if want := width * height * 4; len(pixels) != want {
		return fmt.Errorf("bitmap %dx%d: got %d bytes, want %d", width, height, len(pixels), want)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("send after release")
	}
	buf := encodeFrameHeader(width, height, len(pixels))
	copy(buf[frameHeaderSize:], pixels)
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, buf)
}

// Rename announces a new sender name on the live connection.
func (s *WSSender) Rename(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("rename after release")
	}
	s.name = name
	return s.writeControl(wsControl{Type: "rename", Name: name})
}

// Release closes the connection after a best-effort close handshake.
func (s *WSSender) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
