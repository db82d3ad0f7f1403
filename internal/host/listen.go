package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is a decoded websocket frame.
type Frame struct {
	Type    string
	At      time.Time
	Knob    string
	Payload Payload
}

// DecodeFrame parses one envelope. Frames without data yield an empty payload.
func DecodeFrame(msg []byte) (Frame, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Frame{}, fmt.Errorf("decode envelope: %w", err)
	}
	f := Frame{Type: env.Type, Knob: env.Knob}
	if env.Ts != nil {
		f.At = *env.Ts
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &f.Payload); err != nil {
			return Frame{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return f, nil
}

// Listen connects to a hub at url and calls fn for every frame until ctx is
// canceled or the server closes the connection.
func Listen(ctx context.Context, url string, fn func(Frame)) error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}()

	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return fmt.Errorf("connection closed: %d %s", ce.Code, ce.Text)
			}
			return fmt.Errorf("read: %w", err)
		}
		if typ != websocket.TextMessage {
			continue
		}
		f, err := DecodeFrame(msg)
		if err != nil {
			continue
		}
		fn(f)
	}
}
