// Package relay implements the websocket channel to the relay server.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/shaurya-crypto/aanya-link/internal/domain"
)

// State describes the relay channel lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateJoined       State = "joined"
)

// RoleController identifies the controlling device when joining a room.
// The relay routes between this role and the desktop agent sharing the room.
const RoleController = "phone"

// socketPath is the relay server's websocket endpoint.
const socketPath = "/ws/relay"

// ErrNotJoined indicates a send was attempted before the channel joined.
var ErrNotJoined = errors.New("relay channel not joined")

// Handlers receive inbound relay traffic. Callbacks are invoked from the
// channel's read pump goroutine, one at a time.
type Handlers struct {
	// OnSystemMessage receives connection lifecycle notices.
	OnSystemMessage func(text string)
	// OnResponse receives classified agent replies.
	OnResponse func(text string, role domain.Role)
	// OnDisconnect fires once when the transport drops unexpectedly.
	// It does not fire on Close.
	OnDisconnect func(err error)
}

// envelope is the wire format for relay events.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinRoomPayload struct {
	APIKey string `json:"apiKey"`
	Role   string `json:"role"`
}

type sendCommandPayload struct {
	APIKey  string `json:"apiKey"`
	Command string `json:"command"`
}

// Channel is a persistent bidirectional connection to the relay server,
// joined into the room keyed by the pairing credential.
type Channel struct {
	conn     *websocket.Conn
	handlers Handlers
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	closed bool
	cancel context.CancelFunc
}

// SocketURL converts the relay base URL to its websocket endpoint.
func SocketURL(baseURL string) string {
	wsURL := strings.Replace(baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return strings.TrimRight(wsURL, "/") + socketPath
}

// Dial connects to the relay server and joins the room for the given
// credential. The joined state is asserted optimistically on transport
// connect; the join_room emit carries the credential and controller role.
func Dial(ctx context.Context, baseURL, apiKey string, handlers Handlers, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	wsURL := SocketURL(baseURL)
	logger.Info("Connecting to relay", "url", wsURL)

	c := &Channel{handlers: handlers, logger: logger, state: StateConnecting}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	c.conn = conn

	if err := c.emit(ctx, "join_room", joinRoomPayload{APIKey: apiKey, Role: RoleController}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "join failed")
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("join room: %w", err)
	}
	c.setState(StateJoined)
	logger.Info("Relay room joined", "role", RoleController)

	pumpCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	go c.readPump(pumpCtx)

	return c, nil
}

// State returns the current channel state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SendCommand emits a command tagged with the pairing credential.
// Fire-and-forget: no acknowledgment is modeled.
func (c *Channel) SendCommand(ctx context.Context, apiKey, command string) error {
	if c.State() != StateJoined {
		return ErrNotJoined
	}
	return c.emit(ctx, "send_command", sendCommandPayload{APIKey: apiKey, Command: command})
}

func (c *Channel) emit(ctx context.Context, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", event, err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	return nil
}

// Close tears down the transport. Safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateDisconnected
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := c.conn.Close(websocket.StatusNormalClosure, "session ended"); err != nil {
		c.logger.Debug("Failed to close relay websocket", "error", err)
	}
	return nil
}

func (c *Channel) readPump(ctx context.Context) {
	for {
		_, frame, err := c.conn.Read(ctx)
		if err != nil {
			c.handleReadError(err)
			return
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.logger.Warn("Relay frame is not a valid envelope", "error", err)
			continue
		}

		switch env.Event {
		case "system_message":
			text, err := ExtractReply(env.Data)
			if err != nil {
				c.logger.Warn("Bad system_message payload", "error", err)
				continue
			}
			if c.handlers.OnSystemMessage != nil {
				c.handlers.OnSystemMessage(text)
			}
		case "receive_response":
			text, err := ExtractReply(env.Data)
			if err != nil {
				c.logger.Warn("Bad receive_response payload", "error", err)
				continue
			}
			if c.handlers.OnResponse != nil {
				c.handlers.OnResponse(text, Classify(text))
			}
		default:
			c.logger.Debug("Ignoring unknown relay event", "event", env.Event)
		}
	}
}

// handleReadError distinguishes an orderly local close from a transport
// drop. No automatic reconnection is attempted on a drop; the user
// re-links explicitly.
func (c *Channel) handleReadError(err error) {
	c.mu.Lock()
	wasClosed := c.closed
	c.state = StateDisconnected
	c.mu.Unlock()

	if wasClosed || errors.Is(err, context.Canceled) {
		c.logger.Debug("Relay read pump stopped", "error", err)
		return
	}

	if websocket.CloseStatus(err) != -1 {
		c.logger.Info("Relay closed the connection", "status", websocket.CloseStatus(err))
	} else {
		c.logger.Warn("Relay read error", "error", err)
	}
	if c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect(err)
	}
}
