package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

type gameRegistry interface {
	CreateRoom(connID, name string) (*registry.RoomInfo, error)
	JoinRoom(roomID, connID, name string) (*registry.JoinInfo, error)
	ApplyMove(connID string, row, col int) (*registry.MoveInfo, error)
	Restart(connID string) (*registry.RestartInfo, error)
	Leave(connID string) (string, bool)
}

type matchArchive interface {
	CreateOrUpdate(ctx context.Context, record *repository.MatchRecord) error
}

// connection is one live client socket. Writes go through the mutex so
// concurrent broadcasts never interleave frames.
type connection struct {
	id string
	ws *websocket.Conn

	mu sync.Mutex
}

func (that *connection) send(action string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := Message{
		Action:  action,
		Payload: payloadJSON,
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.ws.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Server is the message-dispatch edge: it adapts socket lifecycle and
// inbound actions into registry calls and fans results back out to the
// room's participants.
type Server struct {
	logger   *slog.Logger
	registry gameRegistry
	matches  matchArchive

	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*connection

	handlers map[string]func(connID string, message *Message) error
}

func New(logger *slog.Logger, gameRegistry gameRegistry, matches matchArchive) *Server {
	server := &Server{
		logger:   logger,
		registry: gameRegistry,
		matches:  matches,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		connections: make(map[string]*connection),
		handlers:    make(map[string]func(string, *Message) error),
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionRestart] = server.handleRestartGame
	server.handlers[actionLeaveRoom] = server.handleLeaveRoom

	return server
}

// Handler - exposes the /ws endpoint.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts the WebSocket server and blocks until it fails or the
// context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and runs its read loop.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{
		id: uuid.NewString(),
		ws: ws,
	}

	that.connectionsMutex.Lock()
	that.connections[conn.id] = conn
	that.connectionsMutex.Unlock()

	log.Info("WebSocket connection established", "connID", conn.id)

	that.readLoop(conn)
}

// readLoop - processes messages from the client until the socket drops.
func (that *Server) readLoop(conn *connection) {
	log := that.logger.With("method", "readLoop", "connID", conn.id)

	defer that.handleDisconnect(conn)

	for {
		_, reqBody, err := conn.ws.ReadMessage()
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(conn.id, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// handleDisconnect - tears down whatever room the connection was in and
// tells the remaining participant, if any, that their opponent is gone.
func (that *Server) handleDisconnect(conn *connection) {
	log := that.logger.With("method", "handleDisconnect", "connID", conn.id)

	that.connectionsMutex.Lock()
	delete(that.connections, conn.id)
	that.connectionsMutex.Unlock()

	_ = conn.ws.Close()

	remainingID, ok := that.registry.Leave(conn.id)
	if ok {
		that.sendTo(remainingID, actionOpponentDisconnected, struct{}{})
	}

	log.Info("player disconnected")
}

// sendTo - fire-and-forget unicast to one connection.
func (that *Server) sendTo(connID, action string, payload any) {
	that.connectionsMutex.RLock()
	conn, ok := that.connections[connID]
	that.connectionsMutex.RUnlock()

	if !ok {
		that.logger.Warn("connection not found", "connID", connID, "action", action)
		return
	}

	if err := conn.send(action, payload); err != nil {
		that.logger.Error("failed to send message", "connID", connID, "action", action, "error", err)
	}
}

// broadcast - fire-and-forget fan-out to every participant of a room.
func (that *Server) broadcast(connIDs []string, action string, payload any) {
	for _, connID := range connIDs {
		that.sendTo(connID, action, payload)
	}
}
