package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

var ErrNotConnected = errors.New("adapter is not connected")

// Notification is one game-visible thing that happened, pushed to whoever is
// driving the adapter (a UI loop, a test).
type Notification struct {
	Event  string
	Winner gomoku.Cell
	Reason string
	Err    error
}

// Adapter glues one player's local state to the backend. It owns the session
// state machine and a full rule engine, so every move - local or relayed -
// passes through the same validation path. In local modes the connection stays
// nil and nothing touches the network.
type Adapter struct {
	logger *slog.Logger

	mutex   sync.Mutex
	conn    *websocket.Conn
	session *session.Session
	engine  *gomoku.Engine
	bot     *gomoku.Bot

	username string
	roomID   string

	notify   chan Notification
	handlers map[string]func(json.RawMessage) error
}

func New(logger *slog.Logger, boardSize int) *Adapter {
	adapter := &Adapter{
		logger:  logger.With("component", "client"),
		session: session.New(),
		engine:  gomoku.NewEngine(boardSize),
		bot:     gomoku.NewBot(),
		notify:  make(chan Notification, 16),
	}

	adapter.handlers = map[string]func(json.RawMessage) error{
		protocol.EventAssigned:     adapter.onAssigned,
		protocol.EventGameStarted:  adapter.onGameStarted,
		protocol.EventMoved:        adapter.onMoved,
		protocol.EventGameOver:     adapter.onGameOver,
		protocol.EventGameAborted:  adapter.onGameAborted,
		protocol.EventRematchStart: adapter.onRematchStart,
		protocol.EventRoomCreated:  adapter.onRoomCreated,
	}

	return adapter
}

// Notifications delivers game events as they land. The channel is buffered;
// an inattentive consumer loses old notifications, not new moves.
func (that *Adapter) Notifications() <-chan Notification {
	return that.notify
}

// Connect dials the backend and starts the read loop. The session query
// parameter lets the server resume a durable identity across reconnects.
func (that *Adapter) Connect(ctx context.Context, url, sessionID string) error {
	if sessionID != "" {
		url = url + "?session=" + sessionID
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	that.mutex.Lock()
	that.conn = conn
	that.mutex.Unlock()

	go that.readLoop()

	return nil
}

// Close drops the connection, if any.
func (that *Adapter) Close() error {
	that.mutex.Lock()
	conn := that.conn
	that.conn = nil
	that.mutex.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Close()
}

// StartSingle begins a match against the bot. The human plays black and
// therefore moves first.
func (that *Adapter) StartSingle() {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.engine.Reset()
	that.session.SelectMode(session.Single())
}

// StartLocal begins a shared-device match; both sides are human input.
func (that *Adapter) StartLocal() {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.engine.Reset()
	that.session.SelectMode(session.Local())
}

// CreateRoom asks the server for a new room. The session enters online mode
// and waits for a role once the game starts.
func (that *Adapter) CreateRoom(name string, isPrivate bool, password, username string) error {
	that.mutex.Lock()
	that.username = username
	that.mutex.Unlock()

	return that.send(protocol.ActionCreateRoom, protocol.CreateRoomRequest{
		RoomName:  name,
		IsPrivate: isPrivate,
		Password:  password,
		Username:  username,
	})
}

// JoinRoom joins an existing room by ID.
func (that *Adapter) JoinRoom(roomID, password, username string) error {
	that.mutex.Lock()
	that.username = username
	that.roomID = roomID
	that.engine.Reset()
	that.session.SelectMode(session.Online(roomID))
	that.mutex.Unlock()

	return that.send(protocol.ActionJoinRoom, protocol.JoinRoomRequest{
		RoomID:   roomID,
		Password: password,
		Username: username,
	})
}

// QuickMatch enters the matchmaking queue.
func (that *Adapter) QuickMatch(username string) error {
	that.mutex.Lock()
	that.username = username
	that.engine.Reset()
	that.session.SelectMode(session.Online(""))
	that.mutex.Unlock()

	return that.send(protocol.ActionQuickMatch, protocol.QuickMatchRequest{Username: username})
}

func (that *Adapter) LeaveRoom() error {
	return that.send(protocol.ActionLeaveRoom, nil)
}

func (that *Adapter) ToggleReady() error {
	return that.send(protocol.ActionToggleReady, nil)
}

func (that *Adapter) StartGame() error {
	return that.send(protocol.ActionStartGame, nil)
}

func (that *Adapter) RematchRequest() error {
	return that.send(protocol.ActionRematchRequest, nil)
}

func (that *Adapter) RematchAccept() error {
	return that.send(protocol.ActionRematchAccept, nil)
}

func (that *Adapter) RematchDecline() error {
	return that.send(protocol.ActionRematchDecline, nil)
}

// RoomID reports the room this adapter is in, if any.
func (that *Adapter) RoomID() string {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.roomID
}

// State reports the session state for UI gating.
func (that *Adapter) State() session.State {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.session.State()
}

// CurrentTurn reports whose stone goes down next.
func (that *Adapter) CurrentTurn() gomoku.Cell {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.session.CurrentTurn()
}

// MySide reports the local player's color in single and online modes.
func (that *Adapter) MySide() gomoku.Cell {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.session.Mode().MySide
}

// CellAt reads one board cell.
func (that *Adapter) CellAt(p gomoku.Point) gomoku.Cell {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.engine.Board().At(p)
}

// Place handles a local tap on the board. The session gates it, the engine
// validates it, and in online mode it is forwarded to the opponent. Single
// mode answers with a bot move before returning.
func (that *Adapter) Place(p gomoku.Point) error {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	mode := that.session.Mode()
	if mode.Kind == session.ModeOnline && that.conn == nil {
		return ErrNotConnected
	}

	side := that.session.CurrentTurn()
	if mode.Kind == session.ModeSingle || mode.Kind == session.ModeOnline {
		side = mode.MySide
	}

	if err := that.session.CanPlace(side); err != nil {
		return err
	}

	if err := that.engine.PlaceStone(p, side); err != nil {
		return err
	}

	seq := len(that.engine.History())

	if mode.Kind == session.ModeOnline {
		if err := that.sendLocked(protocol.ActionMove, protocol.MoveEvent{
			Row:  p.Row,
			Col:  p.Col,
			Cell: side,
			Seq:  seq,
		}); err != nil {
			return err
		}
	}

	if that.engine.CheckWin(p, side) {
		that.finishLocked(side)
		return nil
	}

	that.session.SwitchTurn()

	if mode.Kind == session.ModeSingle {
		that.botReplyLocked()
	}

	return nil
}

// botReplyLocked makes the bot's answer move in single mode. Runs under the
// adapter mutex; input is gated by the thinking flag while it works.
func (that *Adapter) botReplyLocked() {
	botSide := that.session.Mode().MySide.Opponent()

	that.session.SetBotThinking(true)
	defer that.session.SetBotThinking(false)

	p, err := that.bot.PickMove(that.engine, botSide)
	if err != nil {
		if errors.Is(err, apperror.ErrNoAvailableMoves) {
			that.finishLocked(gomoku.CellEmpty)
			return
		}

		that.logger.Error("bot failed to pick a move", "error", err)
		return
	}

	if err = that.engine.PlaceStone(p, botSide); err != nil {
		that.logger.Error("bot picked an illegal move", "error", err)
		return
	}

	if that.engine.CheckWin(p, botSide) {
		that.finishLocked(botSide)
		return
	}

	that.session.SwitchTurn()
}

// finishLocked ends the match locally and, in online mode, reports the result
// so the server can finish the room and record stats.
func (that *Adapter) finishLocked(winner gomoku.Cell) {
	that.session.Finish()

	if that.session.Mode().Kind == session.ModeOnline {
		if err := that.sendLocked(protocol.ActionGameOver, protocol.GameOverEvent{
			RoomID: that.roomID,
			Winner: winner,
		}); err != nil {
			that.logger.Error("failed to report game over", "error", err)
		}
	}

	that.push(Notification{Event: protocol.EventGameOver, Winner: winner})
}

func (that *Adapter) send(action string, payload any) error {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.sendLocked(action, payload)
}

func (that *Adapter) sendLocked(action string, payload any) error {
	if that.conn == nil {
		return ErrNotConnected
	}

	message := protocol.Message{Action: action}
	if payload != nil {
		message.Payload = protocol.MustMarshal(payload)
	}

	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	return nil
}

func (that *Adapter) readLoop() {
	log := that.logger.With("method", "readLoop")

	for {
		that.mutex.Lock()
		conn := that.conn
		that.mutex.Unlock()

		if conn == nil {
			return
		}

		var message protocol.Message
		if err := conn.ReadJSON(&message); err != nil {
			log.Debug("connection closed", "error", err)
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			continue
		}

		if err := handler(message.Payload); err != nil {
			log.Error("failed to handle event", "event", message.Action, "error", err)
			that.push(Notification{Event: message.Action, Err: err})
		}
	}
}

func (that *Adapter) push(n Notification) {
	select {
	case that.notify <- n:
	default:
	}
}
