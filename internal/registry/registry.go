package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

// Sender delivers events to connected sockets. The websocket transport
// implements it; tests plug in a recorder.
type Sender interface {
	ToSocket(socketID, action string, payload any)
	Broadcast(action string, payload any)
}

type statsProvider interface {
	PlayerStats(ctx context.Context, userID string) *entity.PlayerStats
	RecordResult(ctx context.Context, winnerUserID, loserUserID string)
}

// Registry owns every room and the matchmaking queue for this process. All
// mutable state is confined to the single Run goroutine: public methods post
// closures to the inbox and wait for the reply, so room state needs no locks
// by construction. Anything that leaves the loop - returned rooms, event
// payloads, snapshots - is a clone; live records never escape. Stats lookups
// happen outside the loop so a slow stats service can never stall room
// operations.
type Registry struct {
	logger *slog.Logger
	sender Sender
	stats  statsProvider

	inbox chan func()

	rooms      map[string]*entity.Room
	socketRoom map[string]string
	waiting    *entity.Player
}

func New(logger *slog.Logger, sender Sender, stats statsProvider) *Registry {
	return &Registry{
		logger:     logger.With("component", "registry"),
		sender:     sender,
		stats:      stats,
		inbox:      make(chan func(), 64),
		rooms:      make(map[string]*entity.Room),
		socketRoom: make(map[string]string),
	}
}

// Run processes requests until the context is canceled. Each request runs to
// completion before the next starts.
func (that *Registry) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")
	log.Info("room registry started")

	for {
		select {
		case <-ctx.Done():
			log.Info("room registry stopped")
			return
		case request := <-that.inbox:
			request()
		}
	}
}

// do posts a request to the actor loop and waits for it to finish.
func (that *Registry) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	select {
	case that.inbox <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return fmt.Errorf("registry request not accepted: %w", ctx.Err())
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("registry request not finished: %w", ctx.Err())
	}
}

// CreateRoom registers a new room with the creator as host.
func (that *Registry) CreateRoom(ctx context.Context, name string, isPrivate bool, password string, host *entity.Player) (*entity.Room, error) {
	if host.Username == "" {
		return nil, apperror.ErrUsernameMissing
	}

	passwordHash := ""
	if isPrivate && password != "" {
		passwordHash = pkg.HashPassword(password)
	}

	var room *entity.Room
	var opErr error

	err := that.do(ctx, func() {
		if roomID, ok := that.socketRoom[host.SocketID]; ok {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrAlreadyJoined, roomID)
			return
		}

		created := entity.NewRoom(that.newRoomID(), name, isPrivate, passwordHash)
		if opErr = created.AddPlayer(host); opErr != nil {
			return
		}

		that.rooms[created.ID] = created
		that.socketRoom[host.SocketID] = created.ID
		room = created.Clone()
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}

	that.logger.Info("room created", "roomID", room.ID, "host", host.Username)
	that.publishRoomList(ctx)

	return room, nil
}

// JoinRoom adds a player to an existing room. Each failure mode has its own
// sentinel so the client can show a precise reason.
func (that *Registry) JoinRoom(ctx context.Context, roomID, password string, player *entity.Player) (*entity.Room, error) {
	if player.Username == "" {
		return nil, apperror.ErrUsernameMissing
	}

	var room *entity.Room
	var opErr error

	err := that.do(ctx, func() {
		existing, ok := that.rooms[roomID]
		if !ok {
			opErr = fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
			return
		}

		if existing.PlayerBySocket(player.SocketID) != nil {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrAlreadyJoined, roomID)
			return
		}

		if existing.IsFull() {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrRoomFull, roomID)
			return
		}

		if existing.PasswordHash != "" && pkg.HashPassword(password) != existing.PasswordHash {
			opErr = fmt.Errorf("%w: room %s", apperror.ErrWrongPassword, roomID)
			return
		}

		if opErr = existing.AddPlayer(player); opErr != nil {
			return
		}

		that.socketRoom[player.SocketID] = roomID
		room = existing.Clone()

		that.emitToRoom(existing, protocol.EventPlayerJoined, protocol.PlayerEvent{
			RoomID: existing.ID,
			Player: player.Clone(),
			Room:   room,
		})
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}

	that.publishRoomList(ctx)

	return room, nil
}

// LeaveRoom removes a socket from its room and runs the ordered side effects:
// delete the room when empty, migrate the host, abort a running game, then
// tell the remaining players and the room browsers.
func (that *Registry) LeaveRoom(ctx context.Context, socketID, reason string) error {
	var changed bool

	err := that.do(ctx, func() {
		changed = that.leaveLocked(socketID, reason)
	})
	if err != nil {
		return err
	}

	if changed {
		that.publishRoomList(ctx)
	}

	return nil
}

// leaveLocked runs inside the actor loop. It returns true when any room
// state changed.
func (that *Registry) leaveLocked(socketID, reason string) bool {
	roomID, ok := that.socketRoom[socketID]
	if !ok {
		return false
	}

	delete(that.socketRoom, socketID)

	room, ok := that.rooms[roomID]
	if !ok {
		return false
	}

	wasHost := room.HostSocketID == socketID
	wasPlaying := room.IsPlaying()

	left, ok := room.RemovePlayer(socketID)
	if !ok {
		return false
	}

	if room.IsEmpty() {
		delete(that.rooms, roomID)
		that.logger.Info("room deleted", "roomID", roomID)
		return true
	}

	if wasHost {
		that.emitToRoom(room, protocol.EventHostChanged, protocol.HostChangedEvent{
			RoomID:       room.ID,
			HostSocketID: room.HostSocketID,
		})
	}

	if wasPlaying {
		room.Status = entity.StatusFinished
		that.emitToRoom(room, protocol.EventGameAborted, protocol.AbortedEvent{
			RoomID: room.ID,
			By:     left.Username,
			Reason: reason,
		})
	} else {
		that.emitToRoom(room, protocol.EventPlayerLeft, protocol.PlayerEvent{
			RoomID: room.ID,
			Player: left.Clone(),
			Room:   room.Clone(),
		})
	}

	return true
}

// ToggleReady flips the ready flag of a non-host player.
func (that *Registry) ToggleReady(ctx context.Context, socketID string) error {
	var opErr error

	err := that.do(ctx, func() {
		room, player, findErr := that.findBySocket(socketID)
		if findErr != nil {
			opErr = findErr
			return
		}

		player.IsReady = !player.IsReady

		that.emitToRoom(room, protocol.EventPlayerReady, protocol.PlayerEvent{
			RoomID: room.ID,
			Player: player.Clone(),
			Room:   room.Clone(),
		})
	})
	if err != nil {
		return err
	}

	return opErr
}

// ListRooms returns the current room snapshot enriched with host stats. The
// snapshot is taken inside the actor loop; the stats lookups run out here so
// a slow stats service never blocks other clients. Stats failures degrade to
// zeros and never fail the listing.
func (that *Registry) ListRooms(ctx context.Context) ([]entity.RoomListItem, error) {
	var items []entity.RoomListItem

	err := that.do(ctx, func() {
		items = that.snapshotLocked()
	})
	if err != nil {
		return nil, err
	}

	for i := range items {
		host := hostOf(items[i])
		if host == nil || host.UserID == "" {
			continue
		}

		items[i].HostStats = that.stats.PlayerStats(ctx, host.UserID)
	}

	return items, nil
}

func (that *Registry) snapshotLocked() []entity.RoomListItem {
	items := make([]entity.RoomListItem, 0, len(that.rooms))

	for _, room := range that.rooms {
		players := make([]*entity.Player, 0, len(room.Players))
		for _, player := range room.Players {
			players = append(players, player.Clone())
		}

		item := entity.RoomListItem{
			RoomID:       room.ID,
			RoomName:     room.Name,
			PlayerCount:  len(room.Players),
			MaxPlayers:   room.MaxPlayers,
			IsPrivate:    room.IsPrivate,
			Status:       room.Status,
			Players:      players,
			HostSocketID: room.HostSocketID,
		}

		if host := room.Host(); host != nil {
			item.HostUsername = host.Username
		}

		items = append(items, item)
	}

	return items
}

// Disconnect is the single cleanup path for a dropped socket: matchmaking
// slot, room membership, and rematch votes are released together.
func (that *Registry) Disconnect(ctx context.Context, socketID string) error {
	var changed bool

	err := that.do(ctx, func() {
		if that.waiting != nil && that.waiting.SocketID == socketID {
			that.waiting = nil
		}

		changed = that.leaveLocked(socketID, "disconnected")
	})
	if err != nil {
		return err
	}

	if changed {
		that.publishRoomList(ctx)
	}

	return nil
}

// publishRoomList pushes the enriched snapshot to everyone browsing rooms.
// It runs in its own goroutine so no single handler invocation batches
// cross-room work.
func (that *Registry) publishRoomList(ctx context.Context) {
	go func() {
		items, err := that.ListRooms(ctx)
		if err != nil {
			that.logger.Error("failed to publish room list", "error", err)
			return
		}

		that.sender.Broadcast(protocol.EventRoomListUpdate, protocol.RoomListEvent{Rooms: items})
	}()
}

func (that *Registry) emitToRoom(room *entity.Room, action string, payload any) {
	for _, player := range room.Players {
		that.sender.ToSocket(player.SocketID, action, payload)
	}
}

func (that *Registry) findBySocket(socketID string) (*entity.Room, *entity.Player, error) {
	roomID, ok := that.socketRoom[socketID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: socket %s", apperror.ErrRoomNotFound, socketID)
	}

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	player := room.PlayerBySocket(socketID)
	if player == nil {
		return nil, nil, fmt.Errorf("%w: socket %s", apperror.ErrRoomNotFound, socketID)
	}

	return room, player, nil
}

func (that *Registry) newRoomID() string {
	for {
		id := pkg.GenerateRoomID()
		if _, exists := that.rooms[id]; !exists {
			return id
		}
	}
}

func hostOf(item entity.RoomListItem) *entity.Player {
	for _, player := range item.Players {
		if player.SocketID == item.HostSocketID {
			return player
		}
	}

	return nil
}
