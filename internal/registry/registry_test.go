package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

type sentEvent struct {
	SocketID string
	Action   string
	Payload  any
}

// fakeSender records everything the registry emits.
type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (that *fakeSender) ToSocket(socketID, action string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, sentEvent{SocketID: socketID, Action: action, Payload: payload})
}

func (that *fakeSender) Broadcast(action string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, sentEvent{Action: action, Payload: payload})
}

func (that *fakeSender) count(socketID, action string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	n := 0
	for _, event := range that.events {
		if event.SocketID == socketID && event.Action == action {
			n++
		}
	}

	return n
}

func (that *fakeSender) last(socketID, action string) (sentEvent, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i := len(that.events) - 1; i >= 0; i-- {
		if that.events[i].SocketID == socketID && that.events[i].Action == action {
			return that.events[i], true
		}
	}

	return sentEvent{}, false
}

// fakeStats records result reports and serves canned records.
type fakeStats struct {
	mu      sync.Mutex
	records [][2]string
	stats   map[string]*entity.PlayerStats
}

func (that *fakeStats) PlayerStats(_ context.Context, userID string) *entity.PlayerStats {
	that.mu.Lock()
	defer that.mu.Unlock()

	if stats, ok := that.stats[userID]; ok {
		return stats
	}

	return &entity.PlayerStats{}
}

func (that *fakeStats) RecordResult(_ context.Context, winnerUserID, loserUserID string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.records = append(that.records, [2]string{winnerUserID, loserUserID})
}

func (that *fakeStats) recorded() [][2]string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([][2]string(nil), that.records...)
}

func newTestRegistry(t *testing.T) (context.Context, *Registry, *fakeSender, *fakeStats) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	sender := &fakeSender{}
	stats := &fakeStats{stats: make(map[string]*entity.PlayerStats)}

	reg := New(logger, sender, stats)
	go reg.Run(ctx)

	return ctx, reg, sender, stats
}

func player(socketID, username string) *entity.Player {
	return &entity.Player{SocketID: socketID, UserID: "u-" + socketID, Username: username}
}

// fullRoom creates a room with a host and a ready guest and returns it.
func fullRoom(t *testing.T, ctx context.Context, reg *Registry) *entity.Room {
	t.Helper()

	room, err := reg.CreateRoom(ctx, "test room", false, "", player("s1", "alice"))
	require.NoError(t, err)

	_, err = reg.JoinRoom(ctx, room.ID, "", player("s2", "bob"))
	require.NoError(t, err)

	require.NoError(t, reg.ToggleReady(ctx, "s2"))

	return room
}

func TestRegistry_CreateRoom(t *testing.T) {
	t.Run("Creates a room with the creator as host", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		// When: a room is created
		room, err := reg.CreateRoom(ctx, "my room", false, "", player("s1", "alice"))

		// Then: the creator hosts a waiting room
		require.NoError(t, err)
		assert.Equal(t, "s1", room.HostSocketID)
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.Len(t, room.Players, 1)
	})

	t.Run("Returned room is a detached copy", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		// Given: the room handed back at creation
		room, err := reg.CreateRoom(ctx, "my room", false, "", player("s1", "alice"))
		require.NoError(t, err)
		require.Len(t, room.Players, 1)

		// When: a guest joins afterwards
		_, err = reg.JoinRoom(ctx, room.ID, "", player("s2", "bob"))
		require.NoError(t, err)

		// Then: the earlier copy is untouched
		assert.Len(t, room.Players, 1)
	})

	t.Run("Rejects a creator without a username", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		// When: the creator has no username
		_, err := reg.CreateRoom(ctx, "my room", false, "", &entity.Player{SocketID: "s1"})

		// Then: validation fails
		require.ErrorIs(t, err, apperror.ErrUsernameMissing)
	})

	t.Run("Rejects a creator already in a room", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		_, err := reg.CreateRoom(ctx, "first", false, "", player("s1", "alice"))
		require.NoError(t, err)

		// When: the same socket creates again
		_, err = reg.CreateRoom(ctx, "second", false, "", player("s1", "alice"))

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)
	})
}

func TestRegistry_JoinRoom(t *testing.T) {
	t.Run("Distinct failure reasons", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		room, err := reg.CreateRoom(ctx, "locked", true, "hunter2", player("s1", "alice"))
		require.NoError(t, err)

		// When/Then: unknown room
		_, err = reg.JoinRoom(ctx, "NOPE42", "", player("s2", "bob"))
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		// When/Then: wrong password
		_, err = reg.JoinRoom(ctx, room.ID, "wrong", player("s2", "bob"))
		require.ErrorIs(t, err, apperror.ErrWrongPassword)

		// When/Then: missing username
		_, err = reg.JoinRoom(ctx, room.ID, "hunter2", &entity.Player{SocketID: "s2"})
		require.ErrorIs(t, err, apperror.ErrUsernameMissing)

		// Given: the room fills up
		_, err = reg.JoinRoom(ctx, room.ID, "hunter2", player("s2", "bob"))
		require.NoError(t, err)

		// When/Then: already joined
		_, err = reg.JoinRoom(ctx, room.ID, "hunter2", player("s2", "bob"))
		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)

		// When/Then: room full
		_, err = reg.JoinRoom(ctx, room.ID, "hunter2", player("s3", "carol"))
		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	t.Run("Join notifies everyone in the room", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)

		room, err := reg.CreateRoom(ctx, "open", false, "", player("s1", "alice"))
		require.NoError(t, err)

		// When: a guest joins
		_, err = reg.JoinRoom(ctx, room.ID, "", player("s2", "bob"))
		require.NoError(t, err)

		// Then: both sockets hear about it
		assert.Equal(t, 1, sender.count("s1", protocol.EventPlayerJoined))
		assert.Equal(t, 1, sender.count("s2", protocol.EventPlayerJoined))
	})
}

func TestRegistry_LeaveRoom(t *testing.T) {
	t.Run("Leaving a waiting room never aborts", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)

		// When: the guest leaves before the game starts
		require.NoError(t, reg.LeaveRoom(ctx, "s2", "left"))

		// Then: a normal player-left event, no abort
		assert.Equal(t, 1, sender.count("s1", protocol.EventPlayerLeft))
		assert.Equal(t, 0, sender.count("s1", protocol.EventGameAborted))
	})

	t.Run("Leaving a playing room aborts exactly once", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)
		require.NoError(t, reg.StartGame(ctx, "s1"))

		// When: the guest leaves mid-game
		require.NoError(t, reg.LeaveRoom(ctx, "s2", "left"))

		// Then: exactly one aborted broadcast naming the leaver
		require.Equal(t, 1, sender.count("s1", protocol.EventGameAborted))

		event, ok := sender.last("s1", protocol.EventGameAborted)
		require.True(t, ok)
		aborted, ok := event.Payload.(protocol.AbortedEvent)
		require.True(t, ok)
		assert.Equal(t, "bob", aborted.By)
		assert.Equal(t, "left", aborted.Reason)
	})

	t.Run("Host leaving promotes the guest and broadcasts it", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		room := fullRoom(t, ctx, reg)

		// When: the host leaves
		require.NoError(t, reg.LeaveRoom(ctx, "s1", "left"))

		// Then: the guest hears about the host change
		require.Equal(t, 1, sender.count("s2", protocol.EventHostChanged))

		event, _ := sender.last("s2", protocol.EventHostChanged)
		changed, ok := event.Payload.(protocol.HostChangedEvent)
		require.True(t, ok)
		assert.Equal(t, room.ID, changed.RoomID)
		assert.Equal(t, "s2", changed.HostSocketID)
	})

	t.Run("Room disappears when the last player leaves", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		room := fullRoom(t, ctx, reg)

		// When: both players leave
		require.NoError(t, reg.LeaveRoom(ctx, "s2", "left"))
		require.NoError(t, reg.LeaveRoom(ctx, "s1", "left"))

		// Then: the room is gone
		items, err := reg.ListRooms(ctx)
		require.NoError(t, err)
		for _, item := range items {
			assert.NotEqual(t, room.ID, item.RoomID)
		}
	})
}

func TestRegistry_StartGame(t *testing.T) {
	t.Run("Only the host can start", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)

		// When: the guest tries to start
		err := reg.StartGame(ctx, "s2")

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrNotHost)
	})

	t.Run("Guests must be ready", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		room, err := reg.CreateRoom(ctx, "room", false, "", player("s1", "alice"))
		require.NoError(t, err)
		_, err = reg.JoinRoom(ctx, room.ID, "", player("s2", "bob"))
		require.NoError(t, err)

		// When: the host starts with an unready guest
		err = reg.StartGame(ctx, "s1")

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrPlayersNotReady)
	})

	t.Run("Start assigns sides individually and announces room wide", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)

		// When: the host starts the game
		require.NoError(t, reg.StartGame(ctx, "s1"))

		// Then: each socket gets its own side, host playing black
		hostEvent, ok := sender.last("s1", protocol.EventAssigned)
		require.True(t, ok)
		assert.Equal(t, gomoku.CellBlack, hostEvent.Payload.(protocol.AssignedEvent).Side)

		guestEvent, ok := sender.last("s2", protocol.EventAssigned)
		require.True(t, ok)
		assert.Equal(t, gomoku.CellWhite, guestEvent.Payload.(protocol.AssignedEvent).Side)

		// Then: the room wide start event reaches both
		assert.Equal(t, 1, sender.count("s1", protocol.EventGameStarted))
		assert.Equal(t, 1, sender.count("s2", protocol.EventGameStarted))
	})
}

func TestRegistry_RelayMove(t *testing.T) {
	t.Run("Forwards to the opponent only", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		room := fullRoom(t, ctx, reg)
		require.NoError(t, reg.StartGame(ctx, "s1"))

		// When: the host relays a move
		move := protocol.MoveEvent{Row: 7, Col: 7, Cell: gomoku.CellBlack, Seq: 1}
		require.NoError(t, reg.RelayMove(ctx, "s1", move))

		// Then: only the guest receives it, unmodified apart from the room id
		require.Equal(t, 1, sender.count("s2", protocol.EventMoved))
		assert.Equal(t, 0, sender.count("s1", protocol.EventMoved))

		event, _ := sender.last("s2", protocol.EventMoved)
		relayed := event.Payload.(protocol.MoveEvent)
		assert.Equal(t, room.ID, relayed.RoomID)
		assert.Equal(t, 7, relayed.Row)
		assert.Equal(t, 7, relayed.Col)
		assert.Equal(t, gomoku.CellBlack, relayed.Cell)
		assert.Equal(t, 1, relayed.Seq)
	})

	t.Run("Rejected while the room is not playing", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)

		// When: a move arrives before the game starts
		err := reg.RelayMove(ctx, "s1", protocol.MoveEvent{Row: 7, Col: 7, Cell: gomoku.CellBlack})

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrRoomNotPlaying)
	})
}

func TestRegistry_GameOver(t *testing.T) {
	t.Run("Finishes the room and records the result", func(t *testing.T) {
		ctx, reg, sender, stats := newTestRegistry(t)
		fullRoom(t, ctx, reg)
		require.NoError(t, reg.StartGame(ctx, "s1"))

		// When: the host reports black won
		require.NoError(t, reg.GameOver(ctx, "s1", gomoku.CellBlack))

		// Then: both sockets hear the result
		assert.Equal(t, 1, sender.count("s1", protocol.EventGameOver))
		assert.Equal(t, 1, sender.count("s2", protocol.EventGameOver))

		// Then: the stats service eventually hears winner and loser
		require.Eventually(t, func() bool {
			records := stats.recorded()
			return len(records) == 1 && records[0] == [2]string{"u-s1", "u-s2"}
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Matchmade rooms are deleted after the game", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		// Given: a matchmade pair
		require.NoError(t, reg.QuickMatch(ctx, player("s1", "alice")))
		require.NoError(t, reg.QuickMatch(ctx, player("s2", "bob")))

		// When: the game ends
		require.NoError(t, reg.GameOver(ctx, "s1", gomoku.CellWhite))

		// Then: the room is gone
		items, err := reg.ListRooms(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestRegistry_QuickMatch(t *testing.T) {
	t.Run("First requester waits, second pairs", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)

		// When: the first player queues
		require.NoError(t, reg.QuickMatch(ctx, player("s1", "alice")))

		// Then: they get a waiting acknowledgement
		assert.Equal(t, 1, sender.count("s1", protocol.EventWaiting))

		// When: a second player queues
		require.NoError(t, reg.QuickMatch(ctx, player("s2", "bob")))

		// Then: both are in a started game, first-waiting playing black
		firstAssigned, ok := sender.last("s1", protocol.EventAssigned)
		require.True(t, ok)
		assert.Equal(t, gomoku.CellBlack, firstAssigned.Payload.(protocol.AssignedEvent).Side)

		secondAssigned, ok := sender.last("s2", protocol.EventAssigned)
		require.True(t, ok)
		assert.Equal(t, gomoku.CellWhite, secondAssigned.Payload.(protocol.AssignedEvent).Side)
	})

	t.Run("Guards against double queueing", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		require.NoError(t, reg.QuickMatch(ctx, player("s1", "alice")))

		// When: the same socket queues again
		err := reg.QuickMatch(ctx, player("s1", "alice"))

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrAlreadyQueued)
	})
}

func TestRegistry_Rematch(t *testing.T) {
	finishedRoom := func(t *testing.T, ctx context.Context, reg *Registry) {
		t.Helper()
		fullRoom(t, ctx, reg)
		require.NoError(t, reg.StartGame(ctx, "s1"))
		require.NoError(t, reg.GameOver(ctx, "s1", gomoku.CellBlack))
	}

	t.Run("Starts only after everyone accepts", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		finishedRoom(t, ctx, reg)

		// When: one player requests a rematch
		require.NoError(t, reg.RematchRequest(ctx, "s1"))

		// Then: no rematch start yet
		assert.Equal(t, 0, sender.count("s1", protocol.EventRematchStart))

		// When: the other player accepts
		require.NoError(t, reg.RematchAccept(ctx, "s2"))

		// Then: the rematch starts for both with fresh side assignments
		assert.Equal(t, 1, sender.count("s1", protocol.EventRematchStart))
		assert.Equal(t, 1, sender.count("s2", protocol.EventRematchStart))
		assert.GreaterOrEqual(t, sender.count("s2", protocol.EventAssigned), 2)
	})

	t.Run("A single decline clears all votes", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)
		finishedRoom(t, ctx, reg)

		// Given: a pending request
		require.NoError(t, reg.RematchRequest(ctx, "s1"))

		// When: the other player declines
		require.NoError(t, reg.RematchDecline(ctx, "s2"))

		// Then: the decline is broadcast and a late accept cannot start anything
		event, ok := sender.last("s1", protocol.EventRematchVote)
		require.True(t, ok)
		assert.False(t, event.Payload.(protocol.RematchVoteEvent).Accepted)

		require.NoError(t, reg.RematchAccept(ctx, "s2"))
		assert.Equal(t, 0, sender.count("s1", protocol.EventRematchStart))
	})

	t.Run("Rejected while the game is still running", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)
		require.NoError(t, reg.StartGame(ctx, "s1"))

		// When: a rematch is requested mid-game
		err := reg.RematchRequest(ctx, "s1")

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrGameNotFinished)
	})
}

func TestRegistry_ListRooms(t *testing.T) {
	t.Run("Enriches hosts with stats", func(t *testing.T) {
		ctx, reg, _, stats := newTestRegistry(t)
		stats.stats["u-s1"] = &entity.PlayerStats{Wins: 4, Losses: 2, WinRate: 0.66, TotalGames: 6}

		_, err := reg.CreateRoom(ctx, "room", false, "", player("s1", "alice"))
		require.NoError(t, err)

		// When: listing rooms
		items, err := reg.ListRooms(ctx)

		// Then: the host's record is attached
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "alice", items[0].HostUsername)
		require.NotNil(t, items[0].HostStats)
		assert.Equal(t, 4, items[0].HostStats.Wins)
	})

	t.Run("Snapshot is isolated from later room mutations", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		room := fullRoom(t, ctx, reg)

		// Given: a snapshot taken before anything changes
		items, err := reg.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)

		guest := items[0].Players[1]
		wasReady := guest.IsReady

		// When: the guest flips ready after the snapshot
		require.NoError(t, reg.ToggleReady(ctx, guest.SocketID))

		// Then: the snapshot still shows the old state
		assert.Equal(t, wasReady, items[0].Players[1].IsReady)
		assert.Equal(t, room.ID, items[0].RoomID)
	})

	t.Run("Concurrent listing never sees a half-written player", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)
		fullRoom(t, ctx, reg)

		// Given: a writer flipping ready in a loop
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 200; i++ {
				_ = reg.ToggleReady(ctx, "s2")
			}
		}()

		// When: listings marshal concurrently with the writes
		for {
			items, err := reg.ListRooms(ctx)
			require.NoError(t, err)

			_, err = json.Marshal(items)
			require.NoError(t, err)

			select {
			case <-done:
				return
			default:
			}
		}
	})

	t.Run("Stats failures degrade to zeros", func(t *testing.T) {
		ctx, reg, _, _ := newTestRegistry(t)

		_, err := reg.CreateRoom(ctx, "room", false, "", player("s1", "alice"))
		require.NoError(t, err)

		// When: listing rooms with no stats available
		items, err := reg.ListRooms(ctx)

		// Then: the listing still succeeds with a zero record
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].HostStats)
		assert.Zero(t, items[0].HostStats.TotalGames)
	})
}

func TestRegistry_Disconnect(t *testing.T) {
	t.Run("Releases queue slot and room membership together", func(t *testing.T) {
		ctx, reg, sender, _ := newTestRegistry(t)

		// Given: a player waiting in matchmaking
		require.NoError(t, reg.QuickMatch(ctx, player("s0", "zoe")))

		// Given: a playing room
		fullRoom(t, ctx, reg)
		require.NoError(t, reg.StartGame(ctx, "s1"))

		// When: the queued player and a room player both disconnect
		require.NoError(t, reg.Disconnect(ctx, "s0"))
		require.NoError(t, reg.Disconnect(ctx, "s2"))

		// Then: the queue slot is free again
		require.NoError(t, reg.QuickMatch(ctx, player("s9", "nina")))
		assert.Equal(t, 1, sender.count("s9", protocol.EventWaiting))

		// Then: the room aborted with the disconnect reason
		event, ok := sender.last("s1", protocol.EventGameAborted)
		require.True(t, ok)
		assert.Equal(t, "disconnected", event.Payload.(protocol.AbortedEvent).Reason)
	})
}
