package room

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hidden-quest/internal/config"
	"hidden-quest/internal/game"
	"hidden-quest/internal/shared"
	"hidden-quest/internal/store"
)

type sent struct {
	code, playerID, action string
	data                   interface{}
}

type recorder struct {
	mu  sync.Mutex
	out []sent
}

func (r *recorder) Broadcast(code, action string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, sent{code: code, action: action, data: data})
}

func (r *recorder) SendTo(code, playerID, action string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, sent{code: code, playerID: playerID, action: action, data: data})
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var a []string
	for _, s := range r.out {
		a = append(a, s.action)
	}
	return a
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

type fixture struct {
	m     *Manager
	st    *store.MemoryStore
	bc    *recorder
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		st:    store.NewMemoryStore(),
		bc:    &recorder{},
		clock: &fakeClock{t: time.Date(2026, time.May, 1, 18, 0, 0, 0, time.UTC)},
	}
	f.m = f.manager(1)
	return f
}

// manager builds another manager over the same store, as a restarted process
// would.
func (f *fixture) manager(seed int64) *Manager {
	rng := rand.New(rand.NewSource(seed))
	return NewManager(f.st, config.Default(), f.bc, zap.NewNop(),
		WithClock(f.clock.now),
		WithRand(rand.New(rand.NewSource(seed))),
		WithGameOptions(game.WithRand(rng), game.WithRoller(game.NewRoller(rng))),
	)
}

// lobby creates a room with a host and n-1 joined players, all ready.
func (f *fixture) lobby(t *testing.T, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	rep, err := f.m.CreateRoom(ctx, "Host", "c0")
	require.NoError(t, err)
	require.True(t, rep.Accepted)
	code, ids := rep.Room.Code, []string{rep.PlayerID}
	for i := 1; i < n; i++ {
		rep, err := f.m.JoinRoom(ctx, code, fmt.Sprintf("Player %d", i), fmt.Sprintf("c%d", i))
		require.NoError(t, err)
		require.True(t, rep.Accepted, rep.Message)
		_, err = f.m.SetReady(ctx, code, rep.PlayerID, true)
		require.NoError(t, err)
		ids = append(ids, rep.PlayerID)
	}
	return code, ids
}

// started runs a full lobby through quest selection.
func (f *fixture) started(t *testing.T, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	code, ids := f.lobby(t, n)
	rep, err := f.m.StartGame(ctx, code, ids[0])
	require.NoError(t, err)
	require.True(t, rep.Accepted, rep.Message)
	for _, id := range ids {
		pv, err := f.m.Private(ctx, code, id)
		require.NoError(t, err)
		require.NotEmpty(t, pv.Private.QuestOptions)
		rep, err := f.m.SelectQuest(ctx, code, id, pv.Private.QuestOptions[0].ID)
		require.NoError(t, err)
		require.True(t, rep.Accepted, rep.Message)
	}
	return code, ids
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	rep, err := f.m.CreateRoom(context.Background(), "  Alice  ", "conn-1")
	require.NoError(t, err)
	require.True(t, rep.Accepted)

	code := rep.Room.Code
	assert.Len(t, code, codeLength)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}
	require.Len(t, rep.Room.Members, 1)
	host := rep.Room.Members[0]
	assert.Equal(t, "Alice", host.Name)
	assert.True(t, host.IsHost)
	assert.True(t, host.Ready, "the host is ready from the start")
	assert.Equal(t, rep.PlayerID, rep.Room.HostID)
	assert.Equal(t, StatusWaiting, rep.Room.Status)

	_, ok, err := f.st.Get(context.Background(), roomKey(code))
	require.NoError(t, err)
	assert.True(t, ok)

	rep, err = f.m.CreateRoom(context.Background(), "!", "conn-2")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeInvalidName, rep.Code)
}

func TestJoinRoomRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, _ := f.lobby(t, 2)

	rep, err := f.m.JoinRoom(ctx, strings.ToLower(code), "Carol", "c9")
	require.NoError(t, err)
	assert.True(t, rep.Accepted, "codes are case-insensitive")

	cases := []struct {
		name, code, player string
		want               shared.Code
	}{
		{"duplicate name ignores case", code, "PLAYER 1", shared.CodeDuplicateName},
		{"name too short", code, "x", shared.CodeInvalidName},
		{"name with symbols", code, "bob!", shared.CodeInvalidName},
		{"malformed code", "abc", "Dave", shared.CodeInvalidCode},
		{"unknown code", "222222", "Dave", shared.CodeRoomNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep, err := f.m.JoinRoom(ctx, tc.code, tc.player, "cx")
			require.NoError(t, err)
			assert.False(t, rep.Accepted)
			assert.Equal(t, tc.want, rep.Code)
		})
	}
}

func TestJoinRoomFull(t *testing.T) {
	f := newFixture(t)
	code, _ := f.lobby(t, 6)
	rep, err := f.m.JoinRoom(context.Background(), code, "Late", "c7")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeRoomFull, rep.Code)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	code, _ := f.lobby(t, 1)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rep, err := f.m.JoinRoom(context.Background(), code, fmt.Sprintf("Racer %d", i), "")
			assert.NoError(t, err)
			if rep.Accepted {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.Equal(t, shared.CodeRoomFull, rep.Code)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, accepted)
}

func TestStartRequiresFourReadyPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.lobby(t, 3)

	ok, reason, err := f.m.CanStart(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "need more players", reason)

	rep, err := f.m.StartGame(ctx, code, ids[0])
	require.NoError(t, err)
	assert.Equal(t, shared.CodeNeedMorePlayers, rep.Code)

	join, err := f.m.JoinRoom(ctx, code, "Fourth", "c4")
	require.NoError(t, err)
	ok, reason, err = f.m.CanStart(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "not all players are ready", reason)

	rep, err = f.m.StartGame(ctx, code, ids[0])
	require.NoError(t, err)
	assert.Equal(t, shared.CodeNotAllReady, rep.Code)

	_, err = f.m.SetReady(ctx, code, join.PlayerID, true)
	require.NoError(t, err)
	ok, _, err = f.m.CanStart(ctx, code)
	require.NoError(t, err)
	assert.True(t, ok)

	rep, err = f.m.StartGame(ctx, code, ids[1])
	require.NoError(t, err)
	assert.Equal(t, shared.CodeNotHost, rep.Code)

	rep, err = f.m.StartGame(ctx, code, ids[0])
	require.NoError(t, err)
	require.True(t, rep.Accepted)
	assert.Equal(t, StatusQuestSelection, rep.Room.Status)
	assert.NotEmpty(t, rep.Room.GameID)
	require.NotNil(t, rep.State)
	assert.Equal(t, game.StageQuestSelection, rep.State.Stage)
	require.NotNil(t, rep.Private)
	assert.Len(t, rep.Private.QuestOptions, game.DefaultRules().QuestChoices)

	rep, err = f.m.JoinRoom(ctx, code, "Fifth", "c5")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeAlreadyStarted, rep.Code)

	rep, err = f.m.SetReady(ctx, code, ids[1], false)
	require.NoError(t, err)
	assert.Equal(t, shared.CodeAlreadyStarted, rep.Code)
}

func TestLeaveBeforeStartTransfersHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.lobby(t, 3)

	rep, err := f.m.LeaveRoom(ctx, code, ids[0])
	require.NoError(t, err)
	require.True(t, rep.Accepted)
	assert.Equal(t, ids[1], rep.Room.HostID)
	require.Len(t, rep.Room.Members, 2)
	assert.True(t, rep.Room.Members[0].IsHost)

	_, ok, err := f.m.Locate(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, ok, "a departed lobby member is no longer indexed")

	rep, err = f.m.LeaveRoom(ctx, code, ids[0])
	require.NoError(t, err)
	assert.Equal(t, shared.CodePlayerNotFound, rep.Code)

	for _, id := range ids[1:] {
		rep, err = f.m.LeaveRoom(ctx, code, id)
		require.NoError(t, err)
		require.True(t, rep.Accepted)
	}
	assert.Contains(t, f.bc.actions(), EventRoomClosed)

	rep, err = f.m.Room(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, shared.CodeRoomNotFound, rep.Code)
	_, ok, err = f.st.Get(ctx, roomKey(code))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaveAfterStartOnlyDisconnects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.started(t, 4)

	rep, err := f.m.LeaveRoom(ctx, code, ids[2])
	require.NoError(t, err)
	require.True(t, rep.Accepted)
	require.Len(t, rep.Room.Members, 4)
	assert.False(t, rep.Room.Members[2].Connected)

	room, err := f.m.Room(ctx, code)
	require.NoError(t, err)
	for _, p := range room.State.Players {
		assert.Equal(t, p.ID != ids[2], p.Connected)
	}

	rep, err = f.m.Reconnect(ctx, code, ids[2], "fresh")
	require.NoError(t, err)
	require.True(t, rep.Accepted)
	assert.True(t, rep.Room.Members[2].Connected)
	require.NotNil(t, rep.State)
	require.NotNil(t, rep.Private)
	assert.Equal(t, ids[2], rep.Private.PlayerID)
	assert.NotEmpty(t, rep.Private.Hand)
	require.NotNil(t, rep.Private.Quest)

	found, ok, err := f.m.Locate(ctx, ids[2])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, code, found)

	rep, err = f.m.Reconnect(ctx, code, "nobody", "x")
	require.NoError(t, err)
	assert.Equal(t, shared.CodePlayerNotFound, rep.Code)
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.lobby(t, 3)

	// a stale connection does not evict a member who reattached elsewhere
	require.NoError(t, f.m.Disconnect(ctx, code, ids[1], "old-conn"))
	rep, err := f.m.Room(ctx, code)
	require.NoError(t, err)
	assert.Len(t, rep.Room.Members, 3)

	require.NoError(t, f.m.Disconnect(ctx, code, ids[1], "c1"))
	rep, err = f.m.Room(ctx, code)
	require.NoError(t, err)
	assert.Len(t, rep.Room.Members, 2, "members leave rooms that have not started")
}

func TestReconnectWithoutSocketKeepsConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.started(t, 4)

	rep, err := f.m.Reconnect(ctx, code, ids[1], "")
	require.NoError(t, err)
	require.True(t, rep.Accepted)

	// the socket that was live before the REST call still owns the seat
	require.NoError(t, f.m.Disconnect(ctx, code, ids[1], "c1"))
	room, err := f.m.Room(ctx, code)
	require.NoError(t, err)
	assert.False(t, room.Room.Members[1].Connected)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host, err := f.m.CreateRoom(ctx, "Host", "c0")
	require.NoError(t, err)
	require.NotEmpty(t, host.Token)
	code := host.Room.Code
	guest, err := f.m.JoinRoom(ctx, code, "Guest", "c1")
	require.NoError(t, err)
	require.NotEmpty(t, guest.Token)
	assert.NotEqual(t, host.Token, guest.Token)
	bot, err := f.m.AddBot(ctx, code, host.PlayerID)
	require.NoError(t, err)
	require.True(t, bot.Accepted)
	assert.Empty(t, bot.Token)

	rep, err := f.m.Authorize(ctx, code, guest.PlayerID, guest.Token)
	require.NoError(t, err)
	assert.True(t, rep.Accepted)

	for _, tc := range []struct {
		name, id, token string
		want            shared.Code
	}{
		{"other seat's token", guest.PlayerID, host.Token, shared.CodeInvalidToken},
		{"empty token", guest.PlayerID, "", shared.CodeInvalidToken},
		{"bot seat", bot.PlayerID, "", shared.CodeInvalidToken},
		{"unknown player", "nobody", guest.Token, shared.CodePlayerNotFound},
	} {
		rep, err := f.m.Authorize(ctx, code, tc.id, tc.token)
		require.NoError(t, err, tc.name)
		assert.False(t, rep.Accepted, tc.name)
		assert.Equal(t, tc.want, rep.Code, tc.name)
	}

	// tokens never reach the shared room view
	b, err := json.Marshal(guest.Room)
	require.NoError(t, err)
	assert.NotContains(t, string(b), guest.Token)
	assert.NotContains(t, string(b), host.Token)

	// and survive a restart
	rep, err = f.manager(2).Authorize(ctx, code, host.PlayerID, host.Token)
	require.NoError(t, err)
	assert.True(t, rep.Accepted)
}

func TestQuestSelectionStartsPlay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.lobby(t, 4)
	_, err := f.m.StartGame(ctx, code, ids[0])
	require.NoError(t, err)

	rep, err := f.m.SelectQuest(ctx, code, ids[0], "not-offered")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeQuestNotOffered, rep.Code)

	for i, id := range ids {
		pv, err := f.m.Private(ctx, code, id)
		require.NoError(t, err)
		rep, err := f.m.SelectQuest(ctx, code, id, pv.Private.QuestOptions[0].ID)
		require.NoError(t, err)
		require.True(t, rep.Accepted)
		want := StatusQuestSelection
		if i == len(ids)-1 {
			want = StatusPlaying
		}
		room, err := f.m.Room(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, want, room.Room.Status)
	}

	rep, err = f.m.SelectQuest(ctx, code, ids[0], "quest_01")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeQuestHeld, rep.Code)
}

func TestActionsForwardToSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, ids := f.started(t, 4)

	room, err := f.m.Room(ctx, code)
	require.NoError(t, err)
	cur := room.State.CurrentPlayerID
	var other string
	for _, id := range ids {
		if id != cur {
			other = id
			break
		}
	}

	rep, err := f.m.Draw(ctx, code, other)
	require.NoError(t, err)
	assert.False(t, rep.Accepted)
	assert.Equal(t, shared.CodeNotYourTurn, rep.Code)

	before, ok, err := f.st.Get(ctx, sessionKey(room.Room.ID))
	require.NoError(t, err)
	require.True(t, ok)

	rep, err = f.m.Draw(ctx, code, cur)
	require.NoError(t, err)
	require.True(t, rep.Accepted, rep.Message)
	require.NotNil(t, rep.Private)
	// a Bard draws two
	assert.GreaterOrEqual(t, len(rep.Private.Hand), game.DefaultRules().StartingHand+1)
	assert.Equal(t, game.PhaseAction, rep.State.Phase)
	hand := rep.Private.Hand

	after, _, err := f.st.Get(ctx, sessionKey(room.Room.ID))
	require.NoError(t, err)
	assert.NotEqual(t, string(before), string(after), "accepted actions are persisted")

	rep, err = f.m.PlayCard(ctx, code, cur, "no-such-card", "")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeCardNotInHand, rep.Code)

	rep, err = f.m.Discard(ctx, code, cur, hand[0].ID)
	require.NoError(t, err)
	assert.True(t, rep.Accepted)

	rep, err = f.m.EndTurn(ctx, code, cur)
	require.NoError(t, err)
	assert.True(t, rep.Accepted, rep.Message)
	assert.NotEqual(t, cur, rep.State.CurrentPlayerID)

	rep, err = f.m.Draw(ctx, code, "stranger")
	require.NoError(t, err)
	assert.Equal(t, shared.CodePlayerNotFound, rep.Code)
}

func TestActionsBeforeStart(t *testing.T) {
	f := newFixture(t)
	code, ids := f.lobby(t, 4)
	rep, err := f.m.Draw(context.Background(), code, ids[0])
	require.NoError(t, err)
	assert.Equal(t, shared.CodeNotPlaying, rep.Code)
}

func TestPrivateDataOnlyGoesToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, _ := f.started(t, 4)
	room, err := f.m.Room(ctx, code)
	require.NoError(t, err)
	_, err = f.m.Draw(ctx, code, room.State.CurrentPlayerID)
	require.NoError(t, err)

	f.bc.mu.Lock()
	defer f.bc.mu.Unlock()
	privates := 0
	for _, s := range f.bc.out {
		switch s.action {
		case EventPrivateData, EventQuestOptions:
			assert.NotEmpty(t, s.playerID, "%s must be addressed", s.action)
			if pv, ok := s.data.(*game.PrivateView); ok {
				assert.Equal(t, s.playerID, pv.PlayerID)
			}
			privates++
		default:
			assert.Empty(t, s.playerID)
		}
	}
	assert.NotZero(t, privates)
}

func TestRehydrateFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, _ := f.started(t, 5)
	before, err := f.m.Room(ctx, code)
	require.NoError(t, err)

	restarted := f.manager(2)
	after, err := restarted.Room(ctx, code)
	require.NoError(t, err)
	require.True(t, after.Accepted)
	assert.Equal(t, before.Room, after.Room)
	assert.Equal(t, before.State, after.State)

	rep, err := restarted.Draw(ctx, code, after.State.CurrentPlayerID)
	require.NoError(t, err)
	assert.True(t, rep.Accepted, rep.Message)
}

func TestCorruptSnapshotIsAFault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, _ := f.started(t, 4)
	room, err := f.m.Room(ctx, code)
	require.NoError(t, err)
	require.NoError(t, f.st.Set(ctx, sessionKey(room.Room.ID), []byte(`{"version":1}`), 0))

	_, err = f.manager(3).Room(ctx, code)
	assert.Error(t, err)
}

func TestCodesAvoidPersistedRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.m.CreateRoom(ctx, "Alice", "")
	require.NoError(t, err)

	// same seed, so the first candidate collides with the stored room
	again := f.manager(1)
	second, err := again.CreateRoom(ctx, "Bob", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Room.Code, second.Room.Code)
}

func TestSweepPurgesIdleRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old, _ := f.lobby(t, 2)

	f.clock.t = f.clock.t.Add(20 * time.Hour)
	fresh, _ := f.lobby(t, 2)

	f.clock.t = f.clock.t.Add(5 * time.Hour)
	n, err := f.m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rep, err := f.m.Room(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, shared.CodeRoomNotFound, rep.Code)

	rep, err = f.m.Room(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, rep.Accepted)
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.m.RunSweeper(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestBotsTakeTheirTurns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep, err := f.m.CreateRoom(ctx, "Solo", "c0")
	require.NoError(t, err)
	code, host := rep.Room.Code, rep.PlayerID

	for i := 0; i < 3; i++ {
		rep, err := f.m.AddBot(ctx, code, host)
		require.NoError(t, err)
		require.True(t, rep.Accepted)
	}
	rep, err = f.m.StartGame(ctx, code, host)
	require.NoError(t, err)
	require.True(t, rep.Accepted, rep.Message)

	rep, err = f.m.SelectQuest(ctx, code, host, rep.Private.QuestOptions[0].ID)
	require.NoError(t, err)
	require.True(t, rep.Accepted)
	assert.True(t, rep.State.Stage == game.StagePlaying || rep.State.GameOver, "bots pick their quests at start")
	assert.True(t, rep.State.GameOver || rep.State.CurrentPlayerID == host,
		"bots play until the human is up")

	rep, err = f.m.AddBot(ctx, code, host)
	require.NoError(t, err)
	assert.Equal(t, shared.CodeAlreadyStarted, rep.Code)
}

func TestOnlyBotsLeftClosesLobby(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep, err := f.m.CreateRoom(ctx, "Solo", "c0")
	require.NoError(t, err)
	code, host := rep.Room.Code, rep.PlayerID
	_, err = f.m.AddBot(ctx, code, host)
	require.NoError(t, err)

	_, err = f.m.LeaveRoom(ctx, code, host)
	require.NoError(t, err)
	rep, err = f.m.Room(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, shared.CodeRoomNotFound, rep.Code)
}
