package room

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hidden-quest/internal/config"
	"hidden-quest/internal/game"
	"hidden-quest/internal/shared"
)

// ErrNoFreeCode means code generation kept colliding with existing rooms.
var ErrNoFreeCode = errors.New("room: no free room code")

const codeAttempts = 64

// slot is one room plus its session. Every mutation of either happens with
// mu held, from validation through persistence and broadcast.
type slot struct {
	mu      sync.Mutex
	room    *Room
	session *game.Session
}

type Manager struct {
	store     Store
	bc        Broadcaster
	log       *zap.Logger
	rules     game.Rules
	weights   game.Weights
	retention time.Duration
	now       func() time.Time
	gameOpts  []game.Option

	mu    sync.Mutex // guards rooms and rng
	rooms map[string]*slot
	rng   *rand.Rand
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithRand seeds room code generation.
func WithRand(rng *rand.Rand) Option { return func(m *Manager) { m.rng = rng } }

// WithGameOptions is appended to every NewSession and RestoreSession call.
func WithGameOptions(opts ...game.Option) Option {
	return func(m *Manager) { m.gameOpts = append(m.gameOpts, opts...) }
}

func NewManager(s Store, cfg config.Config, bc Broadcaster, log *zap.Logger, opts ...Option) *Manager {
	if bc == nil {
		bc = nopBroadcaster{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:     s,
		bc:        bc,
		log:       log,
		rules:     cfg.Game.Rules(),
		weights:   cfg.Bot,
		retention: cfg.Store.Retention,
		now:       time.Now,
		rooms:     map[string]*slot{},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Rules() game.Rules { return m.rules }

func (m *Manager) sessionOptions() []game.Option {
	return append([]game.Option{game.WithRules(m.rules), game.WithClock(m.now)}, m.gameOpts...)
}

func (m *Manager) randCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// reserve picks a code unused in memory and in the store and registers sl
// under it.
func (m *Manager) reserve(ctx context.Context, sl *slot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < codeAttempts; i++ {
		code := m.randCode()
		if _, live := m.rooms[code]; live {
			continue
		}
		_, stored, err := m.store.Get(ctx, roomKey(code))
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if stored {
			continue
		}
		m.rooms[code] = sl
		return code, nil
	}
	return "", ErrNoFreeCode
}

// acquire returns the locked slot for code, rehydrating it from the store if
// it is not in memory. A nil slot with a nil error means no such room.
func (m *Manager) acquire(ctx context.Context, code string) (*slot, error) {
	m.mu.Lock()
	sl, ok := m.rooms[code]
	if !ok {
		sl = &slot{}
		m.rooms[code] = sl
	}
	m.mu.Unlock()

	sl.mu.Lock()
	if sl.room != nil {
		return sl, nil
	}
	r, s, err := m.load(ctx, code)
	if err != nil || r == nil {
		sl.mu.Unlock()
		m.forget(code, sl)
		return nil, err
	}
	sl.room, sl.session = r, s
	m.log.Info("room rehydrated", zap.String("room_code", code))
	return sl, nil
}

func (m *Manager) forget(code string, sl *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[code] == sl && sl.room == nil {
		delete(m.rooms, code)
	}
}

// locked runs fn with the room for raw held. Unknown or malformed codes are
// refused before fn runs.
func (m *Manager) locked(ctx context.Context, raw string, fn func(sl *slot) (Reply, error)) (Reply, error) {
	code, ok := NormalizeCode(raw)
	if !ok {
		return refuse(shared.CodeInvalidCode, "invalid room code"), nil
	}
	sl, err := m.acquire(ctx, code)
	if err != nil {
		return Reply{}, err
	}
	if sl == nil {
		return refuse(shared.CodeRoomNotFound, "room not found"), nil
	}
	defer sl.mu.Unlock()
	return fn(sl)
}

func (m *Manager) CreateRoom(ctx context.Context, hostName, connID string) (Reply, error) {
	name, ok := NormalizeName(hostName)
	if !ok {
		return refuse(shared.CodeInvalidName, "name must be 2-20 letters, digits or spaces"), nil
	}
	sl := &slot{}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	code, err := m.reserve(ctx, sl)
	if err != nil {
		return Reply{}, err
	}
	now := m.now()
	host := &Member{
		ID:        uuid.NewString(),
		Name:      name,
		ConnID:    connID,
		Token:     uuid.NewString(),
		IsHost:    true,
		Connected: true,
		Ready:     true,
		JoinedAt:  now,
	}
	sl.room = &Room{
		ID:         uuid.NewString(),
		Code:       code,
		HostID:     host.ID,
		Members:    []*Member{host},
		Status:     StatusWaiting,
		MaxPlayers: m.rules.MaxPlayers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.persist(ctx, sl); err != nil {
		sl.room = nil
		m.forget(code, sl)
		return Reply{}, err
	}
	m.log.Info("room created", zap.String("room_code", code), zap.String("host_id", host.ID))
	v := sl.room.view(m.rules)
	return Reply{Accepted: true, PlayerID: host.ID, Token: host.Token, Room: &v}, nil
}

func (m *Manager) JoinRoom(ctx context.Context, code, name, connID string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		r := sl.room
		clean, ok := NormalizeName(name)
		if !ok {
			return refuse(shared.CodeInvalidName, "name must be 2-20 letters, digits or spaces"), nil
		}
		if r.Status != StatusWaiting {
			return refuse(shared.CodeAlreadyStarted, "game already started"), nil
		}
		if len(r.Members) >= r.MaxPlayers {
			return refuse(shared.CodeRoomFull, "room is full"), nil
		}
		for _, mem := range r.Members {
			if sameName(mem.Name, clean) {
				return refuse(shared.CodeDuplicateName, "name already taken in this room"), nil
			}
		}
		mem := &Member{
			ID:        uuid.NewString(),
			Name:      clean,
			ConnID:    connID,
			Token:     uuid.NewString(),
			Connected: true,
			JoinedAt:  m.now(),
		}
		r.Members = append(r.Members, mem)
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		m.log.Info("player joined", zap.String("room_code", r.Code), zap.String("player_id", mem.ID))
		v := m.pushRoom(sl)
		return Reply{Accepted: true, PlayerID: mem.ID, Token: mem.Token, Room: &v}, nil
	})
}

// AddBot seats a computer player. Only the host may add one.
func (m *Manager) AddBot(ctx context.Context, code, hostID string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		r := sl.room
		if r.HostID != hostID {
			return refuse(shared.CodeNotHost, "only the host can add bots"), nil
		}
		if r.Status != StatusWaiting {
			return refuse(shared.CodeAlreadyStarted, "game already started"), nil
		}
		if len(r.Members) >= r.MaxPlayers {
			return refuse(shared.CodeRoomFull, "room is full"), nil
		}
		n := 1
		for _, mem := range r.Members {
			if mem.IsBot {
				n++
			}
		}
		bot := &Member{
			ID:        "bot-" + uuid.NewString(),
			Name:      fmt.Sprintf("Bot %d", n),
			IsBot:     true,
			Connected: true,
			Ready:     true,
			JoinedAt:  m.now(),
		}
		r.Members = append(r.Members, bot)
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		v := m.pushRoom(sl)
		return Reply{Accepted: true, PlayerID: bot.ID, Room: &v}, nil
	})
}

// LeaveRoom removes a member from a room that has not started, passing the
// host seat on in join order and destroying the room once empty. After the
// start the member is only marked disconnected.
func (m *Manager) LeaveRoom(ctx context.Context, code, playerID string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		if sl.room.member(playerID) == nil {
			return refuse(shared.CodePlayerNotFound, "player not in room"), nil
		}
		return m.depart(ctx, sl, playerID)
	})
}

// Disconnect is LeaveRoom for a dropped connection. It is ignored when the
// member has already reattached on a different connection.
func (m *Manager) Disconnect(ctx context.Context, code, playerID, connID string) error {
	_, err := m.locked(ctx, code, func(sl *slot) (Reply, error) {
		mem := sl.room.member(playerID)
		if mem == nil || (connID != "" && mem.ConnID != connID) {
			return Reply{}, nil
		}
		return m.depart(ctx, sl, playerID)
	})
	return err
}

func (m *Manager) depart(ctx context.Context, sl *slot, playerID string) (Reply, error) {
	r := sl.room
	if r.Status != StatusWaiting {
		mem := r.member(playerID)
		mem.Connected = false
		mem.ConnID = ""
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		m.log.Info("player disconnected", zap.String("room_code", r.Code), zap.String("player_id", playerID))
		m.bc.Broadcast(r.Code, EventPlayerDisconnected, map[string]string{"playerId": playerID})
		m.pushState(sl)
		v := r.view(m.rules)
		return Reply{Accepted: true, Room: &v}, nil
	}

	r.remove(playerID)
	if err := m.store.Delete(ctx, playerKey(playerID)); err != nil {
		return Reply{}, fmt.Errorf("delete player %s: %w", playerID, err)
	}
	if len(r.Members) == 0 || allBots(r) {
		if err := m.destroy(ctx, sl); err != nil {
			return Reply{}, err
		}
		return Reply{Accepted: true}, nil
	}
	if r.HostID == playerID {
		next := firstHuman(r)
		next.IsHost = true
		next.Ready = true
		r.HostID = next.ID
		m.log.Info("host transferred", zap.String("room_code", r.Code), zap.String("host_id", next.ID))
	}
	if err := m.persist(ctx, sl); err != nil {
		return Reply{}, err
	}
	v := m.pushRoom(sl)
	return Reply{Accepted: true, Room: &v}, nil
}

func allBots(r *Room) bool {
	return firstHuman(r) == nil
}

func firstHuman(r *Room) *Member {
	for _, mem := range r.Members {
		if !mem.IsBot {
			return mem
		}
	}
	return nil
}

// destroy drops the room from memory and the store. Callers hold sl.mu.
func (m *Manager) destroy(ctx context.Context, sl *slot) error {
	r := sl.room
	keys := []string{roomKey(r.Code), sessionKey(r.ID)}
	for _, mem := range r.Members {
		keys = append(keys, playerKey(mem.ID))
	}
	for _, k := range keys {
		if err := m.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	sl.room, sl.session = nil, nil
	m.forget(r.Code, sl)
	m.log.Info("room destroyed", zap.String("room_code", r.Code))
	m.bc.Broadcast(r.Code, EventRoomClosed, map[string]string{"code": r.Code})
	return nil
}

func (m *Manager) SetReady(ctx context.Context, code, playerID string, ready bool) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		r := sl.room
		mem := r.member(playerID)
		if mem == nil {
			return refuse(shared.CodePlayerNotFound, "player not in room"), nil
		}
		if r.Status != StatusWaiting {
			return refuse(shared.CodeAlreadyStarted, "game already started"), nil
		}
		mem.Ready = ready
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		v := m.pushRoom(sl)
		return Reply{Accepted: true, PlayerID: playerID, Room: &v}, nil
	})
}

// CanStart reports whether the room at code could start right now.
func (m *Manager) CanStart(ctx context.Context, code string) (bool, string, error) {
	var (
		ok     bool
		reason string
	)
	rep, err := m.locked(ctx, code, func(sl *slot) (Reply, error) {
		ok, reason = sl.room.CanStart(m.rules)
		return Reply{Accepted: true}, nil
	})
	if err != nil {
		return false, "", err
	}
	if !rep.Accepted {
		return false, rep.Message, nil
	}
	return ok, reason, nil
}

func (m *Manager) StartGame(ctx context.Context, code, playerID string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		r := sl.room
		if r.HostID != playerID {
			return refuse(shared.CodeNotHost, "only the host can start the game"), nil
		}
		if r.Status != StatusWaiting {
			return refuse(shared.CodeAlreadyStarted, "game already started"), nil
		}
		if ok, reason := r.CanStart(m.rules); !ok {
			if len(r.Members) < m.rules.MinPlayers {
				return refuse(shared.CodeNeedMorePlayers, reason), nil
			}
			return refuse(shared.CodeNotAllReady, reason), nil
		}

		seats := make([]game.Seat, 0, len(r.Members))
		for _, mem := range r.Members {
			seats = append(seats, game.Seat{ID: mem.ID, Name: mem.Name})
		}
		s, err := game.NewSession(uuid.NewString(), r.ID, seats, m.sessionOptions()...)
		if err != nil {
			return Reply{}, fmt.Errorf("start game in %s: %w", r.Code, err)
		}
		sl.session = s
		r.Status = StatusQuestSelection
		r.GameID = s.ID

		bots := m.runBots(sl)
		m.sync(sl)
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		m.log.Info("game started",
			zap.String("room_code", r.Code),
			zap.String("game_id", s.ID),
			zap.Int("players", len(seats)),
		)

		v := m.pushRoom(sl)
		state := s.PublicView(r.connected)
		m.bc.Broadcast(r.Code, EventGameStarted, state)
		for _, mem := range r.Members {
			if pv, ok := s.PrivateView(mem.ID); ok {
				m.bc.SendTo(r.Code, mem.ID, EventQuestOptions, pv.QuestOptions)
			}
		}
		m.pushOutcomes(sl, bots)
		m.pushState(sl)
		return Reply{Accepted: true, PlayerID: playerID, Room: &v, State: &state, Private: m.private(sl, playerID)}, nil
	})
}

// Reconnect reattaches a connection to an existing member and returns the
// public view plus that member's private view.
func (m *Manager) Reconnect(ctx context.Context, code, playerID, connID string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		r := sl.room
		mem := r.member(playerID)
		if mem == nil {
			return refuse(shared.CodePlayerNotFound, "player not in room"), nil
		}
		mem.Connected = true
		// a REST reconnect has no socket and must not orphan the live one
		if connID != "" {
			mem.ConnID = connID
		}
		if err := m.persist(ctx, sl); err != nil {
			return Reply{}, err
		}
		m.log.Info("player reconnected", zap.String("room_code", r.Code), zap.String("player_id", playerID))
		m.bc.Broadcast(r.Code, EventPlayerReconnected, map[string]string{"playerId": playerID})

		v := r.view(m.rules)
		rep := Reply{Accepted: true, PlayerID: playerID, Room: &v}
		if sl.session != nil {
			state := sl.session.PublicView(r.connected)
			rep.State = &state
			rep.Private = m.private(sl, playerID)
			m.pushState(sl)
		}
		return rep, nil
	})
}

// Authorize checks the seat token handed out when the player joined. Bots
// have no token and can never be acted for from outside.
func (m *Manager) Authorize(ctx context.Context, code, playerID, token string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		mem := sl.room.member(playerID)
		if mem == nil {
			return refuse(shared.CodePlayerNotFound, "player not in room"), nil
		}
		if token == "" || mem.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(mem.Token)) != 1 {
			m.log.Warn("seat token mismatch", zap.String("room_code", sl.room.Code), zap.String("player_id", playerID))
			return refuse(shared.CodeInvalidToken, "invalid player token"), nil
		}
		return Reply{Accepted: true, PlayerID: playerID}, nil
	})
}

// Locate finds the room code a player was last seen in.
func (m *Manager) Locate(ctx context.Context, playerID string) (string, bool, error) {
	b, ok, err := m.store.Get(ctx, playerKey(playerID))
	if err != nil {
		return "", false, fmt.Errorf("locate player %s: %w", playerID, err)
	}
	if !ok {
		return "", false, nil
	}
	var rec playerRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", false, fmt.Errorf("decode player %s: %w", playerID, err)
	}
	return rec.RoomCode, true, nil
}

// Room returns the room view and, once a game exists, its public state.
func (m *Manager) Room(ctx context.Context, code string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		v := sl.room.view(m.rules)
		rep := Reply{Accepted: true, Room: &v}
		if sl.session != nil {
			state := sl.session.PublicView(sl.room.connected)
			rep.State = &state
		}
		return rep, nil
	})
}

// Private returns one player's private view.
func (m *Manager) Private(ctx context.Context, code, playerID string) (Reply, error) {
	return m.locked(ctx, code, func(sl *slot) (Reply, error) {
		if sl.room.member(playerID) == nil {
			return refuse(shared.CodePlayerNotFound, "player not in room"), nil
		}
		if sl.session == nil {
			return refuse(shared.CodeNotPlaying, "game has not started"), nil
		}
		return Reply{Accepted: true, PlayerID: playerID, Private: m.private(sl, playerID)}, nil
	})
}

func (m *Manager) private(sl *slot, playerID string) *game.PrivateView {
	if sl.session == nil {
		return nil
	}
	pv, ok := sl.session.PrivateView(playerID)
	if !ok {
		return nil
	}
	return &pv
}

func (m *Manager) pushRoom(sl *slot) View {
	v := sl.room.view(m.rules)
	m.bc.Broadcast(sl.room.Code, EventRoomUpdated, v)
	return v
}

// pushState sends the public view to the room and each private view to its
// owner.
func (m *Manager) pushState(sl *slot) {
	if sl.session == nil {
		return
	}
	r := sl.room
	m.bc.Broadcast(r.Code, EventStateUpdate, sl.session.PublicView(r.connected))
	for _, mem := range r.Members {
		if pv := m.private(sl, mem.ID); pv != nil && !mem.IsBot {
			m.bc.SendTo(r.Code, mem.ID, EventPrivateData, pv)
		}
	}
}

func (m *Manager) pushOutcomes(sl *slot, outs []game.Outcome) {
	for _, o := range outs {
		m.bc.Broadcast(sl.room.Code, EventActionResult, o)
	}
	if s := sl.session; s != nil && s.GameOver {
		over := map[string]string{"winnerId": s.WinnerID}
		if w := s.Winner(); w != nil {
			over["winnerName"] = w.Name
			if w.Quest != nil {
				over["questName"] = w.Quest.Name
			}
		}
		m.bc.Broadcast(sl.room.Code, EventGameOver, over)
	}
}
