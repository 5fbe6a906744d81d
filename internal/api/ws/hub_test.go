package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hidden-quest/internal/config"
	"hidden-quest/internal/room"
	"hidden-quest/internal/shared"
	"hidden-quest/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	hub := NewHub(cfg.WebSocket, zap.NewNop())
	rm := room.NewManager(store.NewMemoryStore(), cfg, hub, zap.NewNop())
	hub.SetRoomManager(rm)

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": action, "data": data}))
}

// await reads until a message with the given action arrives and decodes its
// data into v.
func await(t *testing.T, conn *websocket.Conn, action string, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg message
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", action)
		if msg.Action == action {
			require.NoError(t, json.Unmarshal(msg.Data, v))
			return
		}
	}
}

func TestCreateJoinAndBroadcast(t *testing.T) {
	srv := newServer(t)
	alice, bob := dial(t, srv), dial(t, srv)

	send(t, alice, "room:create", map[string]string{"playerName": "Alice"})
	var created room.Reply
	await(t, alice, "room:create", &created)
	require.True(t, created.Accepted)
	code := created.Room.Code

	send(t, bob, "room:join", map[string]string{"roomCode": strings.ToLower(code), "playerName": "Bob"})
	var joined room.Reply
	await(t, bob, "room:join", &joined)
	require.True(t, joined.Accepted, joined.Message)

	var update room.View
	await(t, alice, room.EventRoomUpdated, &update)
	assert.Len(t, update.Members, 2)

	send(t, bob, "game:drawCard", nil)
	var draw room.Reply
	await(t, bob, "game:drawCard", &draw)
	assert.False(t, draw.Accepted)
	assert.Equal(t, shared.CodeNotPlaying, draw.Code)

	// bob's socket going away removes him from the lobby
	require.NoError(t, bob.Close())
	await(t, alice, room.EventRoomUpdated, &update)
	assert.Len(t, update.Members, 1)
}

func TestProtocolErrors(t *testing.T) {
	srv := newServer(t)
	conn := dial(t, srv)

	send(t, conn, "room:start", nil)
	var e errorBody
	await(t, conn, "error", &e)
	assert.Equal(t, "not_in_room", e.Code)

	send(t, conn, "board:flip", nil)
	await(t, conn, "error", &e)
	assert.Equal(t, "unknown_action", e.Code)

	send(t, conn, "room:create", "not an object")
	await(t, conn, "error", &e)
	assert.Equal(t, "bad_request", e.Code)

	send(t, conn, "reconnect:attempt", map[string]string{"playerId": "ghost"})
	await(t, conn, "error", &e)
	assert.Equal(t, "player_not_found", e.Code)
}

func TestReconnectRebindsSocket(t *testing.T) {
	srv := newServer(t)
	first := dial(t, srv)

	send(t, first, "room:create", map[string]string{"playerName": "Alice"})
	var created room.Reply
	await(t, first, "room:create", &created)
	require.True(t, created.Accepted)

	second := dial(t, srv)
	send(t, second, "reconnect:attempt", map[string]string{"playerId": created.PlayerID, "token": "guess"})
	var rep room.Reply
	await(t, second, "reconnect:attempt", &rep)
	assert.False(t, rep.Accepted)
	assert.Equal(t, shared.CodeInvalidToken, rep.Code)

	send(t, second, "reconnect:attempt", map[string]string{"playerId": created.PlayerID, "token": created.Token})
	await(t, second, "reconnect:attempt", &rep)
	require.True(t, rep.Accepted, rep.Message)
	assert.Equal(t, created.Room.Code, rep.Room.Code)

	// the stale socket closing does not evict the reattached player
	require.NoError(t, first.Close())
	send(t, second, "room:ready", map[string]bool{"ready": true})
	await(t, second, "room:ready", &rep)
	assert.True(t, rep.Accepted, rep.Message)
}
