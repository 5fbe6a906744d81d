package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hidden-quest/internal/api/ws"
	"hidden-quest/internal/config"
	"hidden-quest/internal/game"
	"hidden-quest/internal/room"
	"hidden-quest/internal/shared"
	"hidden-quest/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	hub := ws.NewHub(cfg.WebSocket, zap.NewNop())
	rm := room.NewManager(store.NewMemoryStore(), cfg, hub, zap.NewNop())
	hub.SetRoomManager(rm)
	return NewRouter(rm, hub, cfg, zap.NewNop())
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func private(t *testing.T, r *gin.Engine, code, playerID, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+code+"/players/"+playerID+"/private", nil)
	req.Header.Set(TokenHeader, token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndConfig(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/config/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rules struct {
		Rules game.Rules `json:"rules"`
	}
	decode(t, w, &rules)
	assert.Equal(t, game.DefaultRules(), rules.Rules)

	w = do(t, r, http.MethodGet, "/api/config/weights", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoomFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/rooms", CreateRoomRequest{PlayerName: "Alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created room.Reply
	decode(t, w, &created)
	code, host := created.Room.Code, created.PlayerID
	require.NotEmpty(t, created.Token)
	ids := []string{host}
	tokens := map[string]string{host: created.Token}

	for i := 1; i < 4; i++ {
		w = do(t, r, http.MethodPost, "/api/rooms/join", JoinRoomRequest{RoomCode: code, PlayerName: fmt.Sprintf("Guest %d", i)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var joined room.Reply
		decode(t, w, &joined)
		ids = append(ids, joined.PlayerID)
		tokens[joined.PlayerID] = joined.Token
	}

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/start", PlayerRequest{PlayerID: host, Token: tokens[host]})
	assert.Equal(t, http.StatusConflict, w.Code)
	var refused room.Reply
	decode(t, w, &refused)
	assert.Equal(t, shared.CodeNotAllReady, refused.Code)

	for _, id := range ids[1:] {
		w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/ready", ReadyRequest{PlayerID: id, Token: tokens[id]})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/rooms/"+code+"/state", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no state before the game starts")

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/start", PlayerRequest{PlayerID: host, Token: tokens[host]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, id := range ids {
		w = private(t, r, code, id, tokens[id])
		require.Equal(t, http.StatusOK, w.Code)
		var pv game.PrivateView
		decode(t, w, &pv)
		require.NotEmpty(t, pv.QuestOptions)

		w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/quest", QuestRequest{PlayerID: id, Token: tokens[id], QuestID: pv.QuestOptions[0].ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/rooms/"+code+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state game.PublicView
	decode(t, w, &state)
	assert.Equal(t, game.StagePlaying, state.Stage)
	assert.NotContains(t, w.Body.String(), `"hand"`)
	assert.NotContains(t, w.Body.String(), `"quest"`)

	cur := state.CurrentPlayerID
	other := ids[0]
	if other == cur {
		other = ids[1]
	}
	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/draw", PlayerRequest{PlayerID: other, Token: tokens[other]})
	assert.Equal(t, http.StatusConflict, w.Code)
	decode(t, w, &refused)
	assert.Equal(t, shared.CodeNotYourTurn, refused.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/draw", PlayerRequest{PlayerID: cur, Token: tokens[cur]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var drew room.Reply
	decode(t, w, &drew)
	require.NotNil(t, drew.Private)
	require.GreaterOrEqual(t, len(drew.Private.Hand), 4)

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/discard", CardRequest{PlayerID: cur, Token: tokens[cur], CardID: drew.Private.Hand[0].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/end-turn", PlayerRequest{PlayerID: cur, Token: tokens[cur]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/leave", PlayerRequest{PlayerID: other, Token: tokens[other]})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/reconnect", PlayerRequest{PlayerID: other, Token: tokens[other]})
	require.Equal(t, http.StatusOK, w.Code)
	var back room.Reply
	decode(t, w, &back)
	assert.NotNil(t, back.State)
	assert.NotNil(t, back.Private)
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/rooms/ZZZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms", CreateRoomRequest{PlayerName: "?"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var rep room.Reply
	decode(t, w, &rep)
	assert.False(t, rep.Accepted)
	assert.Equal(t, shared.CodeInvalidName, rep.Code)

	w = do(t, r, http.MethodPost, "/api/rooms", CreateRoomRequest{PlayerName: "Alice"})
	decode(t, w, &rep)
	w = do(t, r, http.MethodPost, "/api/rooms/"+rep.Room.Code+"/play", CardRequest{PlayerID: "ghost", Token: "t", CardID: "atk_strike_1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSeatTokenGuardsActions(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/rooms", CreateRoomRequest{PlayerName: "Alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	var host room.Reply
	decode(t, w, &host)
	code := host.Room.Code

	w = do(t, r, http.MethodPost, "/api/rooms/join", JoinRoomRequest{RoomCode: code, PlayerName: "Mallory"})
	require.Equal(t, http.StatusOK, w.Code)
	var guest room.Reply
	decode(t, w, &guest)

	// knowing the host id is not enough to act as the host
	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/bots", PlayerRequest{PlayerID: host.PlayerID, Token: guest.Token})
	assert.Equal(t, http.StatusForbidden, w.Code)
	var rep room.Reply
	decode(t, w, &rep)
	assert.Equal(t, shared.CodeInvalidToken, rep.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/leave", map[string]string{"playerId": host.PlayerID})
	assert.Equal(t, http.StatusBadRequest, w.Code, "the token is a required field")

	w = private(t, r, code, host.PlayerID, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/"+code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), host.Token)
	assert.NotContains(t, w.Body.String(), guest.Token)

	w = do(t, r, http.MethodPost, "/api/rooms/"+code+"/bots", PlayerRequest{PlayerID: host.PlayerID, Token: host.Token})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
