package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/internal/handlers/dto"
	"github.com/avolkov/relay/internal/middleware"
	ws "github.com/avolkov/relay/internal/websocket"
	"github.com/avolkov/relay/pkg/auth"
)

// newRelayServer поднимает полный стек: middleware личности, апгрейд,
// hub и маршрутизатор событий
func newRelayServer(t *testing.T) (*httptest.Server, *ws.Hub) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := NewEventRouter(hub, &fakeGate{}, nil)
	wsH := NewWebSocketHandler(hub, router, "")
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)

	r := gin.New()
	r.GET("/ws", middleware.WSIdentityMiddleware(jwtMgr, nil), wsH.HandleWebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWSEvent(t *testing.T, conn *websocket.Conn) *ws.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev ws.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return &ev
}

func sendWSEvent(t *testing.T, conn *websocket.Conn, eventType ws.EventType, payload interface{}) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Event{Type: eventType, Data: data}))
}

func waitOnline(t *testing.T, hub *ws.Hub, userID string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.HasRoom(ws.UserRoomKey(userID))
	}, time.Second, 2*time.Millisecond)
}

func TestHandshakeWithoutIdentityIsRefused(t *testing.T) {
	srv, _ := newRelayServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDirectConversationOverWebSocket(t *testing.T) {
	srv, hub := newRelayServer(t)

	alice := dialWS(t, srv, "user_id=10")
	bob := dialWS(t, srv, "user_id=42")
	waitOnline(t, hub, "10")
	waitOnline(t, hub, "42")

	sendWSEvent(t, alice, ws.EventJoinDirect, dto.JoinDirectPayload{OtherUserID: "42"})
	ack := readWSEvent(t, alice)
	require.Equal(t, ws.EventJoinedDirect, ack.Type)

	sendWSEvent(t, bob, ws.EventJoinDirect, dto.JoinDirectPayload{OtherUserID: "10"})
	ack = readWSEvent(t, bob)
	require.Equal(t, ws.EventJoinedDirect, ack.Type)

	var joined dto.JoinedPayload
	require.NoError(t, json.Unmarshal(ack.Data, &joined))
	assert.Equal(t, "10:42", joined.RoomID)

	sendWSEvent(t, alice, ws.EventMessageDirect, dto.SendDirectPayload{To: "42", Text: "hi"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		ev := readWSEvent(t, conn)
		require.Equal(t, ws.EventMessageDirect, ev.Type)

		var msg dto.DirectMessage
		require.NoError(t, json.Unmarshal(ev.Data, &msg))
		assert.Equal(t, "10:42", msg.ConvoID)
		assert.Equal(t, "hi", msg.Text)
	}

	// Получатель дополнительно получает уведомление
	ev := readWSEvent(t, bob)
	assert.Equal(t, ws.EventNotify, ev.Type)
}

func TestDisconnectCleansUpMembership(t *testing.T) {
	srv, hub := newRelayServer(t)

	conn := dialWS(t, srv, "user_id=99")
	waitOnline(t, hub, "99")

	sendWSEvent(t, conn, ws.EventJoinGroup, dto.JoinGroupPayload{GroupID: "dev"})
	ack := readWSEvent(t, conn)
	require.Equal(t, ws.EventJoinedGroup, ack.Type)
	require.True(t, hub.HasRoom(ws.GroupRoomKey("dev")))

	conn.Close()

	// Комнаты единственного участника исчезают после отключения
	require.Eventually(t, func() bool {
		return !hub.HasRoom(ws.GroupRoomKey("dev")) && !hub.HasRoom(ws.UserRoomKey("99"))
	}, 2*time.Second, 5*time.Millisecond)
}
