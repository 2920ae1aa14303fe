package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID)
}

// drain вычитывает все сообщения из очереди клиента
func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestRegisterAutoJoinsUserRoom(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "42")

	hub.registerClient(client)

	require.True(t, hub.HasRoom(UserRoomKey("42")))
	assert.True(t, client.IsInRoom(UserRoomKey("42")))
	assert.Equal(t, []string{"42"}, hub.Members(UserRoomKey("42")))
}

func TestJoinRoomIdempotent(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "10")
	hub.registerClient(client)

	require.True(t, hub.JoinRoom(client, "10:42"))
	require.False(t, hub.JoinRoom(client, "10:42"))

	// Одно членство, одна доставка
	hub.SendToRoom("10:42", []byte("hi"))
	assert.Len(t, drain(client), 1)
}

func TestLeaveRoomRemovesEmptyRoom(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "10")
	hub.registerClient(client)

	hub.JoinRoom(client, "10:42")
	require.True(t, hub.HasRoom("10:42"))

	hub.LeaveRoom(client, "10:42")
	assert.False(t, hub.HasRoom("10:42"))
	assert.False(t, client.IsInRoom("10:42"))
}

func TestSendToRoomExactlyOncePerMember(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "10")
	b := newTestClient(hub, "42")
	outsider := newTestClient(hub, "99")
	for _, c := range []*Client{a, b, outsider} {
		hub.registerClient(c)
	}

	hub.JoinRoom(a, "10:42")
	hub.JoinRoom(b, "10:42")

	hub.SendToRoom("10:42", []byte("hi"))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	// Не входивший в комнату не получает ничего
	assert.Empty(t, drain(outsider))
}

func TestSendToUserReachesAllDevices(t *testing.T) {
	hub := NewHub()
	phone := newTestClient(hub, "42")
	laptop := newTestClient(hub, "42")
	hub.registerClient(phone)
	hub.registerClient(laptop)

	hub.SendToUser("42", []byte("notify"))

	assert.Len(t, drain(phone), 1)
	assert.Len(t, drain(laptop), 1)
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "10")
	other := newTestClient(hub, "42")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.JoinRoom(client, "10:42")
	hub.JoinRoom(client, GroupRoomKey("dev"))
	hub.JoinRoom(other, "10:42")

	hub.unregisterClient(client)

	// Комната, где он был единственным участником, исчезла
	assert.False(t, hub.HasRoom(GroupRoomKey("dev")))
	assert.False(t, hub.HasRoom(UserRoomKey("10")))
	// Общая комната осталась без него
	assert.Equal(t, []string{"42"}, hub.Members("10:42"))

	// Закрытая сессия больше ничего не получает
	hub.SendToRoom("10:42", []byte("after"))
	assert.Equal(t, StateClosed, client.State())
	assert.Error(t, client.deliver([]byte("x")))
}

func TestUnregisterUnknownClientIsNoop(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "10")

	// Снятие незарегистрированной сессии не должно паниковать
	hub.unregisterClient(client)
	assert.NotEqual(t, StateClosed, client.State())
}

func TestRegisterUnregisterViaRunLoop(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := newTestClient(hub, "42")
	hub.Register(client)

	require.Eventually(t, func() bool {
		return hub.HasRoom(UserRoomKey("42"))
	}, time.Second, 5*time.Millisecond)

	hub.Unregister(client)

	require.Eventually(t, func() bool {
		return !hub.HasRoom(UserRoomKey("42"))
	}, time.Second, 5*time.Millisecond)
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	hub := NewHub()

	const n = 32
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(hub, fmt.Sprintf("u%d", i))
		hub.registerClient(clients[i])
	}

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.JoinRoom(c, GroupRoomKey("load"))
				hub.SendToRoom(GroupRoomKey("load"), []byte("m"))
				drain(c)
				if j%5 == 0 {
					hub.LeaveRoom(c, GroupRoomKey("load"))
				}
			}
		}(i, c)
	}
	wg.Wait()

	for _, c := range clients {
		hub.unregisterClient(c)
	}
	assert.False(t, hub.HasRoom(GroupRoomKey("load")))
	assert.Empty(t, hub.OnlineUsers())
}
