package websocket

import "strings"

const (
	groupRoomPrefix = "group:"
	userRoomPrefix  = "user:"
)

// DirectRoomKey строит ключ личной беседы: оба id сортируются
// лексикографически, поэтому (a,b) и (b,a) дают один ключ "10:42"
func DirectRoomKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// GroupRoomKey строит ключ групповой комнаты
func GroupRoomKey(groupID string) string {
	return groupRoomPrefix + groupID
}

// UserRoomKey строит ключ персональной комнаты уведомлений;
// каждая сессия пользователя входит в неё автоматически
func UserRoomKey(userID string) string {
	return userRoomPrefix + userID
}

func IsUserRoom(roomKey string) bool {
	return strings.HasPrefix(roomKey, userRoomPrefix)
}
