package services

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/avolkov/relay/internal/database"
)

// Ключ Redis-множества заблокированных пользователей
const blockedKeyPrefix = "blocked:"

func BlockedKey(userID string) string {
	return blockedKeyPrefix + userID
}

// StoreGate реализует Gate поверх внешних сторов: блок-листы в Redis,
// членство в группах в таблице group_members
type StoreGate struct {
	db    *database.Database
	redis *redis.Client
}

func NewStoreGate(db *database.Database, rdb *redis.Client) *StoreGate {
	return &StoreGate{db: db, redis: rdb}
}

// CanChatDirect запрещает переписку, если хотя бы один из двоих
// заблокировал другого. Ошибка стора трактуется как запрет
func (g *StoreGate) CanChatDirect(ctx context.Context, userID, otherID string) (bool, error) {
	if g.redis == nil {
		return true, nil
	}

	blocked, err := g.redis.SIsMember(ctx, BlockedKey(otherID), userID).Result()
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}

	blocked, err = g.redis.SIsMember(ctx, BlockedKey(userID), otherID).Result()
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

func (g *StoreGate) IsMemberOfGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return g.db.IsGroupMember(groupID, userID)
}
