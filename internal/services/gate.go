package services

import "context"

// Gate решает, можно ли пользователю входить в комнату и писать в неё.
// Предикаты вызываются на каждом join и каждом send: членство в группе
// и блок-листы могут измениться между событиями, поэтому результат
// не кэшируется
type Gate interface {
	CanChatDirect(ctx context.Context, userID, otherID string) (bool, error)
	IsMemberOfGroup(ctx context.Context, userID, groupID string) (bool, error)
}

// AllowAllGate разрешает всё. Используется, пока внешние стора
// (блок-листы, членство) не подключены, и в тестах
type AllowAllGate struct{}

func (AllowAllGate) CanChatDirect(ctx context.Context, userID, otherID string) (bool, error) {
	return true, nil
}

func (AllowAllGate) IsMemberOfGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return true, nil
}
