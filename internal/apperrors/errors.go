package apperrors

import (
	"github.com/palemoky/mini-arcade/internal/protocol"
)

// GameError 游戏错误（路由层和处理器共享）
// 预期内的失败通过返回值传递，不使用 panic
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull     = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom    = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrGameStarted  = &GameError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrNotYourTurn  = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrInvalidMove  = &GameError{Code: protocol.ErrCodeInvalidMove, Message: "无效的操作"}
)
