package types

import (
	"context"

	"github.com/palemoky/mini-arcade/internal/protocol"
)

// ClientInterface 客户端接口 - 避免 game 包与 server 包的循环依赖
type ClientInterface interface {
	GetID() string
	GetName() string
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}

// ScoreRecorder 战绩记录接口
// 游戏处理器在对局结束时上报胜者，存储层异步落盘
type ScoreRecorder interface {
	RecordWin(ctx context.Context, roomID, playerID, playerName string) error
	RecordLoss(ctx context.Context, roomID, playerID, playerName string) error
}
