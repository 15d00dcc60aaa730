package game

import (
	"encoding/json"

	"github.com/palemoky/mini-arcade/internal/protocol"
)

// Status 房间状态
type Status int

const (
	StatusAvailable Status = iota // 可加入，无人
	StatusWaiting                 // 有人等待开局
	StatusFull                    // 满员未开局
	StatusInProgress              // 游戏进行中
	StatusFinished                // 已结束，等待重置
)

// String 返回状态的线上表示
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusWaiting:
		return "waiting"
	case StatusFull:
		return "full"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// JoinResult 加入请求的处理结果
// 失败时 Reason 是面向用户的原因文本，成功时 PlayerData 携带客户端
// 渲染自身所需的数据（编号、颜色等），路由层原样转发
type JoinResult struct {
	OK         bool
	Reason     string
	PlayerData any
}

// JoinOK 构造成功结果
func JoinOK(playerData any) JoinResult {
	return JoinResult{OK: true, PlayerData: playerData}
}

// JoinFailed 构造失败结果
func JoinFailed(reason string) JoinResult {
	return JoinResult{Reason: reason}
}

// Handler 游戏处理器契约
// 每个游戏实现一个 Handler 并在启动时绑定到一个房间标识。
// 所有方法都由路由器在持锁状态下串行调用，实现内部无需加锁。
// 不需要某个操作的游戏显式提供空实现，不依赖隐式默认行为。
type Handler interface {
	// RoomID 返回处理器自身绑定的房间标识
	RoomID() string

	// Join 校验房间标识与容量，成功时创建玩家记录
	// 预期内的失败（房间不匹配、满员）通过返回值表达，不得 panic
	Join(sessionID, playerName, roomID string) JoinResult

	// Leave 移除玩家并执行游戏相关清理，对未知 ID 必须是无副作用的
	Leave(sessionID string)

	// Input 应用连续控制状态（覆盖旧值，不排队）
	Input(sessionID string, payload json.RawMessage)

	// CustomEvent 应用离散动作，需校验发送者、时机与参数；
	// 未知的动作名称直接忽略，不算错误
	CustomEvent(sessionID, event string, payload json.RawMessage)

	// Tick 以测量的真实间隔推进模拟，状态有变化时广播快照
	Tick(dt float64)

	// PlayerCount 当前玩家数
	PlayerCount() int

	// Status 当前状态，必须与 Join 的接受行为一致
	Status() Status
}

// Broadcaster 处理器向外发送消息的通道
// 由路由器实现：房间广播只送达当前在该房间内的会话
type Broadcaster interface {
	BroadcastToRoom(roomID string, msg *protocol.Message)
	SendTo(sessionID string, msg *protocol.Message)

	// RemovePlayer 把会话从房间广播域中逐出
	// 处理器在主动清场（如终局重置）时调用：玩家记录随之销毁，
	// 该会话要再次收到房间广播必须重新加入
	RemovePlayer(sessionID string)
}
