package protocol

import "encoding/json"

// Message 基础消息结构
// Payload 对核心来说是不透明的，具体结构由各个游戏处理器定义
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode 将消息编码为 JSON 字节
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode 从 JSON 字节解码消息
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgJoin MessageType = "join" // 加入房间

	// 游戏操作
	MsgInput       MessageType = "input"        // 连续输入（覆盖式，如按住方向键）
	MsgCustomEvent MessageType = "custom_event" // 离散动作（如落子、答题）

	// 查询操作
	MsgGetRoomList    MessageType = "get_room_list"    // 获取房间列表
	MsgGetStats       MessageType = "get_stats"        // 获取个人战绩
	MsgGetLeaderboard MessageType = "get_leaderboard"  // 获取排行榜
	MsgGetOnlineCount MessageType = "get_online_count" // 获取在线人数
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgJoinAssigned MessageType = "join_assigned" // 加入成功，携带处理器分配的玩家数据
	MsgJoinFailed   MessageType = "join_failed"   // 加入失败，携带原因
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开（房间广播）

	// 游戏流程
	MsgStateUpdate MessageType = "state_update" // 游戏状态快照（房间广播，结构由处理器定义）

	// 查询响应
	MsgRoomList    MessageType = "room_list"    // 房间列表
	MsgStats       MessageType = "stats"        // 个人战绩
	MsgLeaderboard MessageType = "leaderboard"  // 排行榜
	MsgOnlineCount MessageType = "online_count" // 在线人数

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinPayload 加入房间请求
type JoinPayload struct {
	Name   string `json:"name"`    // 昵称，为空时由服务端随机生成
	RoomID string `json:"room_id"` // 目标房间标识
}

// CustomEventPayload 离散动作请求
type CustomEventPayload struct {
	Event   string          `json:"event"`             // 动作名称，未知名称会被忽略
	Payload json.RawMessage `json:"payload,omitempty"` // 动作参数，由处理器解析
}

// GetLeaderboardPayload 排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"` // 返回条数
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// JoinAssignedPayload 加入成功响应
// PlayerData 由游戏处理器提供，包含客户端渲染自身所需的数据（编号、颜色等）
type JoinAssignedPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	PlayerData any    `json:"player_data,omitempty"`
}

// JoinFailedPayload 加入失败响应
type JoinFailedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"` // 面向用户的失败原因
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// RoomInfo 房间信息
type RoomInfo struct {
	RoomID      string `json:"room_id"`
	PlayerCount int    `json:"player_count"`
	Status      string `json:"status"` // available/waiting/full/in_progress/finished
}

// RoomListPayload 房间列表响应
type RoomListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

// StatsPayload 个人战绩响应
type StatsPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TotalGames int    `json:"total_games"` // 总场次
	Wins       int    `json:"wins"`        // 胜场
	Score      int    `json:"score"`       // 当前积分
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	Wins       int    `json:"wins"`
}

// LeaderboardPayload 排行榜响应
type LeaderboardPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// OnlineCountPayload 在线人数响应
type OnlineCountPayload struct {
	Count int `json:"count"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 错误码 ---
const (
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeRateLimit    = 1002
	ErrCodeMaintenance  = 1003
	ErrCodeRoomNotFound = 2001
	ErrCodeRoomFull     = 2002
	ErrCodeNotInRoom    = 2003
	ErrCodeGameStarted  = 2004
	ErrCodeNotYourTurn  = 3001
	ErrCodeInvalidMove  = 3002
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:      "未知错误",
	ErrCodeInvalidMsg:   "无效的消息格式",
	ErrCodeRateLimit:    "请求过于频繁",
	ErrCodeMaintenance:  "服务器维护中",
	ErrCodeRoomNotFound: "房间不存在",
	ErrCodeRoomFull:     "房间已满",
	ErrCodeNotInRoom:    "您不在房间中",
	ErrCodeGameStarted:  "游戏已开始",
	ErrCodeNotYourTurn:  "还没轮到您",
	ErrCodeInvalidMove:  "无效的操作",
}
