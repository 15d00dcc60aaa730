package server

import (
	"context"
	"log"
	"time"

	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/protocol/codec"
	"github.com/palemoky/mini-arcade/internal/types"
)

// Handler 消息处理器
// 把连接层消息翻译成路由器调用，在这里完成 payload 解析
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)

	// 房间操作
	case protocol.MsgJoin:
		h.handleJoin(client, msg)

	// 游戏操作
	case protocol.MsgInput:
		h.handleInput(client, msg)
	case protocol.MsgCustomEvent:
		h.handleCustomEvent(client, msg)

	// 查询操作
	case protocol.MsgGetRoomList:
		h.handleGetRoomList(client)
	case protocol.MsgGetStats:
		h.handleGetStats(client)
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(client, msg)
	case protocol.MsgGetOnlineCount:
		h.handleGetOnlineCount(client)

	default:
		log.Printf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleJoin 处理加入请求，处理器的结果原样转发给客户端
func (h *Handler) handleJoin(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	name := payload.Name
	if name == "" {
		name = client.GetName() // 连接时生成的随机昵称
	}

	result := h.server.registry.Join(client, name, payload.RoomID)
	if !result.OK {
		client.SendMessage(codec.MustNewMessage(protocol.MsgJoinFailed, protocol.JoinFailedPayload{
			RoomID: payload.RoomID,
			Reason: result.Reason,
		}))
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgJoinAssigned, protocol.JoinAssignedPayload{
		RoomID:     payload.RoomID,
		PlayerName: name,
		PlayerData: result.PlayerData,
	}))
}

// handleInput 转发持续输入，未加入的会话由路由器静默丢弃
func (h *Handler) handleInput(client types.ClientInterface, msg *protocol.Message) {
	h.server.registry.Input(client.GetID(), msg.Payload)
}

// handleCustomEvent 转发离散动作
func (h *Handler) handleCustomEvent(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.CustomEventPayload](msg)
	if err != nil {
		// 加入前/格式错误的消息按约定丢弃，不回错误
		return
	}
	h.server.registry.CustomEvent(client.GetID(), payload.Event, payload.Payload)
}

// handleGetRoomList 返回所有注册房间的状态
func (h *Handler) handleGetRoomList(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomList, protocol.RoomListPayload{
		Rooms: h.server.registry.RoomList(),
	}))
}

// handleGetStats 返回玩家个人战绩
func (h *Handler) handleGetStats(client types.ClientInterface) {
	if h.server.leaderboard == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "战绩功能未启用"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stats, err := h.server.leaderboard.GetPlayerStats(ctx, client.GetID())
	if err != nil {
		log.Printf("查询战绩失败: %v", err)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	payload := protocol.StatsPayload{
		PlayerID:   client.GetID(),
		PlayerName: client.GetName(),
	}
	if stats != nil {
		payload.TotalGames = stats.TotalGames
		payload.Wins = stats.Wins
		payload.Score = stats.Score
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgStats, payload))
}

// handleGetLeaderboard 返回排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	if h.server.leaderboard == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜功能未启用"))
		return
	}

	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.server.leaderboard.GetLeaderboard(ctx, payload.Limit)
	if err != nil {
		log.Printf("查询排行榜失败: %v", err)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboard, protocol.LeaderboardPayload{
		Entries: entries,
	}))
}

// handleGetOnlineCount 返回在线人数
func (h *Handler) handleGetOnlineCount(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgOnlineCount, protocol.OnlineCountPayload{
		Count: h.server.GetOnlineCount(),
	}))
}
