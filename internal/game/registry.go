package game

import (
	"encoding/json"
	"log"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/types"
)

// Registry 房间路由器
// 维护房间标识到处理器的映射和玩家目录，把连接层事件转发给
// 发送者所在房间的处理器。
//
// 所有事件（消息分发和帧回调）都在同一把锁内运行到完成，
// 等价于单事件循环模型：处理器内部不需要再加锁，同一会话的
// 消息按到达顺序处理。
type Registry struct {
	mu        sync.Mutex
	handlers  map[string]Handler
	directory *Directory
}

// NewRegistry 创建房间路由器
func NewRegistry() *Registry {
	return &Registry{
		handlers:  make(map[string]Handler),
		directory: NewDirectory(),
	}
}

// RegisterHandler 绑定处理器到房间标识
// 重复注册采用后写覆盖语义并打印警告：被替换处理器的在场玩家会
// 成为孤儿（目录仍指向旧房间标识）。这是沿用的历史行为，见 DESIGN.md
func (r *Registry) RegisterHandler(roomID string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[roomID]; exists {
		orphans := len(r.directory.InRoom(roomID))
		log.Printf("⚠️ 房间 %s 的处理器被替换（%d 名在场玩家将失去归属）", roomID, orphans)
	}
	r.handlers[roomID] = h

	log.Printf("🎮 房间 %s 已注册", roomID)
}

// Join 处理加入请求
// 未知房间返回失败；处理器接受后登记玩家并订阅房间广播域
func (r *Registry) Join(client types.ClientInterface, playerName, roomID string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	handler, exists := r.handlers[roomID]
	if !exists {
		log.Printf("🚫 玩家 %s 尝试加入未注册的房间 %s", playerName, roomID)
		return JoinFailed("游戏不可用: " + roomID)
	}

	result := handler.Join(client.GetID(), playerName, roomID)
	if !result.OK {
		return result
	}

	// 玩家同一时刻至多属于一个房间：换房前先从旧房间离开，
	// 避免旧处理器的容量槽位泄漏
	r.leaveLocked(client.GetID())

	r.directory.Register(&Player{
		ID:     client.GetID(),
		Name:   playerName,
		RoomID: roomID,
		Data:   result.PlayerData,
		Client: client,
	})
	client.SetRoom(roomID)

	log.Printf("👤 玩家 %s (%s) 加入房间 %s", playerName, client.GetID(), roomID)
	return result
}

// Leave 处理断开连接
// 先通知所属处理器再删除目录项；从未成功加入的会话是无操作
func (r *Registry) Leave(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(sessionID)
}

func (r *Registry) leaveLocked(sessionID string) {
	player, ok := r.directory.Lookup(sessionID)
	if !ok {
		return
	}

	if handler, exists := r.handlers[player.RoomID]; exists {
		handler.Leave(sessionID)
	}
	r.directory.Remove(sessionID)
	player.Client.SetRoom("")

	// 通知房间内剩余玩家
	r.broadcastToRoomLocked(player.RoomID, mustMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:   player.ID,
		PlayerName: player.Name,
	}))

	log.Printf("👋 玩家 %s 离开房间 %s", player.Name, player.RoomID)
}

// Input 转发连续输入
// 发送者没有目录项（尚未加入任何房间）时静默丢弃
func (r *Registry) Input(sessionID string, payload json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.directory.Lookup(sessionID)
	if !ok {
		return
	}
	if handler, exists := r.handlers[player.RoomID]; exists {
		handler.Input(sessionID, payload)
	}
}

// CustomEvent 转发离散动作，加入前的消息同样静默丢弃
func (r *Registry) CustomEvent(sessionID, event string, payload json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.directory.Lookup(sessionID)
	if !ok {
		return
	}
	if handler, exists := r.handlers[player.RoomID]; exists {
		handler.CustomEvent(sessionID, event, payload)
	}
}

// TickAll 推进所有处理器一帧
// 每个处理器的 Tick 运行在独立的错误边界内，单个游戏 panic
// 不会中断其余游戏的这一帧
func (r *Registry) TickAll(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID, handler := range r.handlers {
		r.tickOne(roomID, handler, dt)
	}
}

func (r *Registry) tickOne(roomID string, h Handler, dt float64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("💥 房间 %s 的 Tick 发生 panic: %v\n%s", roomID, rec, debug.Stack())
		}
	}()
	h.Tick(dt)
}

// RoomList 返回所有注册房间的状态快照，按房间标识排序
func (r *Registry) RoomList() []protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]protocol.RoomInfo, 0, len(r.handlers))
	for roomID, handler := range r.handlers {
		rooms = append(rooms, protocol.RoomInfo{
			RoomID:      roomID,
			PlayerCount: handler.PlayerCount(),
			Status:      handler.Status().String(),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms
}

// ActiveGames 返回进行中的游戏数量（优雅关闭时轮询）
func (r *Registry) ActiveGames() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, handler := range r.handlers {
		if handler.Status() == StatusInProgress {
			count++
		}
	}
	return count
}

// PlayerName 查询已加入玩家的昵称
func (r *Registry) PlayerName(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.directory.Lookup(sessionID)
	if !ok {
		return "", false
	}
	return player.Name, true
}

// BroadcastToRoom 广播消息到指定房间
// 只送达当前 RoomID 等于该房间的会话，发送即忘
func (r *Registry) BroadcastToRoom(roomID string, msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastToRoomLocked(roomID, msg)
}

// SendTo 发送消息给单个已加入的会话
func (r *Registry) SendTo(sessionID string, msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if player, ok := r.directory.Lookup(sessionID); ok {
		player.Client.SendMessage(msg)
	}
}

func (r *Registry) broadcastToRoomLocked(roomID string, msg *protocol.Message) {
	for _, p := range r.directory.InRoom(roomID) {
		p.Client.SendMessage(msg)
	}
}

// Sender 返回给处理器使用的发送通道
// 处理器的回调都在路由器锁内执行，这个实现不再加锁；
// 外部调用方（连接层）应使用 Registry 自身的加锁方法
func (r *Registry) Sender() Broadcaster {
	return roomSender{r: r}
}

type roomSender struct {
	r *Registry
}

func (s roomSender) BroadcastToRoom(roomID string, msg *protocol.Message) {
	s.r.broadcastToRoomLocked(roomID, msg)
}

func (s roomSender) SendTo(sessionID string, msg *protocol.Message) {
	if p, ok := s.r.directory.Lookup(sessionID); ok {
		p.Client.SendMessage(msg)
	}
}

func (s roomSender) RemovePlayer(sessionID string) {
	if p := s.r.directory.Remove(sessionID); p != nil {
		p.Client.SetRoom("")
	}
}

// mustMessage 构造固定结构的消息，序列化失败属于编程错误
func mustMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &protocol.Message{Type: msgType, Payload: data}
}
