package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/testutil"
)

// recordingHandler is a scripted handler that records every call it
// receives, so tests can assert exactly what reached the game layer.
type recordingHandler struct {
	roomID      string
	max         int
	players     []string
	log         []string
	leaveCalls  map[string]int
	ticks       []float64
	panicOnTick bool
}

func newRecordingHandler(roomID string, max int) *recordingHandler {
	return &recordingHandler{
		roomID:     roomID,
		max:        max,
		leaveCalls: make(map[string]int),
	}
}

func (h *recordingHandler) RoomID() string { return h.roomID }

func (h *recordingHandler) Join(sessionID, playerName, roomID string) JoinResult {
	if roomID != h.roomID {
		return JoinFailed("房间不匹配: " + roomID)
	}
	if len(h.players) >= h.max {
		return JoinFailed("房间已满")
	}
	h.players = append(h.players, sessionID)
	return JoinOK(map[string]int{"player_id": len(h.players)})
}

func (h *recordingHandler) Leave(sessionID string) {
	h.leaveCalls[sessionID]++
	for i, id := range h.players {
		if id == sessionID {
			h.players = append(h.players[:i], h.players[i+1:]...)
			return
		}
	}
}

func (h *recordingHandler) Input(sessionID string, payload json.RawMessage) {
	h.log = append(h.log, "input:"+sessionID+":"+string(payload))
}

func (h *recordingHandler) CustomEvent(sessionID, event string, payload json.RawMessage) {
	h.log = append(h.log, "event:"+sessionID+":"+event)
}

func (h *recordingHandler) Tick(dt float64) {
	if h.panicOnTick {
		panic("boom")
	}
	h.ticks = append(h.ticks, dt)
}

func (h *recordingHandler) PlayerCount() int { return len(h.players) }

func (h *recordingHandler) Status() Status {
	switch {
	case len(h.players) == 0:
		return StatusAvailable
	case len(h.players) < h.max:
		return StatusWaiting
	default:
		return StatusFull
	}
}

func newClient(id, name string) *testutil.SimpleClient {
	return &testutil.SimpleClient{ID: id, Name: name}
}

func TestRegistry_JoinUnknownRoom(t *testing.T) {
	r := NewRegistry()
	c := newClient("s1", "A")

	result := r.Join(c, "A", "unregistered-room")

	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "unregistered-room")

	// 目录里不应出现任何记录
	_, found := r.PlayerName("s1")
	assert.False(t, found)
	assert.Empty(t, c.GetRoom())
}

func TestRegistry_JoinGating(t *testing.T) {
	r := NewRegistry()
	h := newRecordingHandler("pong", 2)
	r.RegisterHandler("pong", h)

	// 加入前的消息必须静默丢弃，不触达任何处理器
	r.Input("ghost", json.RawMessage(`{"direction":1}`))
	r.CustomEvent("ghost", "place_mark", nil)

	assert.Empty(t, h.log)
	assert.Zero(t, h.PlayerCount())
}

func TestRegistry_Capacity(t *testing.T) {
	r := NewRegistry()
	h := newRecordingHandler("pong", 2)
	r.RegisterHandler("pong", h)

	resA := r.Join(newClient("s1", "A"), "A", "pong")
	resB := r.Join(newClient("s2", "B"), "B", "pong")
	require.True(t, resA.OK)
	require.True(t, resB.OK)

	// 两名玩家拿到不同的编号
	assert.Equal(t, map[string]int{"player_id": 1}, resA.PlayerData)
	assert.Equal(t, map[string]int{"player_id": 2}, resB.PlayerData)

	// 第三人被容量拒绝，且不影响玩家数
	resC := r.Join(newClient("s3", "C"), "C", "pong")
	assert.False(t, resC.OK)
	assert.Contains(t, resC.Reason, "已满")
	assert.Equal(t, 2, h.PlayerCount())
}

func TestRegistry_BroadcastIsolation(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("pong", newRecordingHandler("pong", 4))
	r.RegisterHandler("snake", newRecordingHandler("snake", 4))

	c1 := newClient("s1", "A")
	c2 := newClient("s2", "B")
	c3 := newClient("s3", "C")
	require.True(t, r.Join(c1, "A", "pong").OK)
	require.True(t, r.Join(c2, "B", "pong").OK)
	require.True(t, r.Join(c3, "C", "snake").OK)

	msg := mustMessage(protocol.MsgStateUpdate, map[string]string{"hello": "pong"})
	r.BroadcastToRoom("pong", msg)

	// 恰好送达 pong 房间的两人，snake 房间收不到
	assert.Len(t, c1.MessagesOfType(protocol.MsgStateUpdate), 1)
	assert.Len(t, c2.MessagesOfType(protocol.MsgStateUpdate), 1)
	assert.Empty(t, c3.MessagesOfType(protocol.MsgStateUpdate))
}

func TestRegistry_LeaveIdempotent(t *testing.T) {
	r := NewRegistry()
	h := newRecordingHandler("pong", 2)
	r.RegisterHandler("pong", h)

	// 从未加入的会话离开是无操作
	assert.NotPanics(t, func() { r.Leave("never-joined") })

	c := newClient("s1", "A")
	require.True(t, r.Join(c, "A", "pong").OK)

	r.Leave("s1")
	r.Leave("s1") // 重复离开

	// 处理器的 Leave 恰好被调用一次
	assert.Equal(t, 1, h.leaveCalls["s1"])
	assert.Zero(t, h.PlayerCount())
	assert.Empty(t, c.GetRoom())
}

func TestRegistry_LeaveNotifiesRoom(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("pong", newRecordingHandler("pong", 2))

	c1 := newClient("s1", "A")
	c2 := newClient("s2", "B")
	require.True(t, r.Join(c1, "A", "pong").OK)
	require.True(t, r.Join(c2, "B", "pong").OK)

	r.Leave("s1")

	left := c2.MessagesOfType(protocol.MsgPlayerLeft)
	require.Len(t, left, 1)

	var payload protocol.PlayerLeftPayload
	require.NoError(t, json.Unmarshal(left[0].Payload, &payload))
	assert.Equal(t, "s1", payload.PlayerID)
	assert.Equal(t, "A", payload.PlayerName)
}

func TestRegistry_CustomEventOrdering(t *testing.T) {
	r := NewRegistry()
	h := newRecordingHandler("ttt", 2)
	r.RegisterHandler("ttt", h)
	require.True(t, r.Join(newClient("s1", "A"), "A", "ttt").OK)

	// 同一会话的两个动作必须按发送顺序生效
	for i := 0; i < 10; i++ {
		r.CustomEvent("s1", fmt.Sprintf("move-%d", i), nil)
	}

	require.Len(t, h.log, 10)
	for i, entry := range h.log {
		assert.Equal(t, fmt.Sprintf("event:s1:move-%d", i), entry)
	}
}

func TestRegistry_ReplaceHandlerLastWriteWins(t *testing.T) {
	r := NewRegistry()
	old := newRecordingHandler("pong", 2)
	replacement := newRecordingHandler("pong", 2)

	r.RegisterHandler("pong", old)
	r.RegisterHandler("pong", replacement)

	// 后注册的处理器接管所有新事件
	require.True(t, r.Join(newClient("s1", "A"), "A", "pong").OK)
	assert.Zero(t, old.PlayerCount())
	assert.Equal(t, 1, replacement.PlayerCount())
}

func TestRegistry_TickPanicIsolation(t *testing.T) {
	r := NewRegistry()
	bad := newRecordingHandler("bad", 2)
	bad.panicOnTick = true
	good := newRecordingHandler("good", 2)
	r.RegisterHandler("bad", bad)
	r.RegisterHandler("good", good)

	// 一个游戏 panic 不能中断其他游戏的帧
	assert.NotPanics(t, func() { r.TickAll(0.016) })
	require.Len(t, good.ticks, 1)
	assert.Equal(t, 0.016, good.ticks[0])
}

func TestRegistry_RoomList(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("pong", newRecordingHandler("pong", 2))
	r.RegisterHandler("snake", newRecordingHandler("snake", 4))
	require.True(t, r.Join(newClient("s1", "A"), "A", "snake").OK)

	rooms := r.RoomList()
	require.Len(t, rooms, 2)

	// 按房间标识排序
	assert.Equal(t, "pong", rooms[0].RoomID)
	assert.Equal(t, "available", rooms[0].Status)
	assert.Equal(t, "snake", rooms[1].RoomID)
	assert.Equal(t, 1, rooms[1].PlayerCount)
	assert.Equal(t, "waiting", rooms[1].Status)
}

func TestRegistry_SecondJoinLeavesFirstRoom(t *testing.T) {
	r := NewRegistry()
	pongGame := newRecordingHandler("pong", 2)
	tttGame := newRecordingHandler("ttt", 2)
	r.RegisterHandler("pong", pongGame)
	r.RegisterHandler("ttt", tttGame)

	c := newClient("s1", "A")
	require.True(t, r.Join(c, "A", "pong").OK)
	require.True(t, r.Join(c, "A", "ttt").OK)

	// 换房等价于先离开：旧处理器被通知，容量槽位不泄漏
	assert.Equal(t, 1, pongGame.leaveCalls["s1"])
	assert.Zero(t, pongGame.PlayerCount())
	assert.Equal(t, 1, tttGame.PlayerCount())
	assert.Equal(t, "ttt", c.GetRoom())

	// 断开只触达当前房间的处理器
	r.Leave("s1")
	assert.Equal(t, 1, pongGame.leaveCalls["s1"])
	assert.Equal(t, 1, tttGame.leaveCalls["s1"])
}

func TestRegistry_SecondJoinFailureKeepsFirstRoom(t *testing.T) {
	r := NewRegistry()
	pongGame := newRecordingHandler("pong", 2)
	full := newRecordingHandler("full", 0)
	r.RegisterHandler("pong", pongGame)
	r.RegisterHandler("full", full)

	c := newClient("s1", "A")
	require.True(t, r.Join(c, "A", "pong").OK)

	// 换房被目标房间拒绝时，玩家留在原房间
	assert.False(t, r.Join(c, "A", "full").OK)
	assert.Zero(t, pongGame.leaveCalls["s1"])
	assert.Equal(t, 1, pongGame.PlayerCount())
	assert.Equal(t, "pong", c.GetRoom())
}

func TestRegistry_SenderRemovePlayer(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("pong", newRecordingHandler("pong", 2))

	c1 := newClient("s1", "A")
	c2 := newClient("s2", "B")
	require.True(t, r.Join(c1, "A", "pong").OK)
	require.True(t, r.Join(c2, "B", "pong").OK)

	// 处理器主动驱逐后，目录项销毁、广播不再送达
	r.mu.Lock()
	r.Sender().RemovePlayer("s1")
	r.mu.Unlock()

	_, found := r.PlayerName("s1")
	assert.False(t, found)
	assert.Empty(t, c1.GetRoom())

	r.BroadcastToRoom("pong", mustMessage(protocol.MsgStateUpdate, nil))
	assert.Empty(t, c1.MessagesOfType(protocol.MsgStateUpdate))
	assert.Len(t, c2.MessagesOfType(protocol.MsgStateUpdate), 1)

	// 驱逐后的会话断开是无操作
	assert.NotPanics(t, func() { r.Leave("s1") })
}

func TestRegistry_ClientRoomLifecycle(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("pong", newRecordingHandler("pong", 2))

	// 加入时订阅房间广播域，离开时取消订阅
	c := new(testutil.MockClient)
	c.On("GetID").Return("s1")
	c.On("SetRoom", "pong").Once()
	c.On("SetRoom", "").Once()

	require.True(t, r.Join(c, "A", "pong").OK)
	r.Leave("s1")

	c.AssertExpectations(t)
}

func TestRegistry_SenderScopesToRoom(t *testing.T) {
	r := NewRegistry()
	r.RegisterHandler("pong", newRecordingHandler("pong", 2))
	r.RegisterHandler("snake", newRecordingHandler("snake", 2))

	c1 := newClient("s1", "A")
	c2 := newClient("s2", "B")
	require.True(t, r.Join(c1, "A", "pong").OK)
	require.True(t, r.Join(c2, "B", "snake").OK)

	// Sender 与加锁版本共享同一套广播域规则
	r.mu.Lock()
	r.Sender().BroadcastToRoom("pong", mustMessage(protocol.MsgStateUpdate, nil))
	r.Sender().SendTo("s2", mustMessage(protocol.MsgError, protocol.ErrorPayload{Code: 1}))
	r.mu.Unlock()

	assert.Len(t, c1.MessagesOfType(protocol.MsgStateUpdate), 1)
	assert.Empty(t, c2.MessagesOfType(protocol.MsgStateUpdate))
	assert.Len(t, c2.MessagesOfType(protocol.MsgError), 1)
}
