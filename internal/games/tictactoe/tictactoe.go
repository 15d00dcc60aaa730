// Package tictactoe 井字棋：回合制游戏处理器的参考实现
package tictactoe

import (
	"context"
	"encoding/json"
	"log"

	"github.com/palemoky/mini-arcade/internal/apperrors"
	"github.com/palemoky/mini-arcade/internal/game"
	"github.com/palemoky/mini-arcade/internal/gamestate"
	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/protocol/codec"
	"github.com/palemoky/mini-arcade/internal/types"
)

const (
	maxPlayers = 2
	boardSize  = 9

	// 落子动作名称
	EventPlaceMark = "place_mark"

	resetDelay = 5.0 // 游戏结束后回到等待状态的延迟（秒）
)

type phase int

const (
	phaseWaiting phase = iota
	phasePlaying
	phaseFinished
)

// player 对局玩家
type player struct {
	id   string
	name string
	mark string // "X" 或 "O"
}

// Game 井字棋处理器
// 所有方法由路由器串行调用，内部不加锁
type Game struct {
	roomID   string
	sender   game.Broadcaster
	recorder types.ScoreRecorder

	phase    phase
	players  []*player
	turns    *gamestate.TurnOrder
	timers   *gamestate.TimerQueue
	commands *game.CommandSet

	board [boardSize]string
	dirty bool // 自上次广播后状态是否有变化
}

// PlayerData 加入成功时回传给客户端的数据
type PlayerData struct {
	Mark string `json:"mark"` // X / O
}

// PlaceMarkPayload 落子参数
type PlaceMarkPayload struct {
	Cell int `json:"cell"` // 0-8，按行排列
}

// statePayload 广播的状态快照
type statePayload struct {
	Phase       string        `json:"phase"`
	Board       []string      `json:"board"`
	CurrentTurn string        `json:"current_turn"` // 当前回合玩家 ID
	Winner      string        `json:"winner,omitempty"`
	Players     []playerState `json:"players"`
}

type playerState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mark string `json:"mark"`
}

// New 创建井字棋处理器
func New(roomID string, sender game.Broadcaster, recorder types.ScoreRecorder) *Game {
	g := &Game{
		roomID:   roomID,
		sender:   sender,
		recorder: recorder,
		phase:    phaseWaiting,
		turns:    gamestate.NewTurnOrder(),
		timers:   gamestate.NewTimerQueue(),
		commands: game.NewCommandSet(),
	}
	g.commands.Register(EventPlaceMark, g.handlePlaceMark)
	return g
}

// RoomID 返回绑定的房间标识
func (g *Game) RoomID() string { return g.roomID }

// Join 实现 game.Handler
func (g *Game) Join(sessionID, playerName, roomID string) game.JoinResult {
	// 路由错投的防御性校验
	if roomID != g.roomID {
		return game.JoinFailed("房间不匹配: " + roomID)
	}
	if g.playerByID(sessionID) != nil {
		return game.JoinFailed("已在房间中")
	}
	if len(g.players) >= maxPlayers {
		return game.JoinFailed(apperrors.ErrRoomFull.Error())
	}
	if g.phase == phaseFinished {
		return game.JoinFailed("游戏刚刚结束，稍后再试")
	}

	// 取空闲的标记：有人离开后补位的玩家不会与留守方同标记
	mark := "X"
	if g.playerByMark("X") != nil {
		mark = "O"
	}
	g.players = append(g.players, &player{id: sessionID, name: playerName, mark: mark})
	g.turns.Add(sessionID)

	if len(g.players) == maxPlayers {
		g.start()
	}
	g.dirty = true

	return game.JoinOK(PlayerData{Mark: mark})
}

// Leave 实现 game.Handler，未知 ID 是无操作
func (g *Game) Leave(sessionID string) {
	for i, p := range g.players {
		if p.id != sessionID {
			continue
		}
		g.players = append(g.players[:i], g.players[i+1:]...)
		g.turns.Remove(sessionID)

		// 人数不足，中止对局回到等待
		if g.phase == phasePlaying {
			g.phase = phaseWaiting
			g.board = [boardSize]string{}
			g.turns.Reset()
			log.Printf("⭕ 房间 %s 对局因玩家离开而中止", g.roomID)
		}
		g.dirty = true
		return
	}
}

// Input 井字棋没有持续输入，全部忽略
func (g *Game) Input(sessionID string, payload json.RawMessage) {}

// CustomEvent 分发离散动作，未知动作名称直接忽略
func (g *Game) CustomEvent(sessionID, event string, payload json.RawMessage) {
	g.commands.Dispatch(sessionID, event, payload)
}

// Tick 推进延迟任务并在状态变化后广播快照
func (g *Game) Tick(dt float64) {
	g.timers.Advance(dt)

	if g.dirty {
		g.dirty = false
		g.broadcastState()
	}
}

// PlayerCount 实现 game.Handler
func (g *Game) PlayerCount() int { return len(g.players) }

// Status 实现 game.Handler
func (g *Game) Status() game.Status {
	switch {
	case g.phase == phaseFinished:
		return game.StatusFinished
	case g.phase == phasePlaying:
		return game.StatusInProgress
	case len(g.players) == 0:
		return game.StatusAvailable
	case len(g.players) < maxPlayers:
		return game.StatusWaiting
	default:
		return game.StatusFull
	}
}

func (g *Game) start() {
	g.phase = phasePlaying
	g.board = [boardSize]string{}
	g.turns.Reset()
	log.Printf("⭕ 房间 %s 对局开始", g.roomID)
}

// handlePlaceMark 处理落子
// 依次校验发送者、对局阶段、回合与格子合法性，非法动作以
// 明确的错误消息拒绝，绝不部分生效
func (g *Game) handlePlaceMark(sessionID string, payload json.RawMessage) {
	p := g.playerByID(sessionID)
	if p == nil {
		return
	}

	var move PlaceMarkPayload
	if err := json.Unmarshal(payload, &move); err != nil {
		g.sender.SendTo(sessionID, codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if gameErr := g.validateMove(sessionID, move); gameErr != nil {
		g.sender.SendTo(sessionID, codec.NewGameErrorMessage(gameErr))
		return
	}

	g.board[move.Cell] = p.mark
	g.dirty = true

	if g.checkWin(p.mark) {
		g.finish(p)
		return
	}
	if g.boardFull() {
		g.finishDraw()
		return
	}
	g.turns.Next()
}

// validateMove 校验落子合法性，合法时返回 nil
func (g *Game) validateMove(sessionID string, move PlaceMarkPayload) *apperrors.GameError {
	if g.phase != phasePlaying {
		return apperrors.ErrGameStarted
	}
	if g.turns.Current() != sessionID {
		return apperrors.ErrNotYourTurn
	}
	if move.Cell < 0 || move.Cell >= boardSize || g.board[move.Cell] != "" {
		return apperrors.ErrInvalidMove
	}
	return nil
}

// checkWin mark 是否连成一线
func (g *Game) checkWin(mark string) bool {
	lines := [][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // 行
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // 列
		{0, 4, 8}, {2, 4, 6}, // 对角线
	}
	for _, l := range lines {
		if g.board[l[0]] == mark && g.board[l[1]] == mark && g.board[l[2]] == mark {
			return true
		}
	}
	return false
}

func (g *Game) boardFull() bool {
	for _, cell := range g.board {
		if cell == "" {
			return false
		}
	}
	return true
}

func (g *Game) finish(winner *player) {
	g.phase = phaseFinished
	g.dirty = true

	log.Printf("🏆 房间 %s 对局结束，胜者 %s", g.roomID, winner.name)

	if g.recorder != nil {
		var loser *player
		for _, p := range g.players {
			if p.id != winner.id {
				loser = p
			}
		}
		winID, winName := winner.id, winner.name
		go func() {
			ctx := context.Background()
			if err := g.recorder.RecordWin(ctx, g.roomID, winID, winName); err != nil {
				log.Printf("记录胜场失败: %v", err)
			}
			if loser != nil {
				_ = g.recorder.RecordLoss(ctx, g.roomID, loser.id, loser.name)
			}
		}()
	}

	g.timers.After(resetDelay, g.reset)
}

func (g *Game) finishDraw() {
	g.phase = phaseFinished
	g.dirty = true
	log.Printf("⭕ 房间 %s 平局", g.roomID)
	g.timers.After(resetDelay, g.reset)
}

func (g *Game) reset() {
	// 清场同时把会话逐出广播域，之后的对局广播不再送达
	for _, p := range g.players {
		g.sender.RemovePlayer(p.id)
	}
	g.phase = phaseWaiting
	g.players = nil
	g.turns = gamestate.NewTurnOrder()
	g.board = [boardSize]string{}
	g.dirty = true
	log.Printf("⭕ 房间 %s 已重置", g.roomID)
}

func (g *Game) broadcastState() {
	states := make([]playerState, 0, len(g.players))
	for _, p := range g.players {
		states = append(states, playerState{ID: p.id, Name: p.name, Mark: p.mark})
	}

	phaseName := "waiting"
	winner := ""
	switch g.phase {
	case phasePlaying:
		phaseName = "playing"
	case phaseFinished:
		phaseName = "finished"
		if w := g.winnerID(); w != "" {
			winner = w
		}
	}

	g.sender.BroadcastToRoom(g.roomID, codec.MustNewMessage(protocol.MsgStateUpdate, statePayload{
		Phase:       phaseName,
		Board:       g.board[:],
		CurrentTurn: g.turns.Current(),
		Winner:      winner,
		Players:     states,
	}))
}

func (g *Game) winnerID() string {
	for _, p := range g.players {
		if g.checkWin(p.mark) {
			return p.id
		}
	}
	return ""
}

func (g *Game) playerByID(id string) *player {
	for _, p := range g.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (g *Game) playerByMark(mark string) *player {
	for _, p := range g.players {
		if p.mark == mark {
			return p
		}
	}
	return nil
}
