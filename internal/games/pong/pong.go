// Package pong 双人弹球：持续输入型游戏处理器的参考实现
package pong

import (
	"context"
	"encoding/json"
	"log"

	"github.com/palemoky/mini-arcade/internal/apperrors"
	"github.com/palemoky/mini-arcade/internal/game"
	"github.com/palemoky/mini-arcade/internal/gamestate"
	"github.com/palemoky/mini-arcade/internal/physics"
	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/protocol/codec"
	"github.com/palemoky/mini-arcade/internal/types"
)

const (
	maxPlayers = 2
	winScore   = 5

	courtWidth  = 800.0
	courtHeight = 600.0
	paddleW     = 10.0
	paddleH     = 100.0
	paddleSpeed = 300.0 // 像素/秒
	ballRadius  = 8.0
	ballSpeed   = 250.0

	resetDelay = 5.0 // 游戏结束后回到等待状态的延迟（秒）
)

type phase int

const (
	phaseWaiting phase = iota
	phasePlaying
	phaseFinished
)

// player 场上玩家
// 玩家集合的权威表示是这个切片，顺序即加入顺序
type player struct {
	id        string
	name      string
	number    int     // 1 = 左侧，2 = 右侧
	paddleY   float64 // 球拍上沿
	direction int     // 当前按住的方向: -1 上 / 0 停 / 1 下
}

// Game 弹球游戏处理器
// 所有方法由路由器串行调用，内部不加锁
type Game struct {
	roomID   string
	sender   game.Broadcaster
	recorder types.ScoreRecorder

	phase   phase
	players []*player
	score   *gamestate.Scoreboard
	timers  *gamestate.TimerQueue

	ballPos physics.Vec2
	ballVel physics.Vec2
}

// PlayerData 加入成功时回传给客户端的数据
type PlayerData struct {
	PlayerNumber int     `json:"player_number"` // 1 或 2
	Side         string  `json:"side"`          // left / right
	PaddleY      float64 `json:"paddle_y"`
}

// InputPayload 持续输入
type InputPayload struct {
	Direction int `json:"direction"` // -1 / 0 / 1
}

// statePayload 每帧广播的状态快照
type statePayload struct {
	Phase   string        `json:"phase"`
	Ball    physics.Vec2  `json:"ball"`
	Players []playerState `json:"players"`
}

type playerState struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Number  int     `json:"number"`
	PaddleY float64 `json:"paddle_y"`
	Score   int     `json:"score"`
}

// New 创建弹球处理器
func New(roomID string, sender game.Broadcaster, recorder types.ScoreRecorder) *Game {
	return &Game{
		roomID:   roomID,
		sender:   sender,
		recorder: recorder,
		phase:    phaseWaiting,
		score:    gamestate.NewScoreboard(),
		timers:   gamestate.NewTimerQueue(),
	}
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

	// 取最小的空闲编号：有人离开后补位的玩家不会与留守方重号
	number := 1
	for g.playerByNumber(number) != nil {
		number++
	}
	p := &player{
		id:      sessionID,
		name:    playerName,
		number:  number,
		paddleY: (courtHeight - paddleH) / 2,
	}
	g.players = append(g.players, p)

	if len(g.players) == maxPlayers {
		g.start()
	}

	side := "left"
	if number == 2 {
		side = "right"
	}
	return game.JoinOK(PlayerData{
		PlayerNumber: number,
		Side:         side,
		PaddleY:      p.paddleY,
	})
}

// Leave 实现 game.Handler，未知 ID 是无操作
func (g *Game) Leave(sessionID string) {
	for i, p := range g.players {
		if p.id != sessionID {
			continue
		}
		g.players = append(g.players[:i], g.players[i+1:]...)
		g.score.Remove(sessionID)

		// 人数不足，中止对局回到等待
		if g.phase == phasePlaying {
			g.phase = phaseWaiting
			g.ballVel = physics.Vec2{}
			g.score.Reset()
			log.Printf("🏓 房间 %s 对局因玩家离开而中止", g.roomID)
		}
		return
	}
}

// Input 覆盖玩家当前按住的方向
func (g *Game) Input(sessionID string, payload json.RawMessage) {
	p := g.playerByID(sessionID)
	if p == nil {
		return
	}
	var input InputPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		return
	}
	if input.Direction < -1 || input.Direction > 1 {
		return
	}
	p.direction = input.Direction
}

// CustomEvent 弹球没有离散动作，全部忽略
func (g *Game) CustomEvent(sessionID, event string, payload json.RawMessage) {}

// Tick 推进物理模拟并广播快照
func (g *Game) Tick(dt float64) {
	g.timers.Advance(dt)

	if g.phase != phasePlaying {
		return
	}

	for _, p := range g.players {
		p.paddleY += float64(p.direction) * paddleSpeed * dt
		if p.paddleY < 0 {
			p.paddleY = 0
		}
		if p.paddleY > courtHeight-paddleH {
			p.paddleY = courtHeight - paddleH
		}
	}

	g.moveBall(dt)
	g.broadcastState()
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
	g.score.Reset()
	g.serve(1)
	log.Printf("🏓 房间 %s 对局开始", g.roomID)
}

// serve 发球，direction 为球的初始水平方向（+1 朝右）
func (g *Game) serve(direction float64) {
	g.ballPos = physics.Vec2{X: courtWidth / 2, Y: courtHeight / 2}
	g.ballVel = physics.Vec2{X: direction, Y: 0.5}.Normalize().Scale(ballSpeed)
}

func (g *Game) moveBall(dt float64) {
	g.ballPos = g.ballPos.Add(g.ballVel.Scale(dt))

	// 上下边界反弹
	if g.ballPos.Y-ballRadius < 0 {
		g.ballPos.Y = ballRadius
		g.ballVel.Y = -g.ballVel.Y
	}
	if g.ballPos.Y+ballRadius > courtHeight {
		g.ballPos.Y = courtHeight - ballRadius
		g.ballVel.Y = -g.ballVel.Y
	}

	// 球拍碰撞
	ball := physics.Circle{Center: g.ballPos, Radius: ballRadius}
	for _, p := range g.players {
		rect := g.paddleRect(p)
		if !ball.IntersectsRect(rect) {
			continue
		}
		if p.number == 1 && g.ballVel.X < 0 {
			g.ballPos.X = rect.X + rect.W + ballRadius
			g.ballVel.X = -g.ballVel.X
		}
		if p.number == 2 && g.ballVel.X > 0 {
			g.ballPos.X = rect.X - ballRadius
			g.ballVel.X = -g.ballVel.X
		}
	}

	// 出界得分
	if g.ballPos.X < -ballRadius {
		g.pointScored(2)
	} else if g.ballPos.X > courtWidth+ballRadius {
		g.pointScored(1)
	}
}

func (g *Game) paddleRect(p *player) physics.Rect {
	x := 20.0
	if p.number == 2 {
		x = courtWidth - 20 - paddleW
	}
	return physics.Rect{X: x, Y: p.paddleY, W: paddleW, H: paddleH}
}

// pointScored 某一侧得分，winnerNumber 为得分方编号
func (g *Game) pointScored(winnerNumber int) {
	scorer := g.playerByNumber(winnerNumber)
	if scorer == nil {
		return
	}
	g.score.Add(scorer.id, 1)

	if g.score.Get(scorer.id) >= winScore {
		g.finish(scorer)
		return
	}

	// 输的一方发球
	direction := 1.0
	if winnerNumber == 2 {
		direction = -1.0
	}
	g.serve(direction)
}

func (g *Game) finish(winner *player) {
	g.phase = phaseFinished
	g.ballVel = physics.Vec2{}
	g.broadcastState()

	log.Printf("🏆 房间 %s 对局结束，胜者 %s", g.roomID, winner.name)

	if g.recorder != nil {
		loser := g.playerByNumber(3 - winner.number)
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

	// 延迟后清场回到等待状态
	g.timers.After(resetDelay, g.reset)
}

func (g *Game) reset() {
	// 清场同时把会话逐出广播域，之后的对局广播不再送达
	for _, p := range g.players {
		g.sender.RemovePlayer(p.id)
	}
	g.phase = phaseWaiting
	g.players = nil
	g.score.Reset()
	g.ballPos = physics.Vec2{}
	g.ballVel = physics.Vec2{}
	log.Printf("🏓 房间 %s 已重置", g.roomID)
}

func (g *Game) broadcastState() {
	states := make([]playerState, 0, len(g.players))
	for _, p := range g.players {
		states = append(states, playerState{
			ID:      p.id,
			Name:    p.name,
			Number:  p.number,
			PaddleY: p.paddleY,
			Score:   g.score.Get(p.id),
		})
	}

	phaseName := "waiting"
	switch g.phase {
	case phasePlaying:
		phaseName = "playing"
	case phaseFinished:
		phaseName = "finished"
	}

	g.sender.BroadcastToRoom(g.roomID, codec.MustNewMessage(protocol.MsgStateUpdate, statePayload{
		Phase:   phaseName,
		Ball:    g.ballPos,
		Players: states,
	}))
}

func (g *Game) playerByID(id string) *player {
	for _, p := range g.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (g *Game) playerByNumber(number int) *player {
	for _, p := range g.players {
		if p.number == number {
			return p
		}
	}
	return nil
}
