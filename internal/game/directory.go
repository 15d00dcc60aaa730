package game

import (
	"github.com/palemoky/mini-arcade/internal/types"
)

// Player 应用层玩家身份，绑定到一条会话
type Player struct {
	ID     string                // 会话 ID
	Name   string                // 昵称
	RoomID string                // 当前所在房间
	Data   any                   // 处理器在加入时提供的扩展数据
	Client types.ClientInterface // 发送通道
}

// Directory 玩家目录：会话 ID → 玩家记录
// 所有操作都在路由器锁内执行，无需自身加锁
type Directory struct {
	players map[string]*Player
}

// NewDirectory 创建玩家目录
func NewDirectory() *Directory {
	return &Directory{players: make(map[string]*Player)}
}

// Register 登记玩家
func (d *Directory) Register(p *Player) {
	d.players[p.ID] = p
}

// Lookup 按会话 ID 查找玩家
func (d *Directory) Lookup(sessionID string) (*Player, bool) {
	p, ok := d.players[sessionID]
	return p, ok
}

// Remove 删除并返回玩家记录，不存在时返回 nil
func (d *Directory) Remove(sessionID string) *Player {
	p, ok := d.players[sessionID]
	if !ok {
		return nil
	}
	delete(d.players, sessionID)
	return p
}

// InRoom 返回当前在指定房间内的所有玩家
// 房间不是独立对象，而是 RoomID 相同的玩家集合
func (d *Directory) InRoom(roomID string) []*Player {
	var players []*Player
	for _, p := range d.players {
		if p.RoomID == roomID {
			players = append(players, p)
		}
	}
	return players
}

// Count 当前登记的玩家总数
func (d *Directory) Count() int {
	return len(d.players)
}
