package gamestate

// TurnOrder 回合顺序
// 用单一的有序列表加当前索引表示，玩家的加入顺序即回合顺序。
// 这是玩家集合的唯一权威表示，避免列表和映射两套数据不一致
type TurnOrder struct {
	ids     []string
	current int
}

// NewTurnOrder 创建空的回合顺序
func NewTurnOrder() *TurnOrder {
	return &TurnOrder{}
}

// Add 把玩家追加到顺序末尾，重复添加是无操作
func (o *TurnOrder) Add(id string) {
	for _, existing := range o.ids {
		if existing == id {
			return
		}
	}
	o.ids = append(o.ids, id)
}

// Remove 移除玩家并保持当前回合指向合理的玩家
// 移除当前回合玩家时，回合落到顺序中的下一位
func (o *TurnOrder) Remove(id string) {
	for i, existing := range o.ids {
		if existing != id {
			continue
		}
		o.ids = append(o.ids[:i], o.ids[i+1:]...)
		if len(o.ids) == 0 {
			o.current = 0
		} else if i < o.current {
			o.current--
		} else if o.current >= len(o.ids) {
			o.current = 0
		}
		return
	}
}

// Contains 玩家是否在顺序中
func (o *TurnOrder) Contains(id string) bool {
	for _, existing := range o.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Current 当前回合的玩家 ID，顺序为空时返回空串
func (o *TurnOrder) Current() string {
	if len(o.ids) == 0 {
		return ""
	}
	return o.ids[o.current]
}

// Next 轮转到下一位玩家并返回其 ID
func (o *TurnOrder) Next() string {
	if len(o.ids) == 0 {
		return ""
	}
	o.current = (o.current + 1) % len(o.ids)
	return o.ids[o.current]
}

// Reset 回合从顺序中的第一位重新开始
func (o *TurnOrder) Reset() {
	o.current = 0
}

// Len 顺序中的玩家数
func (o *TurnOrder) Len() int {
	return len(o.ids)
}

// IDs 按回合顺序返回所有玩家 ID 的副本
func (o *TurnOrder) IDs() []string {
	out := make([]string, len(o.ids))
	copy(out, o.ids)
	return out
}
