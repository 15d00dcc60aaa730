package game

import "encoding/json"

// CommandFunc 单个离散动作的处理函数
type CommandFunc func(sessionID string, payload json.RawMessage)

// CommandSet 类型化的动作注册表
// 取代按字符串 switch 的动态分发：每个游戏在构造时注册自己的
// 动作名称到处理函数的映射。未知动作名称被忽略，不算错误
type CommandSet struct {
	commands map[string]CommandFunc
}

// NewCommandSet 创建空的动作注册表
func NewCommandSet() *CommandSet {
	return &CommandSet{commands: make(map[string]CommandFunc)}
}

// Register 注册动作处理函数，重复注册同名动作属于编程错误
func (cs *CommandSet) Register(event string, fn CommandFunc) {
	if _, exists := cs.commands[event]; exists {
		panic("game: 动作 " + event + " 重复注册")
	}
	cs.commands[event] = fn
}

// Dispatch 分发动作，返回动作名称是否已注册
func (cs *CommandSet) Dispatch(sessionID, event string, payload json.RawMessage) bool {
	fn, exists := cs.commands[event]
	if !exists {
		return false
	}
	fn(sessionID, payload)
	return true
}
