package gamestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnOrder_Rotation(t *testing.T) {
	o := NewTurnOrder()
	o.Add("a")
	o.Add("b")
	o.Add("c")

	assert.Equal(t, "a", o.Current())
	assert.Equal(t, "b", o.Next())
	assert.Equal(t, "c", o.Next())
	assert.Equal(t, "a", o.Next()) // 轮转回第一位
}

func TestTurnOrder_AddDuplicate(t *testing.T) {
	o := NewTurnOrder()
	o.Add("a")
	o.Add("a")
	assert.Equal(t, 1, o.Len())
}

func TestTurnOrder_RemoveCurrentAdvancesTurn(t *testing.T) {
	o := NewTurnOrder()
	o.Add("a")
	o.Add("b")
	o.Add("c")
	o.Next() // 当前回合 b

	o.Remove("b")

	// 回合落到顺序中的下一位
	assert.Equal(t, "c", o.Current())
	assert.Equal(t, []string{"a", "c"}, o.IDs())
}

func TestTurnOrder_RemoveBeforeCurrentKeepsTurn(t *testing.T) {
	o := NewTurnOrder()
	o.Add("a")
	o.Add("b")
	o.Add("c")
	o.Next() // 当前回合 b

	o.Remove("a")
	assert.Equal(t, "b", o.Current())
}

func TestTurnOrder_RemoveLastWrapsToFirst(t *testing.T) {
	o := NewTurnOrder()
	o.Add("a")
	o.Add("b")
	o.Next() // 当前回合 b

	o.Remove("b")
	assert.Equal(t, "a", o.Current())
}

func TestTurnOrder_Empty(t *testing.T) {
	o := NewTurnOrder()
	assert.Empty(t, o.Current())
	assert.Empty(t, o.Next())
	assert.False(t, o.Contains("a"))

	o.Remove("ghost") // 无操作
	assert.Zero(t, o.Len())
}
