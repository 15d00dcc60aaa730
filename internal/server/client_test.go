package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/mini-arcade/internal/protocol"
	"github.com/palemoky/mini-arcade/internal/protocol/codec"
)

func TestClient_SendMessageAfterCloseIsNoop(t *testing.T) {
	c := NewClient(nil, nil)
	c.Close()

	assert.NotPanics(t, func() {
		c.SendMessage(codec.MustNewMessage(protocol.MsgPong, nil))
	})

	// 重复 Close 安全
	assert.NotPanics(t, c.Close)
}

func TestClient_ConcurrentSendAndClose(t *testing.T) {
	c := NewClient(nil, nil)
	msg := codec.MustNewMessage(protocol.MsgPong, nil)

	// 先填满发送缓冲，让后续发送都走缓冲满关闭路径
	for i := 0; i < cap(c.send); i++ {
		c.SendMessage(msg)
	}

	// 并发发送与关闭不会向已关闭的通道写入
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.SendMessage(msg)
			}
		}()
	}
	c.Close()
	wg.Wait()
}

func TestClient_RoomAccessors(t *testing.T) {
	c := NewClient(nil, nil)

	assert.Empty(t, c.GetRoom())
	c.SetRoom("pong")
	assert.Equal(t, "pong", c.GetRoom())

	assert.NotEmpty(t, c.GetID())
	assert.NotEmpty(t, c.GetName())
}
