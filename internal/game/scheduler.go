package game

import (
	"sync"
	"time"
)

// Scheduler 帧调度器
// 按目标帧率反复调用回调，传入两次调用之间测量到的真实间隔
// （秒）。回调超时不做追帧，下一帧顺延。Stop 之后不再有调用
type Scheduler struct {
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler 创建帧调度器，rate 为每秒帧数
func NewScheduler(rate int) *Scheduler {
	if rate <= 0 {
		rate = 60
	}
	return &Scheduler{
		interval: time.Second / time.Duration(rate),
		stop:     make(chan struct{}),
	}
}

// Start 启动调度协程
func (s *Scheduler) Start(fn func(dt float64)) {
	s.wg.Add(1)
	go s.run(fn)
}

func (s *Scheduler) run(fn func(dt float64)) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt < 0 {
				dt = 0 // 时钟回拨保护
			}
			last = now
			fn(dt)
		}
	}
}

// Stop 停止调度并等待当前帧执行完毕，可安全多次调用
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}
