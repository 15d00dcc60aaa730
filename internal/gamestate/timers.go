package gamestate

// TimerQueue 帧驱动的延迟任务队列
// 取代游戏逻辑里散落的 OS 定时器：处理器把"若干秒后执行"登记到
// 队列，并在自己的 Tick 里用测量的帧间隔推进。回调在 Advance
// 的调用栈上同步执行，因此与游戏状态的互斥由调度模型保证，
// 关停时也无需逐个清理系统定时器
type TimerQueue struct {
	timers []*Timer
}

// Timer 一个待触发的延迟任务
type Timer struct {
	remaining float64 // 剩余秒数
	fn        func()
	stopped   bool
}

// Stop 取消任务，已触发或已取消时是无操作
func (t *Timer) Stop() {
	t.stopped = true
}

// NewTimerQueue 创建延迟任务队列
func NewTimerQueue() *TimerQueue {
	return &TimerQueue{}
}

// After 登记 seconds 秒后执行的任务，返回可取消的句柄
func (q *TimerQueue) After(seconds float64, fn func()) *Timer {
	t := &Timer{remaining: seconds, fn: fn}
	q.timers = append(q.timers, t)
	return t
}

// Advance 推进 dt 秒，同步触发所有到期任务
// 回调里允许继续登记新任务，新任务从下一次 Advance 开始计时
func (q *TimerQueue) Advance(dt float64) {
	pending := q.timers
	q.timers = nil

	var alive []*Timer
	var due []*Timer
	for _, t := range pending {
		if t.stopped {
			continue
		}
		t.remaining -= dt
		if t.remaining <= 0 {
			due = append(due, t)
		} else {
			alive = append(alive, t)
		}
	}
	// 先挂回未到期的，再触发回调，让回调里的 After 正常排队
	q.timers = append(alive, q.timers...)

	for _, t := range due {
		if !t.stopped {
			t.fn()
		}
	}
}

// Pending 当前排队中的任务数
func (q *TimerQueue) Pending() int {
	count := 0
	for _, t := range q.timers {
		if !t.stopped {
			count++
		}
	}
	return count
}

// Clear 丢弃所有排队中的任务
func (q *TimerQueue) Clear() {
	q.timers = nil
}
