package gamestate

// Scoreboard 单局内的比分记录
type Scoreboard struct {
	scores map[string]int
}

// NewScoreboard 创建空比分
func NewScoreboard() *Scoreboard {
	return &Scoreboard{scores: make(map[string]int)}
}

// Add 给玩家加分
func (sb *Scoreboard) Add(id string, points int) {
	sb.scores[id] += points
}

// Get 查询玩家得分，未记录的玩家为 0
func (sb *Scoreboard) Get(id string) int {
	return sb.scores[id]
}

// Remove 移除玩家的比分记录
func (sb *Scoreboard) Remove(id string) {
	delete(sb.scores, id)
}

// Leader 返回得分最高的玩家 ID 及其分数
// 无记录时返回空串；并列时返回其中任意一名
func (sb *Scoreboard) Leader() (string, int) {
	leader := ""
	best := 0
	for id, score := range sb.scores {
		if leader == "" || score > best {
			leader = id
			best = score
		}
	}
	return leader, best
}

// Reached 是否有玩家达到目标分数
func (sb *Scoreboard) Reached(target int) (string, bool) {
	for id, score := range sb.scores {
		if score >= target {
			return id, true
		}
	}
	return "", false
}

// Reset 清空所有比分
func (sb *Scoreboard) Reset() {
	sb.scores = make(map[string]int)
}
