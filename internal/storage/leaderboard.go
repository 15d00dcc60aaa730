package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/mini-arcade/internal/protocol"
)

const (
	// Redis key
	playerStatsKey = "player:stats:"
	leaderboardKey = "leaderboard:score"
)

// 积分规则
const (
	winPoints  = 10
	lossPoints = -5
)

// PlayerStats 玩家统计数据（跨游戏累计）
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"` // 总场次
	Wins       int `json:"wins"`        // 胜场
	Losses     int `json:"losses"`      // 败场

	Score int `json:"score"` // 当前积分

	LastPlayedAt int64 `json:"last_played_at"` // 最后游戏时间
	CreatedAt    int64 `json:"created_at"`     // 首次游戏时间
}

// Leaderboard 积分榜管理器
// 核心的房间/广播路径不依赖它：对局状态只存在于内存中，
// 这里只异步累计战绩
type Leaderboard struct {
	redis *redis.Client
}

// NewLeaderboard 创建积分榜管理器
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client}
}

// GetPlayerStats 获取玩家统计，无记录时返回 nil
func (lb *Leaderboard) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lb.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecordWin 记录一场胜利
func (lb *Leaderboard) RecordWin(ctx context.Context, roomID, playerID, playerName string) error {
	return lb.record(ctx, playerID, playerName, true)
}

// RecordLoss 记录一场失败
func (lb *Leaderboard) RecordLoss(ctx context.Context, roomID, playerID, playerName string) error {
	return lb.record(ctx, playerID, playerName, false)
}

func (lb *Leaderboard) record(ctx context.Context, playerID, playerName string, won bool) error {
	stats, err := lb.getOrCreateStats(ctx, playerID, playerName)
	if err != nil {
		return err
	}

	stats.TotalGames++
	if won {
		stats.Wins++
		stats.Score += winPoints
	} else {
		stats.Losses++
		stats.Score += lossPoints
		if stats.Score < 0 {
			stats.Score = 0
		}
	}
	stats.PlayerName = playerName
	stats.LastPlayedAt = time.Now().Unix()

	if err := lb.saveStats(ctx, stats); err != nil {
		return err
	}

	// 更新排行榜 ZSET
	return lb.redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(stats.Score),
		Member: playerID,
	}).Err()
}

// GetLeaderboard 获取积分从高到低的前 limit 名
func (lb *Leaderboard) GetLeaderboard(ctx context.Context, limit int) ([]protocol.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	ids, err := lb.redis.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]protocol.LeaderboardEntry, 0, len(ids))
	for i, id := range ids {
		stats, err := lb.GetPlayerStats(ctx, id)
		if err != nil || stats == nil {
			continue
		}
		entries = append(entries, protocol.LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   stats.PlayerID,
			PlayerName: stats.PlayerName,
			Score:      stats.Score,
			Wins:       stats.Wins,
		})
	}
	return entries, nil
}

// getOrCreateStats 获取或创建玩家统计
func (lb *Leaderboard) getOrCreateStats(ctx context.Context, playerID, playerName string) (*PlayerStats, error) {
	stats, err := lb.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{
			PlayerID:   playerID,
			PlayerName: playerName,
			CreatedAt:  time.Now().Unix(),
		}
	}
	return stats, nil
}

func (lb *Leaderboard) saveStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lb.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}
