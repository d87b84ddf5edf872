package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// LeaderboardEntry is one ranked row of a centre leaderboard.
type LeaderboardEntry struct {
	UserID uint  `json:"user_id"`
	XP     int64 `json:"xp"`
	Rank   int   `json:"rank"`
}

// LeaderboardStore maintains a per-centre XP leaderboard in a Redis sorted
// set. The set mirrors the relational profile totals; the database remains
// the source of truth.
type LeaderboardStore interface {
	SetScore(ctx context.Context, centreID, userID uint, xp int64) error
	Top(ctx context.Context, centreID uint, limit int) ([]LeaderboardEntry, error)
}

type leaderboardStore struct {
	client *redis.Client
}

// NewLeaderboardStore constructs a Redis-backed leaderboard.
func NewLeaderboardStore(client *redis.Client) LeaderboardStore {
	return &leaderboardStore{client: client}
}

func leaderboardKey(centreID uint) string {
	return fmt.Sprintf("leaderboard:centre:%d", centreID)
}

func (s *leaderboardStore) SetScore(ctx context.Context, centreID, userID uint, xp int64) error {
	member := strconv.FormatUint(uint64(userID), 10)
	return s.client.ZAdd(ctx, leaderboardKey(centreID), redis.Z{
		Score:  float64(xp),
		Member: member,
	}).Err()
}

func (s *leaderboardStore) Top(ctx context.Context, centreID uint, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	results, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey(centreID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	// Dense ranking: tied scores share a rank and the next distinct score
	// takes the following one (100, 100, 50 ranks as 1, 1, 2).
	entries := make([]LeaderboardEntry, 0, len(results))
	rank := 0
	var prevScore float64
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		if rank == 0 || z.Score != prevScore {
			rank++
			prevScore = z.Score
		}
		entries = append(entries, LeaderboardEntry{
			UserID: uint(userID),
			XP:     int64(z.Score),
			Rank:   rank,
		})
	}

	return entries, nil
}
