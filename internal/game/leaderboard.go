package game

import (
	"sort"

	"trivia-service/internal/models"
)

// BuildLeaderboard ranks players by score descending, earlier join
// breaking ties. Sorting here keeps the ordering invariant independent of
// what the store returns.
func BuildLeaderboard(players []*models.Player) []models.LeaderboardEntry {
	sorted := make([]*models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})

	leaderboard := make([]models.LeaderboardEntry, 0, len(sorted))
	for i, player := range sorted {
		leaderboard = append(leaderboard, models.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: player.ID,
			Nickname: player.Nickname,
			Score:    player.Score,
		})
	}
	return leaderboard
}
