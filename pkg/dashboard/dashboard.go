// Package dashboard computes the aggregate views shown next to the player list.
package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/codec"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

// LeaderboardSize is how many entries Leaderboard keeps.
const LeaderboardSize = 10

// Stats summarises the loaded player records. Averages are fixed to one
// decimal place.
type Stats struct {
	TotalPlayers int    `json:"totalPlayers"`
	AverageHP    string `json:"averageHP"`
	AverageATK   string `json:"averageATK"`
	AverageDEF   string `json:"averageDEF"`
}

// Compute decodes each record's own stats and averages them. Fields that do
// not decode count as zero.
func Compute(records []model.PlayerRecord) Stats {
	sums := make(map[model.Field]decimal.Decimal, len(model.Fields))
	for _, r := range records {
		for _, f := range model.Fields {
			sums[f] = sums[f].Add(decimal.NewFromFloat(codec.DecodeOrZero(r.Encrypted(f))))
		}
	}

	avg := func(f model.Field) string {
		if len(records) == 0 {
			return decimal.Zero.StringFixed(1)
		}
		return sums[f].Div(decimal.NewFromInt(int64(len(records)))).StringFixed(1)
	}

	return Stats{
		TotalPlayers: len(records),
		AverageHP:    avg(model.FieldHP),
		AverageATK:   avg(model.FieldATK),
		AverageDEF:   avg(model.FieldDEF),
	}
}

// RankedEntry is a leaderboard row with its 1-based rank.
type RankedEntry struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Leaderboard returns the top entries by score, highest first. Ties keep
// their stored order. entries is not modified.
func Leaderboard(entries []model.LeaderboardEntry) []RankedEntry {
	sorted := make([]model.LeaderboardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if len(sorted) > LeaderboardSize {
		sorted = sorted[:LeaderboardSize]
	}

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{Rank: i + 1, Name: e.Name, Score: e.Score}
	}
	return ranked
}
