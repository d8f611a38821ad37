package dashboard

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/codec"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

func record(hp, atk, def float64) model.PlayerRecord {
	return model.PlayerRecord{
		EncryptedHP:  codec.MustEncode(hp),
		EncryptedATK: codec.MustEncode(atk),
		EncryptedDEF: codec.MustEncode(def),
	}
}

func TestComputeAverages(t *testing.T) {
	stats := Compute([]model.PlayerRecord{
		record(10, 5, 3),
		record(20, 6, 4),
		record(30, 7, 0),
	})

	assert.Equal(t, 3, stats.TotalPlayers)
	assert.Equal(t, "20.0", stats.AverageHP)
	assert.Equal(t, "6.0", stats.AverageATK)
	assert.Equal(t, "2.3", stats.AverageDEF)
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)
	assert.Equal(t, 0, stats.TotalPlayers)
	assert.Equal(t, "0.0", stats.AverageHP)
	assert.Equal(t, "0.0", stats.AverageATK)
	assert.Equal(t, "0.0", stats.AverageDEF)
}

func TestComputeTreatsUndecodableAsZero(t *testing.T) {
	stats := Compute([]model.PlayerRecord{
		record(10, 10, 10),
		{EncryptedHP: "FHE-@@@", EncryptedATK: "", EncryptedDEF: "12"},
	})
	assert.Equal(t, "5.0", stats.AverageHP)
	assert.Equal(t, "5.0", stats.AverageATK)
	assert.Equal(t, "11.0", stats.AverageDEF)
}

func TestLeaderboardRanksAndTruncates(t *testing.T) {
	var entries []model.LeaderboardEntry
	for i := 0; i < 15; i++ {
		entries = append(entries, model.LeaderboardEntry{Name: string(rune('a' + i)), Score: float64(i)})
	}

	top := Leaderboard(entries)
	assert.Len(t, top, LeaderboardSize)
	assert.Equal(t, RankedEntry{Rank: 1, Name: "o", Score: 14}, top[0])
	assert.Equal(t, RankedEntry{Rank: 10, Name: "f", Score: 5}, top[9])
	assert.Equal(t, "a", entries[0].Name, "input order untouched")
}

func TestLeaderboardTiesKeepStoredOrder(t *testing.T) {
	top := Leaderboard([]model.LeaderboardEntry{
		{Name: "first", Score: 18},
		{Name: "low", Score: 1},
		{Name: "second", Score: 18},
	})
	assert.Equal(t, []string{"first", "second", "low"}, []string{top[0].Name, top[1].Name, top[2].Name})
}

func TestLeaderboardProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-increasing and at most 10 entries", prop.ForAll(
		func(scores []float64) bool {
			entries := make([]model.LeaderboardEntry, len(scores))
			for i, s := range scores {
				entries[i] = model.LeaderboardEntry{Name: "p", Score: s}
			}
			top := Leaderboard(entries)
			if len(top) > LeaderboardSize || len(top) > len(entries) {
				return false
			}
			for i := 1; i < len(top); i++ {
				if top[i].Score > top[i-1].Score || top[i].Rank != i+1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
