package parser

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

// ParsePlayers decodes a stored gameData blob. Absent or blank blobs are an
// empty collection; anything else must be a JSON array of records.
func ParsePlayers(data []byte) ([]model.PlayerRecord, error) {
	var records []model.PlayerRecord
	if err := decodeCollection(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse player records: %w", err)
	}
	if records == nil {
		records = []model.PlayerRecord{}
	}
	return records, nil
}

// ParseLeaderboard decodes a stored leaderboard blob.
func ParseLeaderboard(data []byte) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	if err := decodeCollection(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse leaderboard: %w", err)
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return entries, nil
}

// PlayersOrEmpty is ParsePlayers with parse failures folded into an empty
// collection. The error is still returned so callers can log it.
func PlayersOrEmpty(data []byte) ([]model.PlayerRecord, error) {
	records, err := ParsePlayers(data)
	if err != nil {
		return []model.PlayerRecord{}, err
	}
	return records, nil
}

// LeaderboardOrEmpty mirrors PlayersOrEmpty for the leaderboard.
func LeaderboardOrEmpty(data []byte) ([]model.LeaderboardEntry, error) {
	entries, err := ParseLeaderboard(data)
	if err != nil {
		return []model.LeaderboardEntry{}, err
	}
	return entries, nil
}

// MarshalPlayers serializes the whole collection for a full replacement write.
func MarshalPlayers(records []model.PlayerRecord) ([]byte, error) {
	if records == nil {
		records = []model.PlayerRecord{}
	}
	return json.Marshal(records)
}

// MarshalLeaderboard serializes the leaderboard for a full replacement write.
func MarshalLeaderboard(entries []model.LeaderboardEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return json.Marshal(entries)
}

func decodeCollection(data []byte, v interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if !utf8.Valid(trimmed) {
		return fmt.Errorf("blob is not valid UTF-8")
	}
	return json.Unmarshal(trimmed, v)
}
