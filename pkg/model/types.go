package model

// Gateway keys holding the two collections.
const (
	KeyGameData    = "gameData"
	KeyLeaderboard = "leaderboard"
)

// PlayerRecord is a single player's encoded stats as stored under KeyGameData.
type PlayerRecord struct {
	ID           int    `json:"id"`
	PlayerName   string `json:"playerName"`
	EncryptedHP  string `json:"encryptedHP"`
	EncryptedATK string `json:"encryptedATK"`
	EncryptedDEF string `json:"encryptedDEF"`
	Timestamp    int64  `json:"timestamp"`
	Owner        string `json:"owner"`
}

// LeaderboardEntry is stored under KeyLeaderboard. Score is the plaintext
// sum of the three stats at creation time.
type LeaderboardEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Field names one of the three encoded stats.
type Field string

const (
	FieldHP  Field = "hp"
	FieldATK Field = "atk"
	FieldDEF Field = "def"
)

// Fields lists the stats in display order.
var Fields = []Field{FieldHP, FieldATK, FieldDEF}

// Valid reports whether f names a known stat.
func (f Field) Valid() bool {
	switch f {
	case FieldHP, FieldATK, FieldDEF:
		return true
	}
	return false
}

// Encrypted returns the encoded value of f on the record.
func (r PlayerRecord) Encrypted(f Field) string {
	switch f {
	case FieldHP:
		return r.EncryptedHP
	case FieldATK:
		return r.EncryptedATK
	case FieldDEF:
		return r.EncryptedDEF
	}
	return ""
}

// ShortOwner renders the owner address as 0x1234...abcd.
func (r PlayerRecord) ShortOwner() string {
	if len(r.Owner) <= 10 {
		return r.Owner
	}
	return r.Owner[:6] + "..." + r.Owner[len(r.Owner)-4:]
}
