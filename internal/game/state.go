package game

import (
	"github.com/vlbabney57/GameCrypt-Engine/pkg/dashboard"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

// Tab is the section of the page being shown.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabPlayers   Tab = "players"
	TabFeatures  Tab = "features"
	TabFAQ       Tab = "faq"
)

func (t Tab) Valid() bool {
	switch t {
	case TabDashboard, TabPlayers, TabFeatures, TabFAQ:
		return true
	}
	return false
}

// TxStatus is the state of the transaction banner.
type TxStatus string

const (
	StatusPending TxStatus = "pending"
	StatusSuccess TxStatus = "success"
	StatusError   TxStatus = "error"
)

// Banner messages.
const (
	MsgLoadFailed       = "Failed to load data"
	MsgUnavailable      = "Contract is not available"
	MsgConnectWallet    = "Please connect wallet first"
	MsgCreating         = "Creating player data..."
	MsgCreated          = "Player created successfully!"
	MsgRejected         = "Transaction rejected by user"
	MsgSubmissionFailed = "Submission failed: "
)

// Banner is the transient transaction status line.
type Banner struct {
	Visible bool     `json:"visible"`
	Status  TxStatus `json:"status"`
	Message string   `json:"message"`

	// seq identifies the banner so an expiry timer only hides its own.
	seq uint64
}

// Form holds the raw create-player inputs.
type Form struct {
	PlayerName string `json:"playerName"`
	HP         string `json:"hp"`
	ATK        string `json:"atk"`
	DEF        string `json:"def"`
}

// Complete reports whether every input has been filled in.
func (f Form) Complete() bool {
	return f.PlayerName != "" && f.HP != "" && f.ATK != "" && f.DEF != ""
}

// DecryptedStats caches the values revealed for the selected player.
type DecryptedStats struct {
	HP  *float64 `json:"hp"`
	ATK *float64 `json:"atk"`
	DEF *float64 `json:"def"`
}

func (d *DecryptedStats) slot(f model.Field) **float64 {
	switch f {
	case model.FieldHP:
		return &d.HP
	case model.FieldATK:
		return &d.ATK
	case model.FieldDEF:
		return &d.DEF
	}
	return nil
}

// Get returns the cached value for f, or nil.
func (d DecryptedStats) Get(f model.Field) *float64 {
	if p := d.slot(f); p != nil {
		return *p
	}
	return nil
}

func (d *DecryptedStats) Set(f model.Field, v float64) {
	if p := d.slot(f); p != nil {
		*p = &v
	}
}

func (d *DecryptedStats) Clear(f model.Field) {
	if p := d.slot(f); p != nil {
		*p = nil
	}
}

// State is everything the page renders. Transitions are the methods below;
// the Service owns the only mutable instance.
type State struct {
	Players     []model.PlayerRecord     `json:"players"`
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	Refreshing  bool                     `json:"refreshing"`

	ShowCreateModal bool `json:"showCreateModal"`
	Creating        bool `json:"creating"`
	Form            Form `json:"form"`

	Selected   *model.PlayerRecord `json:"selected"`
	Decrypted  DecryptedStats      `json:"decrypted"`
	Decrypting bool                `json:"decrypting"`

	Tab    Tab    `json:"tab"`
	Status Banner `json:"status"`
}

// NewState returns the state before the first load.
func NewState() State {
	return State{
		Players:     []model.PlayerRecord{},
		Leaderboard: []model.LeaderboardEntry{},
		Tab:         TabDashboard,
		Status:      Banner{Status: StatusPending},
	}
}

// CanSubmit reports whether the create form may be submitted.
func (s *State) CanSubmit() bool {
	return s.Form.Complete() && !s.Creating
}

func (s *State) BeginRefresh() { s.Refreshing = true }

func (s *State) EndRefresh() { s.Refreshing = false }

// ApplyLoad replaces both collections with freshly read ones.
func (s *State) ApplyLoad(players []model.PlayerRecord, board []model.LeaderboardEntry) {
	s.Players = players
	s.Leaderboard = board
	s.Refreshing = false

	// Keep the detail view pointing at the reloaded record.
	if s.Selected != nil {
		if p, ok := s.FindPlayer(s.Selected.ID); ok {
			s.Selected = &p
		}
	}
}

func (s *State) OpenModal() { s.ShowCreateModal = true }

func (s *State) CloseModal() { s.ShowCreateModal = false }

func (s *State) UpdateForm(f Form) { s.Form = f }

func (s *State) ResetForm() { s.Form = Form{} }

// BeginCreate marks a submission in flight.
func (s *State) BeginCreate() {
	s.Creating = true
	s.ShowBanner(StatusPending, MsgCreating)
}

func (s *State) EndCreate() { s.Creating = false }

// FindPlayer looks a record up by id.
func (s *State) FindPlayer(id int) (model.PlayerRecord, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return model.PlayerRecord{}, false
}

// Select opens the detail view for a player. The decrypted cache belongs to
// the previous selection and is dropped.
func (s *State) Select(id int) error {
	p, ok := s.FindPlayer(id)
	if !ok {
		return ErrPlayerNotFound
	}
	s.Selected = &p
	s.Decrypted = DecryptedStats{}
	return nil
}

func (s *State) CloseSelection() {
	s.Selected = nil
	s.Decrypted = DecryptedStats{}
}

func (s *State) SetTab(t Tab) error {
	if !t.Valid() {
		return ErrUnknownTab
	}
	s.Tab = t
	return nil
}

// ShowBanner displays a new status and returns its sequence number.
func (s *State) ShowBanner(status TxStatus, msg string) uint64 {
	s.Status = Banner{Visible: true, Status: status, Message: msg, seq: s.Status.seq + 1}
	return s.Status.seq
}

// HideBanner clears the banner if seq is still the one on display.
func (s *State) HideBanner(seq uint64) bool {
	if s.Status.seq != seq {
		return false
	}
	s.Status = Banner{Status: StatusPending, seq: seq}
	return true
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	c := s
	c.Players = append([]model.PlayerRecord{}, s.Players...)
	c.Leaderboard = append([]model.LeaderboardEntry{}, s.Leaderboard...)
	if s.Selected != nil {
		sel := *s.Selected
		c.Selected = &sel
	}
	for _, f := range model.Fields {
		if v := s.Decrypted.Get(f); v != nil {
			c.Decrypted.Set(f, *v)
		}
	}
	return c
}

// View is a State with the derived values a renderer needs.
type View struct {
	State
	CanSubmit  bool                    `json:"canSubmit"`
	Stats      dashboard.Stats         `json:"stats"`
	TopPlayers []dashboard.RankedEntry `json:"topPlayers"`
}

// View derives the dashboard and leaderboard from s.
func (s State) View() View {
	return View{
		State:      s,
		CanSubmit:  s.CanSubmit(),
		Stats:      dashboard.Compute(s.Players),
		TopPlayers: dashboard.Leaderboard(s.Leaderboard),
	}
}
