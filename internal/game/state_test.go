package game

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCanSubmitProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("submit is enabled iff every input is non-empty", prop.ForAll(
		func(name, hp, atk, def string, creating bool) bool {
			s := NewState()
			s.UpdateForm(Form{PlayerName: name, HP: hp, ATK: atk, DEF: def})
			s.Creating = creating
			want := name != "" && hp != "" && atk != "" && def != "" && !creating
			return s.CanSubmit() == want
		},
		gen.OneGenOf(gen.Const(""), gen.AlphaString()),
		gen.OneGenOf(gen.Const(""), gen.NumString()),
		gen.OneGenOf(gen.Const(""), gen.NumString()),
		gen.OneGenOf(gen.Const(""), gen.NumString()),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBannerSequence(t *testing.T) {
	s := NewState()
	first := s.ShowBanner(StatusPending, MsgCreating)
	second := s.ShowBanner(StatusError, MsgLoadFailed)

	assert.False(t, s.HideBanner(first), "stale timer leaves the newer banner")
	assert.True(t, s.Status.Visible)

	assert.True(t, s.HideBanner(second))
	assert.False(t, s.Status.Visible)
}

func TestTabs(t *testing.T) {
	s := NewState()
	assert.Equal(t, TabDashboard, s.Tab)
	assert.NoError(t, s.SetTab(TabFAQ))
	assert.ErrorIs(t, s.SetTab("settings"), ErrUnknownTab)
	assert.Equal(t, TabFAQ, s.Tab)
}

func TestModalAndForm(t *testing.T) {
	s := NewState()
	s.OpenModal()
	s.UpdateForm(Form{PlayerName: "Ava"})
	assert.True(t, s.ShowCreateModal)

	s.CloseModal()
	s.ResetForm()
	assert.False(t, s.ShowCreateModal)
	assert.Equal(t, Form{}, s.Form)
}
