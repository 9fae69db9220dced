package room

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/impostor/go/internal/content"
	"github.com/mcdev12/impostor/go/internal/models"
)

type fixedDeck struct{ entry content.Entry }

func (d fixedDeck) Pick(string, content.Rand) content.Entry { return d.entry }

var testDeck = fixedDeck{entry: content.Entry{Word: "Pizza", Hint: "Slice"}}

func testRand() content.Rand { return rand.New(rand.NewPCG(1, 2)) }

// lobby returns room ABCD with A (admin), B and C seated as a, b and c.
func lobby(t *testing.T) *models.Room {
	t.Helper()
	r, err := NewRoom("abcd", "a", "A", time.Unix(0, 0))
	require.NoError(t, err)
	_, err = Join(r, "b", "B")
	require.NoError(t, err)
	_, err = Join(r, "c", "C")
	require.NoError(t, err)
	return r
}

func started(t *testing.T) *models.Room {
	t.Helper()
	r := lobby(t)
	require.NoError(t, Start(r, "a", testDeck, testRand()))
	return r
}

func voting(t *testing.T) *models.Room {
	t.Helper()
	r := started(t)
	require.NoError(t, StartVoting(r, "a"))
	return r
}

func assertAdminInvariant(t *testing.T, r *models.Room) {
	t.Helper()
	if len(r.Players) == 0 {
		return
	}
	admins := 0
	for _, p := range r.Players {
		if p.IsAdmin {
			admins++
			assert.Equal(t, r.AdminID, p.ID)
		}
	}
	assert.Equal(t, 1, admins)
}

func TestNewRoom(t *testing.T) {
	r, err := NewRoom("  abcd ", "a", " Alice ", time.Unix(10, 0))
	require.NoError(t, err)

	assert.Equal(t, "ABCD", r.Code)
	assert.Equal(t, models.GameStateWaiting, r.GameState)
	assert.Equal(t, models.DefaultSettings(), r.Settings)
	require.Len(t, r.Players, 1)
	assert.Equal(t, "Alice", r.Players[0].Name)
	assertAdminInvariant(t, r)

	_, err = NewRoom("ABCD", "a", "   ", time.Now())
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestJoin(t *testing.T) {
	r := lobby(t)
	assert.Len(t, r.Players, 3)
	assertAdminInvariant(t, r)

	_, err := Join(r, "d", "B")
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.ErrorIs(t, err, ErrConflict)

	// names are case-sensitive
	_, err = Join(r, "d", "b")
	assert.NoError(t, err)

	s := started(t)
	_, err = Join(s, "e", "E")
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestJoin_SeatedConnectionRejected(t *testing.T) {
	r := lobby(t)

	_, err := Join(r, "c", "C2")
	assert.ErrorIs(t, err, ErrAlreadySeated)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, r.Players, 3)
	assert.Nil(t, r.PlayerByName("C2"))
}

func TestUpdateSettings(t *testing.T) {
	r := lobby(t)
	count, category, hint, secs := 2, "Animals", true, 90

	err := UpdateSettings(r, "b", SettingsUpdate{ImpostorCount: &count})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, r.Settings.ImpostorCount)

	require.NoError(t, UpdateSettings(r, "a", SettingsUpdate{
		ImpostorCount:        &count,
		Category:             &category,
		ImpostorCanSeeHint:   &hint,
		RoundDurationSeconds: &secs,
	}))
	assert.Equal(t, models.Settings{ImpostorCount: 2, Category: "animals", ImpostorCanSeeHint: true, RoundDurationSeconds: 90}, r.Settings)

	// absent category and hint flag fall back to their defaults
	require.NoError(t, UpdateSettings(r, "a", SettingsUpdate{}))
	assert.Equal(t, models.CategoryAll, r.Settings.Category)
	assert.False(t, r.Settings.ImpostorCanSeeHint)
	assert.Equal(t, 2, r.Settings.ImpostorCount)

	zero := 0
	require.NoError(t, UpdateSettings(r, "a", SettingsUpdate{ImpostorCount: &zero}))
	assert.Equal(t, 1, r.Settings.ImpostorCount)
}

func TestStart(t *testing.T) {
	r := lobby(t)
	require.NoError(t, Start(r, "a", testDeck, testRand()))

	assert.Equal(t, models.GameStateStarted, r.GameState)
	assert.Equal(t, "Pizza", r.CurrentWord)
	assert.Equal(t, "Slice", r.CurrentHint)
	assert.Len(t, r.Impostors(), 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, r.TurnOrder)
	assert.Nil(t, r.TimeRemaining)
	assertAdminInvariant(t, r)
}

func TestStart_ImpostorCount(t *testing.T) {
	for k := 1; k < 6; k++ {
		r := lobby(t)
		for _, n := range []string{"D", "E", "F"} {
			_, err := Join(r, n, n)
			require.NoError(t, err)
		}
		r.Settings.ImpostorCount = k
		require.NoError(t, Start(r, "a", testDeck, testRand()))
		assert.Len(t, r.Impostors(), k)
	}
}

func TestStart_Rejections(t *testing.T) {
	r, err := NewRoom("ABCD", "a", "A", time.Now())
	require.NoError(t, err)
	_, err = Join(r, "b", "B")
	require.NoError(t, err)

	err = Start(r, "a", testDeck, testRand())
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, models.GameStateWaiting, r.GameState)

	r = lobby(t)
	assert.ErrorIs(t, Start(r, "b", testDeck, testRand()), ErrUnauthorized)

	r.Settings.ImpostorCount = 3
	assert.ErrorIs(t, Start(r, "a", testDeck, testRand()), ErrTooManyImpostors)
	assert.Empty(t, r.Impostors())
	assert.Empty(t, r.CurrentWord)

	s := started(t)
	assert.ErrorIs(t, Start(s, "a", testDeck, testRand()), ErrInvalidTransition)
}

func TestStart_Countdown(t *testing.T) {
	r := lobby(t)
	r.Settings.RoundDurationSeconds = 2
	require.NoError(t, Start(r, "a", testDeck, testRand()))
	require.NotNil(t, r.TimeRemaining)
	assert.Equal(t, 2, *r.TimeRemaining)

	res, err := Tick(r)
	require.NoError(t, err)
	assert.Equal(t, TickResult{Remaining: 1}, res)

	paused, err := TogglePause(r, "a")
	require.NoError(t, err)
	assert.True(t, paused)
	_, err = Tick(r)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	paused, err = TogglePause(r, "a")
	require.NoError(t, err)
	assert.False(t, paused)

	res, err = Tick(r)
	require.NoError(t, err)
	assert.True(t, res.Expired)
	assert.Equal(t, models.GameStateVoting, r.GameState)
	assert.Nil(t, r.TimeRemaining)

	// a late tick after the forced transition is rejected
	_, err = Tick(r)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNextTurn(t *testing.T) {
	r := started(t)
	first := append([]string(nil), r.TurnOrder...)

	ok, err := NextTurn(r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, append(first[1:], first[0]), r.TurnOrder)
	assert.Equal(t, first[1], CurrentPlayer(r).ID)

	r.TurnOrder = nil
	ok, err = NextTurn(r)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NextTurn(lobby(t))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStartVoting(t *testing.T) {
	r := started(t)
	assert.ErrorIs(t, StartVoting(r, "b"), ErrUnauthorized)
	require.NoError(t, StartVoting(r, "a"))
	assert.Equal(t, models.GameStateVoting, r.GameState)
	for _, p := range r.Players {
		assert.False(t, p.HasVoted)
		assert.Empty(t, p.VotedFor)
	}

	assert.ErrorIs(t, StartVoting(lobby(t), "a"), ErrInvalidTransition)
}

func TestCastVote_Elimination(t *testing.T) {
	r := voting(t)
	for _, p := range r.Players {
		p.IsImpostor = p.ID == "b"
	}

	out, err := CastVote(r, "b", "c")
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, out.Kind)
	assert.Equal(t, 1, out.VotedCount)
	assert.Equal(t, 3, out.TotalPlayers)

	_, err = CastVote(r, "c", "b")
	require.NoError(t, err)
	out, err = CastVote(r, "a", "b")
	require.NoError(t, err)

	assert.Equal(t, OutcomeEnded, out.Kind)
	assert.Equal(t, map[string]int{"b": 2, "c": 1}, out.Tally)
	require.NotNil(t, out.VotedOut)
	assert.Equal(t, "B", out.VotedOut.Name)
	assert.True(t, out.ImpostorFound)
	assert.Equal(t, models.GameStateEnded, r.GameState)
	assert.Empty(t, r.TurnOrder)
}

func TestCastVote_OncePerRound(t *testing.T) {
	r := voting(t)

	_, err := CastVote(r, "a", "b")
	require.NoError(t, err)
	_, err = CastVote(r, "a", "c")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, map[string]int{"b": 1}, Tally(r))

	_, err = CastVote(r, "zz", "b")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = CastVote(started(t), "a", "b")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCastVote_Tie(t *testing.T) {
	r := voting(t)

	_, err := CastVote(r, "a", "b")
	require.NoError(t, err)
	_, err = CastVote(r, "b", "c")
	require.NoError(t, err)
	out, err := CastVote(r, "c", "a")
	require.NoError(t, err)

	assert.Equal(t, OutcomeTie, out.Kind)
	assert.Equal(t, []string{"a", "b", "c"}, out.TiedIDs)
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, out.Tally)
	assert.Equal(t, models.GameStateVoting, r.GameState)
	for _, p := range r.Players {
		assert.False(t, p.HasVoted)
		assert.Empty(t, p.VotedFor)
	}

	// a fresh round is accepted after the reset
	_, err = CastVote(r, "a", "b")
	assert.NoError(t, err)
}

func TestCastVote_AllAbstain(t *testing.T) {
	r := voting(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := CastVote(r, id, "")
		require.NoError(t, err)
	}
	assert.Equal(t, models.GameStateEnded, r.GameState)

	out := Resolve(r)
	assert.Equal(t, OutcomePending, out.Kind)
}

func TestCastVote_UnseatedCandidate(t *testing.T) {
	r := voting(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := CastVote(r, id, "ghost")
		require.NoError(t, err)
	}
	assert.Equal(t, models.GameStateEnded, r.GameState)
}

func TestRestart(t *testing.T) {
	r := voting(t)
	for _, id := range []string{"b", "c", "a"} {
		_, err := CastVote(r, id, "b")
		require.NoError(t, err)
	}
	require.Equal(t, models.GameStateEnded, r.GameState)

	assert.ErrorIs(t, Restart(r, "b"), ErrUnauthorized)
	require.NoError(t, Restart(r, "a"))

	assert.Equal(t, models.GameStateWaiting, r.GameState)
	assert.Empty(t, r.CurrentWord)
	assert.Empty(t, r.CurrentHint)
	assert.Empty(t, r.TurnOrder)
	assert.Nil(t, r.TimeRemaining)
	assert.Len(t, r.Players, 3)
	assert.Equal(t, "a", r.AdminID)
	for _, p := range r.Players {
		assert.False(t, p.IsImpostor)
		assert.False(t, p.HasVoted)
		assert.Empty(t, p.VotedFor)
		assert.True(t, p.IsAlive)
	}
}

func TestLeave(t *testing.T) {
	r := started(t)

	res, err := Leave(r, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", res.Player.Name)
	require.NotNil(t, res.NewAdmin)
	assert.Equal(t, "b", res.NewAdmin.ID)
	assert.NotContains(t, r.TurnOrder, "a")
	assertAdminInvariant(t, r)

	_, err = Leave(r, "a")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = Leave(r, "b")
	require.NoError(t, err)
	res, err = Leave(r, "c")
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Empty(t, r.Players)
}

func TestLeave_CompletesVoting(t *testing.T) {
	r := voting(t)
	_, err := CastVote(r, "a", "b")
	require.NoError(t, err)
	_, err = CastVote(r, "b", "a")
	require.NoError(t, err)

	// c leaves without voting; a and b tie
	res, err := Leave(r, "c")
	require.NoError(t, err)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, OutcomeTie, res.Outcome.Kind)
	assert.Equal(t, models.GameStateVoting, r.GameState)
}

func TestRebind(t *testing.T) {
	r := voting(t)
	_, err := CastVote(r, "b", "a")
	require.NoError(t, err)
	position := indexOf(r.TurnOrder, "a")
	before := *r.PlayerByID("a")

	p, oldID, err := Rebind(r, "A", "a2")
	require.NoError(t, err)
	assert.Equal(t, "a", oldID)
	assert.Equal(t, "a2", p.ID)
	assert.Equal(t, "a2", r.AdminID)
	assert.Equal(t, position, indexOf(r.TurnOrder, "a2"))
	assert.Equal(t, "a2", r.PlayerByName("B").VotedFor)
	assert.Equal(t, before.IsImpostor, p.IsImpostor)
	assert.Equal(t, before.IsAlive, p.IsAlive)
	assertAdminInvariant(t, r)

	_, _, err = Rebind(r, "Zed", "z")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRebind_ConnectionSeatedElsewhereRejected(t *testing.T) {
	r := started(t)

	_, _, err := Rebind(r, "A", "b")
	assert.ErrorIs(t, err, ErrAlreadySeated)
	assert.Equal(t, "a", r.AdminID)
	assert.Equal(t, "a", r.PlayerByName("A").ID)
	assert.Equal(t, "b", r.PlayerByName("B").ID)
	assertAdminInvariant(t, r)

	// rebinding a seat onto its own connection is a no-op
	p, oldID, err := Rebind(r, "B", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", oldID)
	assert.Equal(t, "B", p.Name)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.GameStateVoting, models.GameStateVoting))
	assert.True(t, CanTransition(models.GameStateEnded, models.GameStateWaiting))
	assert.False(t, CanTransition(models.GameStateWaiting, models.GameStateVoting))
	assert.False(t, CanTransition(models.GameStateEnded, models.GameStateStarted))
}

func TestSanitize(t *testing.T) {
	r := lobby(t)
	r.AdminID = "gone"
	Sanitize(r)
	assert.Equal(t, "a", r.AdminID)
	assertAdminInvariant(t, r)
}

func TestPublic(t *testing.T) {
	assert.True(t, Public(ErrNameTaken))
	assert.False(t, Public(assert.AnError))
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
