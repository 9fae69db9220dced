package room

import (
	"sort"

	"github.com/mcdev12/impostor/go/internal/models"
)

// OutcomeKind classifies the state of a voting round after a change.
type OutcomeKind int

const (
	// OutcomePending means some players have not voted yet.
	OutcomePending OutcomeKind = iota
	// OutcomeTie means several candidates share the top count and the round was reset.
	OutcomeTie
	// OutcomeEnded means the round produced a result and the game is over.
	OutcomeEnded
)

// VoteOutcome describes a voting round after a vote or a departure.
type VoteOutcome struct {
	Kind         OutcomeKind
	VotedCount   int
	TotalPlayers int

	// Set once every player has voted.
	Tally map[string]int
	// Candidates sharing the top count, for OutcomeTie.
	TiedIDs []string
	// Eliminated player, nil when nobody was tallied or the candidate is not seated.
	VotedOut      *models.Player
	ImpostorFound bool
}

// CastVote records voterID's single vote for this round. An empty target is an
// abstention: it counts toward completion but is not tallied.
func CastVote(r *models.Room, voterID, targetID string) (VoteOutcome, error) {
	if err := requireState(r, models.GameStateVoting); err != nil {
		return VoteOutcome{}, err
	}
	voter := r.PlayerByID(voterID)
	if voter == nil {
		return VoteOutcome{}, ErrPlayerNotFound
	}
	if voter.HasVoted {
		return VoteOutcome{}, ErrAlreadyVoted
	}

	voter.HasVoted = true
	voter.VotedFor = targetID
	return Resolve(r), nil
}

// Resolve runs the completion check. When every player has voted the votes are
// tallied: a unique maximum ends the game, a shared maximum resets the round.
func Resolve(r *models.Room) VoteOutcome {
	out := VoteOutcome{
		Kind:         OutcomePending,
		VotedCount:   r.VotedCount(),
		TotalPlayers: len(r.Players),
	}
	if r.GameState != models.GameStateVoting || out.VotedCount < out.TotalPlayers || out.TotalPlayers == 0 {
		return out
	}

	out.Tally = Tally(r)
	top := topCandidates(r, out.Tally)

	if len(top) > 1 {
		out.Kind = OutcomeTie
		out.TiedIDs = top
		resetVotes(r)
		return out
	}

	out.Kind = OutcomeEnded
	if len(top) == 1 {
		if p := r.PlayerByID(top[0]); p != nil {
			copied := *p
			out.VotedOut = &copied
			out.ImpostorFound = p.IsImpostor
		}
	}
	r.GameState = models.GameStateEnded
	r.TurnOrder = nil
	r.CurrentTurnIndex = 0
	stopClock(r)
	return out
}

// Tally counts non-empty votes per candidate.
func Tally(r *models.Room) map[string]int {
	counts := make(map[string]int)
	for _, p := range r.Players {
		if p.HasVoted && p.VotedFor != "" {
			counts[p.VotedFor]++
		}
	}
	return counts
}

// topCandidates returns the candidates with the highest count, seated players
// first in seat order, then any other ids sorted.
func topCandidates(r *models.Room, tally map[string]int) []string {
	best := 0
	for _, n := range tally {
		best = max(best, n)
	}
	if best == 0 {
		return nil
	}

	var top, strangers []string
	seated := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		seated[p.ID] = true
		if tally[p.ID] == best {
			top = append(top, p.ID)
		}
	}
	for id, n := range tally {
		if n == best && !seated[id] {
			strangers = append(strangers, id)
		}
	}
	sort.Strings(strangers)
	return append(top, strangers...)
}
