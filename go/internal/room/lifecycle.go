package room

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mcdev12/impostor/go/internal/content"
	"github.com/mcdev12/impostor/go/internal/models"
)

// Deck supplies the secret word for a round.
type Deck interface {
	Pick(category string, rng content.Rand) content.Entry
}

// NormalizeCode upper-cases and trims a room code typed by a player.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName trims a display name and checks its length.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// NewRoom builds a waiting room whose only player is its admin.
func NewRoom(code, creatorID, creatorName string, now time.Time) (*models.Room, error) {
	name, err := NormalizeName(creatorName)
	if err != nil {
		return nil, err
	}
	return &models.Room{
		Code: NormalizeCode(code),
		Players: []*models.Player{{
			ID:      creatorID,
			Name:    name,
			IsAdmin: true,
			IsAlive: true,
		}},
		AdminID:   creatorID,
		Settings:  models.DefaultSettings(),
		GameState: models.GameStateWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Join seats a new non-admin player. Names are unique per room, case-sensitive.
func Join(r *models.Room, playerID, playerName string) (*models.Player, error) {
	if r.GameState != models.GameStateWaiting {
		return nil, ErrGameAlreadyStarted
	}
	name, err := NormalizeName(playerName)
	if err != nil {
		return nil, err
	}
	if r.PlayerByName(name) != nil {
		return nil, ErrNameTaken
	}
	if r.PlayerByID(playerID) != nil {
		return nil, ErrAlreadySeated
	}

	p := &models.Player{ID: playerID, Name: name, IsAlive: true}
	r.Players = append(r.Players, p)
	return p, nil
}

// SettingsUpdate is a partial settings change. Category and ImpostorCanSeeHint
// fall back to their defaults when absent; absent counts keep their value.
type SettingsUpdate struct {
	ImpostorCount        *int    `json:"impostorCount"`
	Category             *string `json:"category"`
	ImpostorCanSeeHint   *bool   `json:"impostorCanSeeHint"`
	RoundDurationSeconds *int    `json:"roundDurationSeconds"`
}

// UpdateSettings applies u on behalf of the admin.
func UpdateSettings(r *models.Room, requesterID string, u SettingsUpdate) error {
	if err := requireAdmin(r, requesterID); err != nil {
		return err
	}

	s := r.Settings
	if u.ImpostorCount != nil {
		s.ImpostorCount = max(1, *u.ImpostorCount)
	}
	s.Category = models.CategoryAll
	if u.Category != nil && strings.TrimSpace(*u.Category) != "" {
		s.Category = strings.ToLower(strings.TrimSpace(*u.Category))
	}
	s.ImpostorCanSeeHint = u.ImpostorCanSeeHint != nil && *u.ImpostorCanSeeHint
	if u.RoundDurationSeconds != nil {
		s.RoundDurationSeconds = min(max(0, *u.RoundDurationSeconds), MaxRoundDurationSeconds)
	}

	r.Settings = s
	return nil
}

// Start deals roles and the secret word and opens the discussion phase.
// Every field is validated before any is written.
func Start(r *models.Room, requesterID string, deck Deck, rng content.Rand) error {
	if err := requireAdmin(r, requesterID); err != nil {
		return err
	}
	if err := requireState(r, models.GameStateWaiting); err != nil {
		return err
	}
	if len(r.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	if r.Settings.ImpostorCount >= len(r.Players) {
		return ErrTooManyImpostors
	}

	impostorIDs, err := content.SelectImpostors(r.Players, max(1, r.Settings.ImpostorCount), rng)
	if err != nil {
		return ErrTooManyImpostors
	}
	entry := deck.Pick(r.Settings.Category, rng)

	impostors := make(map[string]bool, len(impostorIDs))
	for _, id := range impostorIDs {
		impostors[id] = true
	}

	order := make([]string, len(r.Players))
	for i, p := range r.Players {
		p.IsImpostor = impostors[p.ID]
		p.IsAlive = true
		p.HasVoted = false
		p.VotedFor = ""
		order[i] = p.ID
	}
	content.Shuffle(order, rng)

	r.GameState = models.GameStateStarted
	r.CurrentWord = entry.Word
	r.CurrentHint = entry.Hint
	r.TurnOrder = order
	r.CurrentTurnIndex = 0
	r.IsPaused = false
	r.TimeRemaining = nil
	if d := r.Settings.RoundDurationSeconds; d > 0 {
		r.TimeRemaining = &d
	}
	return nil
}

// Restart returns the room to the lobby with the same seats and admin.
func Restart(r *models.Room, requesterID string) error {
	if err := requireAdmin(r, requesterID); err != nil {
		return err
	}
	if err := moveTo(r, models.GameStateWaiting); err != nil {
		return err
	}

	r.CurrentWord = ""
	r.CurrentHint = ""
	r.TurnOrder = nil
	r.CurrentTurnIndex = 0
	stopClock(r)
	for _, p := range r.Players {
		p.IsImpostor = false
		p.HasVoted = false
		p.VotedFor = ""
		p.IsAlive = true
	}
	return nil
}
