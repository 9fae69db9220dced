package content

import (
	"fmt"

	"github.com/mcdev12/impostor/go/internal/models"
)

// SelectImpostors picks k distinct players uniformly at random without
// replacement and returns their ids. It requires 1 <= k < len(players).
func SelectImpostors(players []*models.Player, k int, rng Rand) ([]string, error) {
	if k < 1 || k >= len(players) {
		return nil, fmt.Errorf("impostor count %d out of range for %d players", k, len(players))
	}

	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}

	// partial Fisher-Yates: the first k slots end up a uniform k-subset
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:k], nil
}
