package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Player represents a participant in a session
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`

	// ConnID is the transport connection currently bound to the player.
	// It changes on every reconnect and is never sent to clients.
	ConnID string `json:"-"`
}

// NewPlayer creates a connected player with a fresh identity
func NewPlayer(name, connID string) *Player {
	return &Player{
		ID:        uuid.NewString(),
		Name:      name,
		ConnID:    connID,
		Connected: true,
	}
}

// PlayerRef is the identity + display name pair used in reveal payloads
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// namePool is the finite set of display names handed out to players.
var namePool = []string{
	"🦄 Purple Unicorn",
	"🐸 Frog in a Hat",
	"🐢 Turbo Turtle",
	"🦊 Scheming Fox",
	"🐼 Panda on Holiday",
	"🦉 Philosopher Owl",
	"🐔 Warrior Hen",
	"🐷 Mister Pig",
	"🐍 Dapper Snake",
	"🦖 Dino from the Future",
}

// pickName returns a pool name not used by any current player, or a
// numbered fallback once the pool is exhausted.
func pickName(players map[string]*Player, rng *rand.Rand) string {
	used := make(map[string]bool, len(players))
	for _, p := range players {
		used[p.Name] = true
	}

	available := make([]string, 0, len(namePool))
	for _, name := range namePool {
		if !used[name] {
			available = append(available, name)
		}
	}

	if len(available) == 0 {
		for n := len(players) + 1; ; n++ {
			name := fmt.Sprintf("Player %d", n)
			if !used[name] {
				return name
			}
		}
	}
	return available[rng.IntN(len(available))]
}
