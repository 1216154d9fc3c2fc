package game

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"
)

// PickCategory selects the winning category from votes (player ID ->
// category). Only categories in unused are eligible. With no eligible votes
// every unused category is a candidate; otherwise every category sharing the
// highest count is. The winner is drawn uniformly from the candidates.
func PickCategory(votes map[string]string, unused []string, rng *rand.Rand) (string, error) {
	if len(unused) == 0 {
		return "", ErrCategoryExhausted
	}

	eligible := make(map[string]bool, len(unused))
	for _, c := range unused {
		eligible[c] = true
	}

	counts := make(map[string]int)
	for _, c := range votes {
		if eligible[c] {
			counts[c]++
		}
	}

	candidates := VoteLeaders(counts)
	if len(candidates) == 0 {
		candidates = unused
	}
	return candidates[rng.IntN(len(candidates))], nil
}

// VoteLeaders returns every category achieving the maximum count, sorted so
// that random selection over the result is reproducible for a seeded source.
func VoteLeaders(counts map[string]int) []string {
	best := 0
	var leaders []string
	for c, n := range counts {
		switch {
		case n > best:
			best = n
			leaders = []string{c}
		case n == best && n > 0:
			leaders = append(leaders, c)
		}
	}
	sort.Strings(leaders)
	return leaders
}

// ScoreAnswer returns the points for a correct answer given after elapsed.
// Nothing is awarded once elapsed exceeds window; otherwise the award decays
// by one point per whole second from maxPoints and never goes negative.
func ScoreAnswer(elapsed, window time.Duration, maxPoints int) int {
	if elapsed < 0 {
		elapsed = 0
	}
	secs := float64(elapsed.Milliseconds()) / 1000
	if secs > window.Seconds() {
		return 0
	}
	points := maxPoints - int(math.Floor(secs))
	if points < 0 {
		return 0
	}
	return points
}

// Distribution lists, for one answer option, who picked it
type Distribution struct {
	AnswerIndex int         `json:"answerIndex"`
	Players     []PlayerRef `json:"players"`
}

// buildDistribution groups answers (player ID -> option) by option index.
// Players are listed by name so the reveal is stable across calls.
func buildDistribution(answers map[string]int, players map[string]*Player, options int) []Distribution {
	dist := make([]Distribution, options)
	for i := range dist {
		dist[i] = Distribution{AnswerIndex: i, Players: []PlayerRef{}}
	}
	for playerID, idx := range answers {
		p, ok := players[playerID]
		if !ok || idx < 0 || idx >= options {
			continue
		}
		dist[idx].Players = append(dist[idx].Players, PlayerRef{ID: p.ID, Name: p.Name})
	}
	for i := range dist {
		sort.Slice(dist[i].Players, func(a, b int) bool {
			return dist[i].Players[a].Name < dist[i].Players[b].Name
		})
	}
	return dist
}
