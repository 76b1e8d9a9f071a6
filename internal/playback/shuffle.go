package playback

import (
	"math/rand/v2"

	"github.com/glebovdev/tunequeue/internal/track"
)

// buildShuffleOrder returns a uniformly random permutation of the queue ids,
// leaving out every entry whose id equals excludeID.
func buildShuffleOrder(r *rand.Rand, queue []track.Track, excludeID string) []string {
	order := make([]string, 0, len(queue))
	for _, t := range queue {
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		order = append(order, t.ID)
	}

	// Fisher-Yates.
	r.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func removeID(order []string, id string) []string {
	result := order[:0]
	for _, v := range order {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}

func insertAt[T any](s []T, i int, v T) []T {
	if i < 0 {
		i = 0
	}
	if i >= len(s) {
		return append(s, v)
	}
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
