package persona

import (
	"sort"
	"strings"
)

const (
	topHooks  = 5
	topTopics = 10
)

// EngagementScore ranks a reel by weighted, view-normalized response. Shares
// and saves count triple, comments double. Zero views normalize to 1 so the
// score is always defined.
func EngagementScore(e Engagement) float64 {
	views := e.Views
	if views < 1 {
		views = 1
	}
	weighted := float64(e.Likes + 2*e.Comments + 3*e.Shares + 3*e.Saves)
	return weighted / float64(views)
}

// Recompute derives LearnedPatterns from a reel history. The result is a pure
// function of the input; callers replace the stored patterns wholesale.
func Recompute(reels []Reel) LearnedPatterns {
	if len(reels) == 0 {
		return LearnedPatterns{}
	}

	var totalWords int
	for _, r := range reels {
		totalWords += len(strings.Fields(r.Script))
	}

	var rateSum float64
	var rated int
	for _, r := range reels {
		if r.Engagement.Views > 0 {
			rateSum += EngagementScore(r.Engagement)
			rated++
		}
	}
	var avgRate float64
	if rated > 0 {
		avgRate = rateSum / float64(rated)
	}

	return LearnedPatterns{
		AvgScriptLength:     float64(totalWords) / float64(len(reels)),
		CommonTopics:        commonTopics(reels),
		BestPerformingHooks: bestHooks(reels),
		AvgEngagementRate:   avgRate,
	}
}

// bestHooks returns the opening lines of the top reels by engagement score.
func bestHooks(reels []Reel) []string {
	ranked := make([]Reel, len(reels))
	copy(ranked, reels)
	sort.SliceStable(ranked, func(i, j int) bool {
		return EngagementScore(ranked[i].Engagement) > EngagementScore(ranked[j].Engagement)
	})

	n := topHooks
	if len(ranked) < n {
		n = len(ranked)
	}
	hooks := make([]string, 0, n)
	for _, r := range ranked[:n] {
		if h := firstSentence(r.Script); h != "" {
			hooks = append(hooks, h)
		}
	}
	return hooks
}

// firstSentence cuts text at the first terminal period, falling back to the
// first 100 characters when none exists.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "."); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	if len(text) > 100 {
		return text[:100]
	}
	return text
}

// commonTopics returns the most frequent case-folded words longer than three
// characters across all reel titles. Ties break alphabetically so the result
// is deterministic.
func commonTopics(reels []Reel) []string {
	counts := make(map[string]int)
	for _, r := range reels {
		for _, w := range strings.Fields(strings.ToLower(r.Title)) {
			w = strings.Trim(w, ".,!?:;\"'()")
			if len(w) > 3 {
				counts[w]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topTopics {
		words = words[:topTopics]
	}
	return words
}
