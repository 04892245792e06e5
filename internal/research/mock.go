package research

import "fmt"

// sampleItems builds the deterministic data set a source serves when it has no
// credentials. The items are labeled as samples so generated content is never
// mistaken for live research.
func sampleItems(source, topic string, limit int) []Item {
	templates := map[string][]Item{
		SourceSocial: {
			{Title: fmt.Sprintf("How creators talk about %s right now", topic),
				Summary: fmt.Sprintf("Sample social post: a creator breaks down %s in a 30-second carousel.", topic),
				Views:   48200, Likes: 3900, Comments: 210, Shares: 540},
			{Title: fmt.Sprintf("The %s mistake everyone makes", topic),
				Summary: fmt.Sprintf("Sample social post: common misconception about %s, corrected with one example.", topic),
				Views:   31500, Likes: 2700, Comments: 180, Shares: 390},
			{Title: fmt.Sprintf("3 quick wins for %s", topic),
				Summary: fmt.Sprintf("Sample social post: three actionable tips on %s in under a minute.", topic),
				Views:   22800, Likes: 1900, Comments: 95, Shares: 260},
		},
		SourceNews: {
			{Title: fmt.Sprintf("New study changes how experts think about %s", topic),
				Summary: fmt.Sprintf("Sample article: recent findings on %s and what they mean in practice.", topic)},
			{Title: fmt.Sprintf("%s trends to watch this year", topic),
				Summary: fmt.Sprintf("Sample article: an overview of where %s is heading.", topic)},
			{Title: fmt.Sprintf("Why %s is suddenly everywhere", topic),
				Summary: fmt.Sprintf("Sample article: the forces behind the surge of interest in %s.", topic)},
		},
		SourceVideo: {
			{Title: fmt.Sprintf("%s explained in 10 minutes", topic),
				Summary: fmt.Sprintf("Sample video: a concise explainer covering the basics of %s.", topic),
				Views:   120000, Likes: 8400, Comments: 930},
			{Title: fmt.Sprintf("I tried %s for 30 days", topic),
				Summary: fmt.Sprintf("Sample video: a month-long experiment with %s and the results.", topic),
				Views:   86000, Likes: 6100, Comments: 720},
			{Title: fmt.Sprintf("Top 5 myths about %s", topic),
				Summary: fmt.Sprintf("Sample video: debunking the most repeated claims about %s.", topic),
				Views:   54000, Likes: 3800, Comments: 410},
		},
		SourceWebSearch: {
			{Title: fmt.Sprintf("The complete beginner's guide to %s", topic),
				Summary: fmt.Sprintf("Sample result: a long-form guide walking through %s from zero.", topic)},
			{Title: fmt.Sprintf("%s: frequently asked questions", topic),
				Summary: fmt.Sprintf("Sample result: answers to the questions people actually search about %s.", topic)},
			{Title: fmt.Sprintf("10 tools that make %s easier", topic),
				Summary: fmt.Sprintf("Sample result: a tool roundup for anyone working on %s.", topic)},
		},
		SourceForum: {
			{Title: fmt.Sprintf("What nobody tells you about %s", topic),
				Summary: fmt.Sprintf("Sample thread: community members share hard-won lessons on %s.", topic),
				Likes:   2100, Comments: 340},
			{Title: fmt.Sprintf("Is %s actually worth it? Honest answers", topic),
				Summary: fmt.Sprintf("Sample thread: a candid discussion weighing the value of %s.", topic),
				Likes:   1500, Comments: 510},
			{Title: fmt.Sprintf("My %s routine after two years", topic),
				Summary: fmt.Sprintf("Sample thread: one member's refined approach to %s.", topic),
				Likes:   980, Comments: 150},
		},
	}

	items := templates[source]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]Item, len(items))
	for i, it := range items {
		it.Source = source
		it.Summary = Truncate(it.Summary)
		out[i] = it
	}
	return out
}
