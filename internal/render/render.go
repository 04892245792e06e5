// Package render exports run artifacts as human-readable markdown and HTML
// digests.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/reelforge/internal/pipeline"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders a run artifact as a markdown digest.
func Markdown(artifact *pipeline.RunArtifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Content run %s\n\n", artifact.ID)
	fmt.Fprintf(&b, "**Persona:** %s  \n", artifact.PersonaID)
	fmt.Fprintf(&b, "**Niche:** %s  \n", artifact.Niche)
	fmt.Fprintf(&b, "**Date:** %s  \n", artifact.Date)
	fmt.Fprintf(&b, "**State:** %s\n\n", artifact.Metadata.State)

	if artifact.ResearchData.TotalItems() > 0 {
		b.WriteString("## Research\n\n")
		b.WriteString("| Source | Title | Engagement |\n|---|---|---|\n")
		for source, items := range artifact.ResearchData {
			for _, it := range items {
				engagement := "-"
				if it.Views > 0 || it.Likes > 0 {
					engagement = fmt.Sprintf("%d views / %d likes", it.Views, it.Likes)
				}
				fmt.Fprintf(&b, "| %s | %s | %s |\n", source, escapePipes(it.Title), engagement)
			}
		}
		b.WriteString("\n")
	}

	if len(artifact.ContentIdeas) > 0 {
		b.WriteString("## Ideas\n\n")
		for i, idea := range artifact.ContentIdeas {
			fmt.Fprintf(&b, "%d. **%s** (%s, predicted %s)\n", i+1, idea.Title, idea.Source, idea.EngagementPrediction)
			if idea.Concept != "" {
				fmt.Fprintf(&b, "   %s\n", idea.Concept)
			}
		}
		b.WriteString("\n")
	}

	for _, s := range artifact.Scripts {
		fmt.Fprintf(&b, "## Script: %s\n\n", s.Title)
		fmt.Fprintf(&b, "*%d words, ~%.0fs, status %s*\n\n", s.WordCount, s.EstimatedDuration, s.Status)
		fmt.Fprintf(&b, "%s\n\n", s.FullScript)
	}

	for _, v := range artifact.Visuals {
		fmt.Fprintf(&b, "## Visuals: %s\n\n", v.Title)
		fmt.Fprintf(&b, "- B-roll: %s\n", strings.Join(v.BRoll, "; "))
		fmt.Fprintf(&b, "- Music: %s\n", strings.Join(v.MusicSuggestions, "; "))
		fmt.Fprintf(&b, "- Palette: %s on %s, accent %s (%s)\n",
			v.ColorScheme.Text, v.ColorScheme.Background, v.ColorScheme.Accent, v.ColorScheme.Mood)
		for _, shot := range v.ShotList {
			fmt.Fprintf(&b, "- Shot %d (%.1fs, %s): %s\n", shot.Number, shot.Duration, shot.Type, shot.Description)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders a run artifact as a standalone HTML page.
func HTML(artifact *pipeline.RunArtifact) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(artifact)), &buf); err != nil {
		return "", fmt.Errorf("rendering artifact %s: %w", artifact.ID, err)
	}
	return fmt.Sprintf(htmlShell, artifact.ID, buf.String()), nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
</style>
</head>
<body>
%s
</body>
</html>
`
