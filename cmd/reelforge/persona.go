package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reelforge/internal/persona"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage creator personas",
}

var (
	createNiche        string
	createAudience     string
	createTone         string
	createHashtags     []string
	createHookStyle    string
	createContentStyle string
	createCTAStyle     string
	createAvoid        []string
)

var personaCreateCmd = &cobra.Command{
	Use:   "create [persona-id]",
	Short: "Create a new persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		p := persona.Persona{
			PersonaID: args[0],
			BasicInfo: persona.BasicInfo{
				Niche:          createNiche,
				TargetAudience: createAudience,
				Tone:           createTone,
				Hashtags:       createHashtags,
			},
			StyleGuide: persona.StyleGuide{
				HookStyle:    createHookStyle,
				ContentStyle: createContentStyle,
				CTAStyle:     createCTAStyle,
				Avoid:        createAvoid,
			},
		}

		if err := persona.NewStore(backend, log).Create(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Printf("Created persona %s (%s)\n", p.PersonaID, p.BasicInfo.Niche)
		return nil
	},
}

func init() {
	personaCreateCmd.Flags().StringVar(&createNiche, "niche", "", "Content niche (required)")
	personaCreateCmd.Flags().StringVar(&createAudience, "audience", "", "Target audience")
	personaCreateCmd.Flags().StringVar(&createTone, "tone", "conversational", "Voice and tone")
	personaCreateCmd.Flags().StringSliceVar(&createHashtags, "hashtags", nil, "Default hashtags")
	personaCreateCmd.Flags().StringVar(&createHookStyle, "hook-style", "question", "How hooks open")
	personaCreateCmd.Flags().StringVar(&createContentStyle, "content-style", "actionable tips", "How the body is structured")
	personaCreateCmd.Flags().StringVar(&createCTAStyle, "cta-style", "follow for more", "How reels close")
	personaCreateCmd.Flags().StringSliceVar(&createAvoid, "avoid", nil, "Things this persona never does")
	personaCreateCmd.MarkFlagRequired("niche")
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		all, err := persona.NewStore(backend, log).List(cmd.Context())
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No personas yet. Create one with: reelforge persona create")
			return nil
		}

		for _, p := range all {
			fmt.Printf("%-20s %-30s %d reels\n", p.PersonaID, p.BasicInfo.Niche, len(p.ExistingReels))
		}
		return nil
	},
}

var personaShowCmd = &cobra.Command{
	Use:   "show [persona-id]",
	Short: "Show a persona's profile, history, and learned patterns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		p, err := persona.NewStore(backend, log).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Persona: %s\n", p.PersonaID)
		fmt.Printf("  Niche: %s\n", p.BasicInfo.Niche)
		fmt.Printf("  Audience: %s\n", p.BasicInfo.TargetAudience)
		fmt.Printf("  Tone: %s\n", p.BasicInfo.Tone)
		fmt.Printf("  Hook style: %s\n", p.StyleGuide.HookStyle)
		fmt.Printf("  Content style: %s\n", p.StyleGuide.ContentStyle)
		fmt.Printf("  CTA style: %s\n", p.StyleGuide.CTAStyle)

		fmt.Printf("\nReels: %d\n", len(p.ExistingReels))
		for _, r := range p.ExistingReels {
			fmt.Printf("  %s  %s (%s)  score %.3f\n",
				r.ID, r.Title, r.Date, persona.EngagementScore(r.Engagement))
		}

		lp := p.LearnedPatterns
		fmt.Println("\nLearned patterns:")
		fmt.Printf("  Avg script length: %.0f words\n", lp.AvgScriptLength)
		fmt.Printf("  Avg engagement rate: %.3f\n", lp.AvgEngagementRate)
		if len(lp.CommonTopics) > 0 {
			fmt.Printf("  Common topics: %s\n", strings.Join(lp.CommonTopics, ", "))
		}
		for _, h := range lp.BestPerformingHooks {
			fmt.Printf("  Hook: %s\n", h)
		}
		return nil
	},
}

var (
	reelTitle      string
	reelScript     string
	reelScriptFile string
	reelEngagement persona.Engagement
)

var personaAddReelCmd = &cobra.Command{
	Use:   "add-reel [persona-id]",
	Short: "Append a published reel to a persona's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		text := reelScript
		if reelScriptFile != "" {
			data, err := os.ReadFile(reelScriptFile)
			if err != nil {
				return fmt.Errorf("reading script file: %w", err)
			}
			text = string(data)
		}

		reel, err := persona.NewStore(backend, log).AppendReel(
			cmd.Context(), args[0], reelTitle, text, reelEngagement)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s to %s\n", reel.ID, args[0])
		return nil
	},
}

func init() {
	personaAddReelCmd.Flags().StringVar(&reelTitle, "title", "", "Reel title (required)")
	personaAddReelCmd.Flags().StringVar(&reelScript, "script", "", "Reel script text")
	personaAddReelCmd.Flags().StringVar(&reelScriptFile, "script-file", "", "Read the script from a file")
	personaAddReelCmd.Flags().IntVar(&reelEngagement.Views, "views", 0, "View count")
	personaAddReelCmd.Flags().IntVar(&reelEngagement.Likes, "likes", 0, "Like count")
	personaAddReelCmd.Flags().IntVar(&reelEngagement.Comments, "comments", 0, "Comment count")
	personaAddReelCmd.Flags().IntVar(&reelEngagement.Shares, "shares", 0, "Share count")
	personaAddReelCmd.Flags().IntVar(&reelEngagement.Saves, "saves", 0, "Save count")
	personaAddReelCmd.MarkFlagRequired("title")
}

var updateEngagement persona.Engagement

var personaEngagementCmd = &cobra.Command{
	Use:   "engagement [persona-id] [reel-id]",
	Short: "Update a reel's engagement numbers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		if err := persona.NewStore(backend, log).UpdateEngagement(
			cmd.Context(), args[0], args[1], updateEngagement); err != nil {
			return err
		}
		fmt.Printf("Updated %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	personaEngagementCmd.Flags().IntVar(&updateEngagement.Views, "views", 0, "View count")
	personaEngagementCmd.Flags().IntVar(&updateEngagement.Likes, "likes", 0, "Like count")
	personaEngagementCmd.Flags().IntVar(&updateEngagement.Comments, "comments", 0, "Comment count")
	personaEngagementCmd.Flags().IntVar(&updateEngagement.Shares, "shares", 0, "Share count")
	personaEngagementCmd.Flags().IntVar(&updateEngagement.Saves, "saves", 0, "Save count")
}

func init() {
	personaCmd.AddCommand(personaCreateCmd)
	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaAddReelCmd)
	personaCmd.AddCommand(personaEngagementCmd)
}
