package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TobiSchelling/reelforge/internal/config"
	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/llm"
	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/pipeline"
	"github.com/TobiSchelling/reelforge/internal/render"
	"github.com/TobiSchelling/reelforge/internal/research"
	"github.com/TobiSchelling/reelforge/internal/script"
	"github.com/TobiSchelling/reelforge/internal/store"
	"github.com/TobiSchelling/reelforge/internal/visual"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	log        *zap.SugaredLogger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "reelforge",
	Short:   "Research-driven reel content pipeline",
	Long:    "Reelforge researches a niche across five source types, synthesizes reel ideas in a persona's voice, and composes scripts and visual plans into daily run artifacts.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real env vars win either way.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err = newLogger(cfg.Logging.Level, verbose)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(personaCmd)
}

func newLogger(level string, verbose bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("reelforge", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/reelforge/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sources, storage, and the model provider.")
		fmt.Println("API keys are read from the environment (or a .env file).")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, source, and storage status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		creds, err := config.LoadCredentials()
		if err != nil {
			return err
		}

		fmt.Printf("Storage: %s (%s)\n\n", cfg.Storage.Backend, cfg.GetDataDir())

		fmt.Println("Sources:")
		for _, src := range buildSources(creds, backend) {
			mode := "sample data"
			if src.IsConfigured() {
				mode = "live"
			}
			fmt.Printf("  %-10s %s\n", src.Name(), mode)
		}

		provider := buildProvider()
		fmt.Println("\nGeneration:")
		if provider == nil {
			fmt.Println("  no provider available (synthesis will produce empty output)")
		} else {
			fmt.Printf("  provider ready (%s)\n", cfg.Generation.Provider)
		}

		personas, err := persona.NewStore(backend, log).List(ctx)
		if err != nil {
			return err
		}
		artifacts, err := pipeline.ListArtifacts(ctx, backend, "")
		if err != nil {
			return err
		}
		fmt.Printf("\nPersonas: %d\n", len(personas))
		fmt.Printf("Run artifacts: %d\n", len(artifacts))
		return nil
	},
}

// --- run command ---

var (
	runPersonaID   string
	runIdeasCount  int
	skipResearch   bool
	runInsightsTag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: research -> ideas -> scripts -> visuals -> persist",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		o, err := buildOrchestrator(backend)
		if err != nil {
			return err
		}

		artifact, err := o.Run(cmd.Context(), runPersonaID, runIdeasCount, skipResearch || runInsightsTag)
		if err != nil {
			return err
		}

		fmt.Printf("Run complete: %s\n\n", artifact.ID)
		fmt.Printf("  Research items: %d\n", artifact.ResearchData.TotalItems())
		fmt.Printf("  Ideas: %d\n", len(artifact.ContentIdeas))
		fmt.Printf("  Scripts: %d\n", len(artifact.Scripts))
		fmt.Printf("  Visual plans: %d\n", len(artifact.Visuals))
		fmt.Printf("\nView it with: reelforge show %s\n", artifact.ID)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPersonaID, "persona", "p", "", "Persona to generate for (required)")
	runCmd.Flags().IntVarP(&runIdeasCount, "ideas", "n", 3, "Number of ideas to generate (1-20)")
	runCmd.Flags().BoolVar(&skipResearch, "skip-research", false, "Skip research and generate from the persona's learned patterns")
	runCmd.Flags().BoolVar(&runInsightsTag, "insights", false, "Alias for --skip-research")
	runCmd.MarkFlagRequired("persona")
}

// --- show command ---

var showHTMLPath string

var showCmd = &cobra.Command{
	Use:   "show [artifact-id]",
	Short: "List run artifacts, or print one as markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		if len(args) == 0 {
			artifacts, err := pipeline.ListArtifacts(ctx, backend, "")
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				fmt.Println("No run artifacts yet. Start with: reelforge run --persona <id>")
				return nil
			}
			for _, a := range artifacts {
				fmt.Printf("%s  %d ideas, %d scripts\n", a.ID, len(a.ContentIdeas), len(a.Scripts))
			}
			return nil
		}

		artifact, err := pipeline.LoadArtifact(ctx, backend, args[0])
		if err != nil {
			return err
		}

		if showHTMLPath != "" {
			html, err := render.HTML(artifact)
			if err != nil {
				return err
			}
			if err := os.WriteFile(showHTMLPath, []byte(html), 0o644); err != nil {
				return fmt.Errorf("writing HTML: %w", err)
			}
			fmt.Printf("Wrote %s\n", showHTMLPath)
			return nil
		}

		fmt.Print(render.Markdown(artifact))
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showHTMLPath, "html", "", "Write the artifact as an HTML page to this path")
}

// --- schedule command ---

var scheduleIdeasCount int

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured cron schedule for every persona",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeBackend, err := openBackend()
		if err != nil {
			return err
		}
		defer closeBackend()

		o, err := buildOrchestrator(backend)
		if err != nil {
			return err
		}
		personas := persona.NewStore(backend, log)

		loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			return fmt.Errorf("loading timezone %q: %w", cfg.Scheduler.Timezone, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := cron.New(cron.WithLocation(loc))
		_, err = c.AddFunc(cfg.Scheduler.Cron, func() {
			all, err := personas.List(ctx)
			if err != nil {
				log.Errorw("scheduled run could not list personas", "error", err)
				return
			}
			for _, p := range all {
				if _, err := o.Run(ctx, p.PersonaID, scheduleIdeasCount, false); err != nil {
					log.Errorw("scheduled run failed", "persona", p.PersonaID, "error", err)
				}
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", cfg.Scheduler.Cron, err)
		}

		fmt.Printf("Scheduling runs: %s (%s)\n", cfg.Scheduler.Cron, cfg.Scheduler.Timezone)
		fmt.Println("Press Ctrl+C to stop")
		c.Start()
		<-ctx.Done()
		cronCtx := c.Stop()
		<-cronCtx.Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().IntVarP(&scheduleIdeasCount, "ideas", "n", 3, "Number of ideas per scheduled run")
}

// --- wiring helpers ---

func openBackend() (store.Store, func(), error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	if cfg.Storage.Backend == "sqlite" {
		s, err := store.OpenSQLite(filepath.Join(dataDir, "reelforge.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}

	s, err := store.NewFileStore(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

func buildSources(creds *config.Credentials, backend store.Store) []research.Source {
	timeout := time.Duration(cfg.Research.TimeoutSecs) * time.Second
	var sources []research.Source

	if cfg.Sources.Social.Enabled {
		sources = append(sources, research.NewSocialSource(creds.InstagramToken, creds.InstagramAccountID, timeout))
	}
	if cfg.Sources.News.Enabled {
		var feedURLs []string
		for _, f := range cfg.Sources.Feeds {
			feedURLs = append(feedURLs, f.URL)
		}
		sources = append(sources, research.NewNewsSource(creds.NewsAPIKey, feedURLs, timeout, log))
	}
	if cfg.Sources.Video.Enabled {
		sources = append(sources, research.NewVideoSource(creds.YouTubeAPIKey, timeout))
	}
	if cfg.Sources.WebSearch.Enabled {
		sources = append(sources, research.NewWebSearchSource(creds.SerperAPIKey, cfg.Research.EnrichWebPages, timeout, log))
	}
	if cfg.Sources.Forum.Enabled {
		sources = append(sources, research.NewForumSource(cfg.Sources.Forum.Subreddits, timeout))
	}

	cached := make([]research.Source, 0, len(sources))
	for _, src := range sources {
		cached = append(cached, research.NewCache(src, backend, cfg.Research.StaleMaxCycles, log))
	}
	return cached
}

func buildProvider() llm.Provider {
	return llm.CreateProvider(
		log,
		cfg.Generation.Provider,
		cfg.Generation.Model,
		cfg.Generation.OllamaURL,
		cfg.Generation.OpenAIModel,
		cfg.Generation.APIKeyEnv,
		time.Duration(cfg.Generation.TimeoutSecs)*time.Second,
	)
}

func buildOrchestrator(backend store.Store) (*pipeline.Orchestrator, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	provider := buildProvider()
	gen := cfg.Generation

	return pipeline.New(
		persona.NewStore(backend, log),
		research.NewAggregator(buildSources(creds, backend), log),
		ideas.NewSynthesizer(provider, gen.MaxRetries, log),
		script.NewComposer(provider, gen.MaxRetries, gen.Concurrency, log),
		visual.NewPlanner(provider, gen.MaxRetries, gen.Concurrency, log),
		backend,
		cfg.Research.ItemsPerSource,
		log,
	), nil
}
