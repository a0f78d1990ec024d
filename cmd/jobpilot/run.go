package main

import (
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/dedup"
	"go-jobpilot-automation/internal/engine"
	"go-jobpilot-automation/internal/filter"
	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/reporter"
	"go-jobpilot-automation/internal/resume"
	"go-jobpilot-automation/internal/scheduler"
	"go-jobpilot-automation/internal/source"
	srcglassdoor "go-jobpilot-automation/internal/source/glassdoor"
	srcindeed "go-jobpilot-automation/internal/source/indeed"
	"go-jobpilot-automation/internal/store"
	"go-jobpilot-automation/internal/submit"
	subglassdoor "go-jobpilot-automation/internal/submit/glassdoor"
	subindeed "go-jobpilot-automation/internal/submit/indeed"

	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one full application cycle",
	Long:  "Fetches postings from the configured job boards, filters and deduplicates them, then submits applications subject to the daily quota, pacing and retry policy.",
	RunE:  runCycle,
}

var (
	runConfigPath string
	runDryRun     bool
	runNoApply    bool
	runMaxApply   int
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "config.yaml", "Path to YAML config file")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Log what would happen without persisting or submitting anything")
	runCommand.Flags().BoolVar(&runNoApply, "no-apply", false, "Record eligible postings without submitting (overrides auto_apply)")
	runCommand.Flags().IntVar(&runMaxApply, "max-apply", 0, "Cap submissions for this run (0 = daily quota only)")

	rootCmd.AddCommand(runCommand)
}

func runCycle(cmd *cobra.Command, _ []string) error {
	//Ctrl-C cancels the run; in-flight state is settled before exit
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	log.Printf("🔧 Config loaded. Keywords: %v, sources: %v", cfg.Keywords, cfg.JobSources)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	mgr, err := browser.NewManager()
	if err != nil {
		return err
	}
	defer mgr.Close()
	log.Println("✅ Browser initialized successfully!")

	var providers []source.Provider
	for _, src := range cfg.JobSources {
		switch src {
		case "indeed":
			providers = append(providers, srcindeed.New(cfg, mgr))
		case "glassdoor":
			providers = append(providers, srcglassdoor.New(cfg, mgr))
		default:
			log.Printf("⚠️ No source adapter for %q yet, skipping", src)
		}
	}

	router := submit.NewRouter()
	router.Register(models.SourceIndeed, subindeed.NewApplicator(mgr))
	router.Register(models.SourceGlassdoor, subglassdoor.NewApplicator(mgr))

	var renderer resume.Renderer = resume.Static{Path: cfg.BaseResumePath}
	if cfg.ResumeTemplatePath != "" {
		renderer = resume.NewTailored(cfg.ResumeTemplatePath, cfg.ResumeOutputDir, mgr)
	}

	var (
		notifier engine.Notifier
		tg       *reporter.TelegramReporter
	)
	if cfg.TelegramToken != "" {
		tg, err = reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return err
		}
		notifier = tg
		log.Println("🤖 Telegram Bot initialized.")
	}

	matcher := filter.NewMatcher(filter.Strictness(cfg.DuplicateStrictness))
	sched := scheduler.New(st, router, scheduler.Options{
		AutoApply:  cfg.AutoApply && !runNoApply,
		DryRun:     runDryRun,
		DailyLimit: cfg.MaxApplicationsPerDay,
		RunCap:     runMaxApply,
		Delay:      time.Duration(cfg.DelayBetweenApplications) * time.Second,
		MaxRetries: cfg.MaxRetries,
	})

	e := engine.New(engine.Params{
		Config:    cfg,
		Providers: providers,
		Pipeline:  filter.NewPipeline(cfg),
		Dedup:     dedup.NewDeduplicator(st, matcher),
		Scheduler: sched,
		Renderer:  renderer,
		Notifier:  notifier,
		DryRun:    runDryRun,
	})

	log.Println("🚀 Starting JobPilot run...")
	if _, err := e.Run(ctx); err != nil {
		if tg != nil {
			if serr := tg.SendError(err); serr != nil {
				log.Printf("⚠️ Failed to report error to Telegram: %v", serr)
			}
		}
		return err
	}
	log.Println("🏁 Execution finished.")
	return nil
}
