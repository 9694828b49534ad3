package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/rosterbot/internal/calendar"
	"github.com/hamed0406/rosterbot/internal/config"
	"github.com/hamed0406/rosterbot/internal/gateway"
	"github.com/hamed0406/rosterbot/internal/httpapi"
	"github.com/hamed0406/rosterbot/internal/identity"
	"github.com/hamed0406/rosterbot/internal/logging"
	"github.com/hamed0406/rosterbot/internal/repo/redisdb"
	"github.com/hamed0406/rosterbot/internal/tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		testMode bool
		silent   bool
		token    string
	)
	cmd := &cobra.Command{
		Use:           "rosterbot",
		Short:         "announces calendar shifts in Slack and escalates unacknowledged ones",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token != "" {
				os.Setenv("SLACK_API_TOKEN", token)
			}
			cfg, err := config.Load(testMode)
			if err != nil {
				return err
			}
			cfg.Silent = silent
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVarP(&testMode, "test", "t", false, "whether to run in test mode")
	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "whether to skip sending messages (for testing)")
	cmd.Flags().StringVarP(&token, "token", "x", "", "the API token to use (overrides SLACK_API_TOKEN)")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.TestMode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mode := "PROD"
	if cfg.TestMode {
		mode = "TEST"
	}
	logger.Info("rosterbot_starting",
		zap.String("mode", mode),
		zap.Int("nouser_warning_min", cfg.MinutesNoUsers),
		zap.Int("notify_min", cfg.MinutesNotify),
		zap.Int("danger_min", cfg.MinutesDanger))

	store, err := redisdb.Open(ctx, cfg.RedisAddress, cfg.RedisDB, config.OverrideKey)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := identity.NewResolver(store, logger)

	api := slack.New(cfg.SlackToken, slack.OptionAppLevelToken(cfg.SlackAppToken))
	gw := gateway.NewSlack(api, cfg.Channel, logger)

	// Directory failures are transient: log and rely on live events plus
	// the scheduled re-sync.
	syncDirectory := func(ctx context.Context) {
		members, err := gw.ListMembers(ctx)
		if err != nil {
			logger.Warn("directory_list_error", zap.Error(err))
			return
		}
		for _, m := range members {
			resolver.Register(m.RealName, m.ID)
		}
		logger.Info("directory_synced", zap.Int("members", len(members)))
	}
	syncDirectory(ctx)

	// Persisted corrections replace directory entries.
	if err := resolver.SeedOverrides(ctx); err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	var sender gateway.Sender = gw
	if cfg.Silent {
		logger.Info("silent_mode_enabled")
		sender = gateway.NewDryRun(logger)
	}

	trCfg := tracker.Config{
		NotifyWindow:  time.Duration(cfg.MinutesNotify) * time.Minute,
		DangerWindow:  time.Duration(cfg.MinutesDanger) * time.Minute,
		NoUsersMins:   cfg.MinutesNoUsers,
		TZOffsetHours: cfg.TZOffsetHours,
		OhnoUsers:     cfg.OhnoUsers,
		RosterURL:     cfg.RosterURL,
		StartAt:       cfg.StartAt,
		PollInterval:  cfg.PollInterval,
	}
	trCfg.ActiveStartUTC, trCfg.ActiveEndUTC = tracker.ActiveWindowUTC(
		cfg.ActiveHourStart, cfg.ActiveHourEnd, cfg.TZOffsetHours)

	tr := tracker.New(calendar.New(cfg.CalendarURL, logger), resolver, sender, logger, trCfg)
	disp := gateway.NewDispatcher(socketmode.New(api), tr, resolver, gw, logger)

	cr := cron.New()
	if _, err := cr.AddFunc(cfg.ResyncCron, func() { syncDirectory(ctx) }); err != nil {
		return fmt.Errorf("resync schedule %q: %w", cfg.ResyncCron, err)
	}
	cr.Start()
	defer cr.Stop()

	statusSrv := &http.Server{
		Addr:    cfg.StatusAddr,
		Handler: httpapi.NewServer(logger, tr).Router(),
	}

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  error
	)
	collect := func(err error) {
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
			return
		}
		errMu.Lock()
		errs = multierr.Append(errs, err)
		errMu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		tr.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		collect(disp.Run(ctx))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("status_listen", zap.String("addr", cfg.StatusAddr))
		collect(statusSrv.ListenAndServe())
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	collect(statusSrv.Shutdown(shCtx))

	wg.Wait()
	logger.Info("shutdown_complete")
	return errs
}
