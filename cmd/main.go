package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yourusername/forum-autosign/internal/auth"
	"github.com/yourusername/forum-autosign/internal/browser"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/content"
	"github.com/yourusername/forum-autosign/internal/humanlike"
	"github.com/yourusername/forum-autosign/internal/locator"
	"github.com/yourusername/forum-autosign/internal/logger"
	"github.com/yourusername/forum-autosign/internal/notifier"
	"github.com/yourusername/forum-autosign/internal/session"
	"github.com/yourusername/forum-autosign/internal/storage"
	"github.com/yourusername/forum-autosign/internal/timing"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		debug      bool
		configPath string
	)
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logLevel := cfg.Logging.Level
	if debug || os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		logLevel = "debug"
	}
	if err := logger.Init(logLevel, cfg.Logging.ToFile, cfg.Logging.FilePath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("forum autosign starting", "forum", cfg.ListingURL())

	if err := storage.InitDB(cfg.Database.Path); err != nil {
		logger.Error("failed to initialize database", "error", err)
		return 1
	}
	defer storage.Close()

	tg := notifier.New(cfg.Telegram)
	sess := session.New()

	// cleanup runs exactly once no matter how the process exits
	var once sync.Once
	cleanup := func(force bool) {
		once.Do(func() {
			if force {
				sess.ForceQuit()
			} else {
				sess.Quit()
			}
		})
	}
	defer cleanup(false)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("signal received, shutting down", "signal", sig)
		cleanup(true)
		_ = logger.Sync()

		code := 1
		if sig == os.Interrupt {
			code = 130
		} else if s, ok := sig.(syscall.Signal); ok {
			code = 128 + int(s)
		}
		os.Exit(code)
	}()

	if err := sess.Create(cfg); err != nil {
		logger.Error("failed to create browser session", "error", err)
		tg.SendError("浏览器启动失败", err.Error())
		return 1
	}

	page := browser.FromRod(sess.Page())
	loc := locator.New(page, sess.WaitTimeout())
	clock := timing.New(timing.WithReplyInterval(cfg.CommentInterval()))
	gen := content.New(cfg)

	if err := signIn(page, loc, clock, cfg, sess); err != nil {
		logger.Error("sign-in failed", "error", err)
		tg.SendError("登录失败", err.Error())
		cleanup(false)
		return 1
	}

	orch := humanlike.New(page, loc, clock, gen, storage.History(), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	outcome := orch.PerformActivitiesWithResults(ctx)
	recordOutcome(outcome)

	tg.SendSummary(outcome)
	tg.SendLogFile(logger.CurrentLogFile())

	cleanup(false)
	logger.Info("run complete",
		"browse", outcome.BrowseMessage,
		"reply", outcome.ReplyMessage)

	// individual activity failures are reported, not fatal
	return 0
}

// signIn restores a saved session when one still works, signing in fresh
// otherwise.
func signIn(page browser.Page, loc *locator.Locator, clock *timing.Model, cfg *config.Config, sess *session.Manager) error {
	if err := auth.LoadSession(sess.Page()); err == nil {
		if err := page.Navigate(cfg.ListingURL()); err == nil && auth.IsSignedIn(page, loc) {
			logger.Info("restored saved session")
			return nil
		}
		logger.Info("saved session expired, signing in fresh")
		_ = auth.ClearSession()
	}

	if err := auth.SignIn(page, loc, clock, cfg); err != nil {
		return err
	}
	if err := auth.SaveSession(sess.Page()); err != nil {
		logger.Warn("failed to save session cookies", "error", err)
	}
	return nil
}

func recordOutcome(out humanlike.Outcome) {
	if err := storage.RecordActivity("browse", out.BrowseMessage); err != nil {
		logger.Warn("failed to record browse activity", "error", err)
	}
	if err := storage.RecordActivity("reply", out.ReplyMessage); err != nil {
		logger.Warn("failed to record reply activity", "error", err)
	}
}
