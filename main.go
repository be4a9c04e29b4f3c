// jiratui is a terminal browser for a local JIRA issue cache. Issue
// descriptions can be edited inline or handed off to $EDITOR, with the
// terminal released for the duration of the editor session.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"jiratui/internal/config"
	"jiratui/internal/editor"
	"jiratui/internal/issue"
	"jiratui/internal/log"
	"jiratui/internal/sentry"
	"jiratui/internal/terminal"
	"jiratui/internal/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, issuesPath, logFile, logLevel string
	var showVersion bool

	flagSet := pflag.NewFlagSet("jiratui", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config.toml (default: $XDG_CONFIG_HOME/jiratui/config.toml)")
	flagSet.StringVar(&issuesPath, "issues", "", "path to the issue cache, overrides issues_file")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON log records to this file, overrides log_file")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error, overrides log_level")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		fmt.Println("jiratui", version)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if issuesPath != "" {
		cfg.IssuesFile = issuesPath
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := sentry.Init(cfg.SentryDSN, version); err != nil {
		fmt.Fprintf(os.Stderr, "warning: crash reporting disabled: %v\n", err)
	}
	defer sentry.Flush()
	defer sentry.RecoverPanic()

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, closeLog, err := log.New(cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; file logging disabled\n", err)
		if logger, closeLog, err = log.New("", level); err != nil {
			return err
		}
	}
	defer closeLog()
	logger.Info("starting", "version", version, "config", configPath, "issues", cfg.IssuesFile)

	store, err := issue.Load(cfg.IssuesFile)
	if err != nil {
		return fmt.Errorf("cannot load issues from %s: %w", cfg.IssuesFile, err)
	}

	ctrl := terminal.NewProgramController(os.Stdin)
	orchestrator := tui.NewOrchestrator(ctrl, editor.NewLauncher(logger), logger)

	model := tui.New(tui.Options{
		Store:          store,
		Orchestrator:   orchestrator,
		BrowseURL:      cfg.BrowseURL,
		RenderMarkdown: cfg.ShouldRenderMarkdown(),
		Logger:         logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	ctrl.Bind(p)

	return runProgram(p, logger)
}

// captureError reports a crash that never reached RecoverPanic.
var captureError = sentry.CaptureError

type runner interface {
	Run() (tea.Model, error)
}

func runProgram(p runner, logger *slog.Logger) error {
	_, err := p.Run()
	if err == nil {
		return nil
	}
	// bubbletea recovers panics from Update and View itself, so they arrive
	// here as an error rather than reaching RecoverPanic.
	if errors.Is(err, tea.ErrProgramPanic) {
		captureError(err)
	}
	logger.Error("program exited with error", "error", err)
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `jiratui: browse and edit a local JIRA issue cache.

Press e on an issue to edit its description in $EDITOR (then $VISUAL,
then vi). Changes come back as an unsaved inline edit; press Ctrl+S to
save or Esc to discard.

Usage:
  jiratui [flags]

Flags:
%s`, flagSet.FlagUsages())
}
