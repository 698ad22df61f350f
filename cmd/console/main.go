package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/story-crew/internal/config"
	"github.com/jwebster45206/story-crew/internal/logger"
	"github.com/jwebster45206/story-crew/internal/services"
	"github.com/jwebster45206/story-crew/pkg/engine"
	"github.com/spf13/cobra"
)

type consoleFlags struct {
	name     string
	maxTurns int
	load     string
	provider string
	apiURL   string
	logFile  string
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd creates the console command.
func NewRootCmd() *cobra.Command {
	flags := &consoleFlags{}

	cmd := &cobra.Command{
		Use:   "story-crew",
		Short: "Play a short interactive story in the terminal",
		Long: `story-crew runs a turn-limited interactive story. Each request is
classified, routed to the collaborators that can serve it, and the results
are reconciled into a single reply.

Type look, status, summarize, save or help at any time; they do not use a turn.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "player name")
	cmd.Flags().IntVar(&flags.maxTurns, "max-turns", 0, "number of turns before the story ends (default MAX_TURNS)")
	cmd.Flags().StringVar(&flags.load, "load", "", "resume a saved game from this file")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "LLM provider: anthropic, gemini or mock (default LLM_PROVIDER)")
	cmd.Flags().StringVar(&flags.apiURL, "api", "", "play against a running API at this URL instead of in process")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "write logs to this file")

	return cmd
}

func run(ctx context.Context, flags *consoleFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if flags.provider != "" {
		cfg.SetProvider(flags.provider)
	}
	if flags.maxTurns < 0 {
		return fmt.Errorf("--max-turns cannot be negative")
	}
	if flags.maxTurns > 0 {
		cfg.MaxTurns = flags.maxTurns
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if flags.logFile != "" {
		f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			_ = f.Close() // Ignore error in defer
		}()
		logOut = f
	}
	log := logger.New(cfg, logOut)

	name := strings.TrimSpace(flags.name)
	if name == "" && flags.load == "" {
		name = askName(os.Stdin, os.Stdout)
	}

	var g game
	if flags.apiURL != "" {
		client := &http.Client{Timeout: 2 * cfg.CollaboratorTimeout}
		if !testConnection(client, flags.apiURL) {
			return fmt.Errorf("could not connect to API at %s; start it with: go run ./cmd/api", flags.apiURL)
		}
		g = newRemoteGame(client, flags.apiURL, cfg.MaxTurns)
	} else {
		initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		llm, closeLLM, err := services.NewLLMService(initCtx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			_ = closeLLM() // Ignore error in defer
		}()
		g, err = newLocal(cfg, llm, flags.load, log)
		if err != nil {
			return err
		}
	}

	p := tea.NewProgram(NewConsoleUI(ctx, g, name, cfg.SaveDir),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func newLocal(cfg *config.Config, llm services.LLMService, load string, log *slog.Logger) (*localGame, error) {
	registry := services.NewRegistry(llm, cfg.CollaboratorRetries, log)
	sess, err := engine.NewSession(registry, engine.Options{
		MaxTurns:     cfg.MaxTurns,
		HistoryLimit: cfg.HistoryLimit,
		Images:       cfg.EnableImages,
		StageTimeout: cfg.CollaboratorTimeout,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	if load == "" {
		return newLocalGame(sess, false), nil
	}
	if err := sess.Load(load); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", load, err)
	}
	return newLocalGame(sess, true), nil
}

// askName prompts for the player name before the UI takes over the screen.
func askName(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "What is your name, traveler? ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
