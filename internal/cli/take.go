package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"proctor-quiz-service/internal/config"
	"proctor-quiz-service/internal/logger"
	"proctor-quiz-service/internal/tui"
)

// NewTakeCmd runs a quiz in the terminal against an in-process service.
func NewTakeCmd(configPath *string) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take the quiz in this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTake(cmd.Context(), *configPath, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", filepath.Join(os.TempDir(), "proctor-quiz.log"), "file receiving logs while the terminal UI runs")
	return cmd
}

func runTake(ctx context.Context, configPath, logFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// the UI owns stdout, so logs go to a file
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	level, _ := logSettings(cfg)
	log := logger.New(f, level, "json")

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	model := tui.NewModel(ctx, service, log)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
