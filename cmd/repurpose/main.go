package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/repurpose/internal/content"
	"github.com/alkime/repurpose/internal/editor"
	"github.com/alkime/repurpose/internal/keyring"
	"github.com/alkime/repurpose/internal/launchpad"
	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/internal/session"
	"github.com/alkime/repurpose/internal/tui"
	"github.com/alkime/repurpose/internal/tui/week"
	"github.com/alkime/repurpose/internal/tui/workflow"
	"github.com/alkime/repurpose/internal/workdir"
)

// CLI defines the repurpose command structure.
type CLI struct {
	Run    RunCmd    `cmd:"" default:"withargs" help:"Repurpose a piece of content through the Captain, Sous Chef and Chef"`
	Week   WeekCmd   `cmd:"" help:"Plan a week of content with the 7-day launchpad"`
	Config ConfigCmd `cmd:"" help:"Manage configuration"`
}

// ProviderFlags selects the generative backend and its credentials.
type ProviderFlags struct {
	Provider        string `flag:"" default:"gemini" enum:"gemini,anthropic,openai" env:"LLM_PROVIDER" help:"LLM provider"`
	Model           string `flag:"" optional:"" env:"LLM_MODEL" help:"Model name (default depends on provider)"`
	GeminiAPIKey    string `flag:"" env:"GEMINI_API_KEY" help:"Gemini API key"`
	AnthropicAPIKey string `flag:"" env:"ANTHROPIC_API_KEY" help:"Anthropic API key"`
	OpenAIAPIKey    string `flag:"" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	OutputDir       string `flag:"" optional:"" help:"Output dir (default: ~/Documents/RizenAi)"`
}

// generator resolves the API key (environment first, then keychain) and
// builds the generator.
func (p *ProviderFlags) generator(ctx context.Context, logger *slog.Logger) (llm.Generator, error) {
	explicit := map[string]string{
		"gemini":    p.GeminiAPIKey,
		"anthropic": p.AnthropicAPIKey,
		"openai":    p.OpenAIAPIKey,
	}[p.Provider]

	apiKey, err := keyring.Resolve(p.Provider, explicit)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing %s API key. Set it via environment variable or run 'repurpose config set-key %s <key>'",
			p.Provider, p.Provider)
	}

	return llm.New(ctx, llm.Config{
		Provider: llm.Provider(p.Provider),
		APIKey:   apiKey,
		Model:    p.Model,
	}, logger)
}

// RunCmd is the default command that runs the content pipeline.
type RunCmd struct {
	ProviderFlags `embed:""`

	ContentFile string   `arg:"" optional:"" help:"File with the content to repurpose (- for stdin)" default:"-"`
	Name        string   `flag:"" required:"" help:"Creator name"`
	Profession  string   `flag:"" required:"" help:"Creator profession"`
	Objective   string   `flag:"" optional:"" help:"Content objective"`
	Tone        string   `flag:"" optional:"" help:"Tone of voice"`
	ExtraInfo   string   `flag:"" optional:"" help:"Anything else the Captain should know"`
	Platform    []string `flag:"" optional:"" help:"Target platform (repeatable)"`
	Plain       bool     `flag:"" help:"Log progress instead of launching the terminal UI"`
}

// Run executes the pipeline command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *RunCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	text, err := readContent(c.ContentFile)
	if err != nil {
		return err
	}

	in := content.Input{
		Profile: content.Profile{
			Name:       c.Name,
			Profession: c.Profession,
			Objective:  c.Objective,
			Tone:       c.Tone,
			ExtraInfo:  c.ExtraInfo,
			Platforms:  c.Platform,
		},
		Content: text,
	}
	if err := in.Validate(); err != nil {
		return err
	}
	in = in.Normalize()

	outDir, err := workdir.Resolve(c.OutputDir)
	if err != nil {
		return err
	}
	if err := workdir.Prep(outDir); err != nil {
		return err
	}

	outputPath := filepath.Join(outDir, content.Filename(in.Profile))

	if c.Plain {
		return c.runPlain(ctx, in, outputPath)
	}

	logger, closeLog, err := fileLogger(outDir)
	if err != nil {
		return err
	}
	defer closeLog()

	gen, err := c.generator(ctx, logger)
	if err != nil {
		return err
	}

	run := &workflow.Run{Input: in, OutputPath: outputPath, Editor: editor.Launcher{}}
	p := tea.NewProgram(
		tui.New(ctx, tui.Config{Cancel: cancel}, content.NewPipeline(gen, logger), run),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	if run.Result.Final != "" {
		fmt.Printf("\nContent saved to %s\n", outputPath)
	}

	return nil
}

func (c *RunCmd) runPlain(ctx context.Context, in content.Input, outputPath string) error {
	logger := slog.Default()

	gen, err := c.generator(ctx, logger)
	if err != nil {
		return err
	}

	res, err := content.NewPipeline(gen, logger).Run(ctx, in, func(p content.Progress) {
		logger.Info("Stage progress",
			"stage", p.Stage.Title(),
			"status", p.Status,
			"step", fmt.Sprintf("%d/%d", p.Index+1, p.Total),
			"elapsed", p.Elapsed,
		)
	})
	if err != nil {
		return err
	}

	//nolint:gosec // Content files need to be readable
	if err := os.WriteFile(outputPath, []byte(res.Markdown(in.Profile)), 0o644); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}

	logger.Info("Content saved", "path", outputPath)

	return nil
}

// WeekCmd runs the 7-day launchpad in the terminal.
type WeekCmd struct {
	ProviderFlags `embed:""`
}

// Run executes the launchpad command.
func (c *WeekCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outDir, err := workdir.Resolve(c.OutputDir)
	if err != nil {
		return err
	}

	logger, closeLog, err := fileLogger(outDir)
	if err != nil {
		return err
	}
	defer closeLog()

	gen, err := c.generator(ctx, logger)
	if err != nil {
		return err
	}

	m := week.New(ctx, week.Config{
		Engine:    launchpad.NewEngine(launchpad.NewLLMPlanner(gen, logger), logger),
		Session:   launchpad.New(session.NewID()),
		OutputDir: outDir,
		Cancel:    cancel,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	fmt.Println("\nfinished. bye!")

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey   SetKeyCmd   `cmd:"" help:"Store an API key in system keychain"`
	ListKeys ListKeysCmd `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"gemini,anthropic,openai" help:"Service name (gemini, anthropic or openai)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.FromProvider(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Printf("%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'repurpose config set-key <service> <key>' to configure.")
	}

	return nil
}

func main() {
	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("repurpose"),
		kong.Description("Turn one piece of content into platform-ready posts."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

// readContent reads the content to repurpose from a file or stdin.
func readContent(path string) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	return string(data), nil
}

// fileLogger points the default logger at the output dir's log file while
// a terminal UI owns the screen.
func fileLogger(dir string) (*slog.Logger, func(), error) {
	f, err := workdir.OpenLog(dir)
	if err != nil {
		return nil, nil, err
	}

	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	return logger, func() { _ = f.Close() }, nil
}
