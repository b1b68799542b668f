// Command filesmith asks an LLM for a file mapping and materializes it
// into a target directory.
//
// Usage:
//
//	filesmith -task "add a Makefile" [-target dir] [context files...]
//	filesmith -response-file saved.txt -target dir
//
// The second form skips the provider entirely and runs the pipeline on a
// saved response, which is useful for replaying or debugging runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/filesmith/filesmith"
	"github.com/filesmith/filesmith/config"
	"github.com/filesmith/filesmith/extract"
	"github.com/filesmith/filesmith/fileset"
	"github.com/filesmith/filesmith/materialize"
	"github.com/filesmith/filesmith/prompt"
	"github.com/filesmith/filesmith/provider"
	"github.com/filesmith/filesmith/workspace"
)

const (
	exitClean    = 0
	exitUnclean  = 1
	exitTerminal = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   = flag.String("config", "", "config file (TOML or YAML)")
		task         = flag.String("task", "", "what the model should do")
		taskFile     = flag.String("task-file", "", "read the task from a file")
		target       = flag.String("target", ".", "directory files are written under")
		responseFile = flag.String("response-file", "", "skip the provider and process a saved response")
		providerName = flag.String("provider", "", "LLM provider (overrides config)")
		model        = flag.String("model", "", "model name (overrides config)")
		format       = flag.String("format", "", "payload format: json or yaml (overrides config)")
		workers      = flag.Int("workers", 0, "concurrent file writers (overrides config)")
		branch       = flag.String("branch", "", "create this git branch before writing")
		commit       = flag.Bool("commit", false, "commit written files after a clean run")
		push         = flag.Bool("push", false, "push the commit (implies -commit)")
		logLevel     = flag.String("log-level", "", "debug, info, warn, or error")
	)
	flag.Parse()

	settings, err := loadSettings(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "filesmith:", err)
		return exitTerminal
	}
	applyFlags(&settings, *providerName, *model, *format, *workers, *branch, *commit, *push, *logLevel)
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "filesmith: invalid configuration:", err)
		return exitTerminal
	}

	logger := newLogger(settings.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	targetRoot, ws, err := prepareTarget(ctx, *target, settings)
	if err != nil {
		logger.Error("preparing target", "error", err)
		return exitTerminal
	}

	raw, usage, err := obtainResponse(ctx, settings, *responseFile, *task, *taskFile, flag.Args(), logger)
	if err != nil {
		logger.Error("obtaining response", "error", err)
		return exitTerminal
	}
	if usage.TotalTokens > 0 {
		logger.Info("completion finished",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens)
	}

	pipelineFormat := extract.FormatJSON
	if settings.Format == "yaml" || settings.Format == "yml" {
		pipelineFormat = extract.FormatYAML
	}
	p := filesmith.NewPipeline(
		filesmith.WithFormat(pipelineFormat),
		filesmith.WithMaterializer(materialize.New(
			materialize.WithWorkers(settings.Workers),
			materialize.WithLogger(logger),
		)),
	)

	report, err := p.Run(ctx, raw, targetRoot)
	if err != nil {
		logger.Error("response rejected", "error", err)
		return exitTerminal
	}

	printReport(report)

	if !report.Clean() {
		return exitUnclean
	}

	if ws != nil && settings.Git.Commit && len(report.Written()) > 0 {
		if err := commitRun(ctx, ws, settings, report, logger); err != nil {
			logger.Error("git integration failed", "error", err)
			return exitTerminal
		}
	}
	return exitClean
}

// loadSettings layers defaults, the config file, and the environment.
func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	s, err := config.Load(path)
	if err != nil {
		return s, err
	}
	s.LoadFromEnv()
	return s, nil
}

// applyFlags lays explicit flags over the loaded settings.
func applyFlags(s *config.Settings, providerName, model, format string, workers int, branch string, commit, push bool, logLevel string) {
	if providerName != "" {
		s.Provider = providerName
	}
	if model != "" {
		s.Model = model
	}
	if format != "" {
		s.Format = format
	}
	if workers > 0 {
		s.Workers = workers
	}
	if branch != "" {
		s.Git.Branch = branch
	}
	if commit {
		s.Git.Commit = true
	}
	if push {
		s.Git.Push = true
		s.Git.Commit = true
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// prepareTarget resolves the target root and, when git integration is
// requested, opens the workspace and creates the run branch.
func prepareTarget(ctx context.Context, target string, settings config.Settings) (string, *workspace.Workspace, error) {
	gitWanted := settings.Git.Branch != "" || settings.Git.Commit || settings.Git.Push
	if !gitWanted {
		return target, nil, nil
	}

	ws, err := workspace.Open(ctx, target)
	if err != nil {
		return "", nil, err
	}
	if settings.Git.Branch != "" {
		if err := ws.NewBranch(ctx, settings.Git.Branch); err != nil {
			return "", nil, err
		}
	}
	return ws.Root(), ws, nil
}

// obtainResponse returns the raw model response, either from a saved
// file or from the configured provider. Provider responses that fail
// extraction or decoding get one correction round trip.
func obtainResponse(ctx context.Context, settings config.Settings, responseFile, task, taskFile string, contextPaths []string, logger *slog.Logger) (string, provider.TokenUsage, error) {
	var usage provider.TokenUsage

	if responseFile != "" {
		data, err := os.ReadFile(responseFile)
		if err != nil {
			return "", usage, fmt.Errorf("reading response file: %w", err)
		}
		return string(data), usage, nil
	}

	if taskFile != "" {
		data, err := os.ReadFile(taskFile)
		if err != nil {
			return "", usage, fmt.Errorf("reading task file: %w", err)
		}
		task = string(data)
	}
	if strings.TrimSpace(task) == "" {
		return "", usage, errors.New("no task given (use -task, -task-file, or -response-file)")
	}

	contextFiles, err := readContextFiles(contextPaths)
	if err != nil {
		return "", usage, err
	}

	client, err := provider.New(settings.Provider, settings.ProviderConfig())
	if err != nil {
		return "", usage, err
	}
	defer client.Close()

	pipelineFormat := extract.FormatJSON
	if settings.Format == "yaml" || settings.Format == "yml" {
		pipelineFormat = extract.FormatYAML
	}
	builder := prompt.NewBuilder(
		prompt.WithFormat(pipelineFormat),
		prompt.WithMaxTokensPerFile(settings.MaxTokensPerFile),
	)

	req := provider.Request{
		SystemPrompt:    builder.System(),
		Prompt:          builder.Build(task, contextFiles),
		Temperature:     settings.Temperature,
		MaxOutputTokens: settings.MaxOutputTokens,
	}

	logger.Info("requesting completion", "provider", settings.Provider, "model", settings.Model)
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return "", usage, err
	}
	usage.Add(resp.Usage)
	logger.Debug("completion received", "duration", time.Since(start), "finish_reason", resp.FinishReason)

	// One correction round trip when the response cannot even be decoded.
	if cause := probeResponse(resp.Content, pipelineFormat); cause != nil {
		logger.Warn("response failed decoding, asking for a correction", "error", cause)

		req.Prompt = builder.Correction(resp.Content, cause)
		resp, err = client.Complete(ctx, req)
		if err != nil {
			return "", usage, fmt.Errorf("correction request: %w", err)
		}
		usage.Add(resp.Usage)
	}

	return resp.Content, usage, nil
}

// probeResponse runs the non-writing pipeline stages to decide whether a
// correction is worth asking for.
func probeResponse(raw string, format extract.Format) error {
	payload, err := extract.Extract(raw, format)
	if err != nil {
		return err
	}
	_, err = fileset.Decode(payload)
	return err
}

func readContextFiles(paths []string) ([]prompt.ContextFile, error) {
	files := make([]prompt.ContextFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading context file: %w", err)
		}
		files = append(files, prompt.ContextFile{Path: path, Content: string(data)})
	}
	return files, nil
}

func printReport(report *materialize.Report) {
	for _, o := range report.Outcomes {
		line := fmt.Sprintf("%-9s %s", o.Status, o.Path)
		if o.Detail != "" {
			line += "  (" + o.Detail + ")"
		}
		fmt.Println(line)
	}
	fmt.Println(report.Summary())
}

func commitRun(ctx context.Context, ws *workspace.Workspace, settings config.Settings, report *materialize.Report, logger *slog.Logger) error {
	dirty, err := ws.Dirty(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		logger.Info("nothing to commit")
		return nil
	}

	message := fmt.Sprintf("Materialize %d generated file(s)", len(report.Written()))
	hash, err := ws.CommitAll(ctx, message)
	if err != nil {
		return err
	}
	logger.Info("committed", "hash", hash)

	if settings.Git.Push {
		if err := ws.Push(ctx, settings.Git.Remote); err != nil {
			return err
		}
		logger.Info("pushed", "remote", settings.Git.Remote)
	}
	return nil
}
