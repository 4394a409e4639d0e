// Package main provides a command-line interface for scoring and optimizing prompts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/teilomillet/promptopt"
	"github.com/teilomillet/promptopt/config"
	"github.com/teilomillet/promptopt/technique"
)

// cmdFlags holds the optimize command flags
type cmdFlags struct {
	technique   string
	contextFile string
	model       string
	iterations  int
	variants    int
	showMetrics bool
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "score":
		err = runScore(os.Args[2:])
	case "optimize":
		err = runOptimize(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		exitWithError("Error: %v\n", err)
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage:\n  %s score <prompt>\n  %s optimize [flags] <prompt>\n", os.Args[0], os.Args[0])
}

// exitWithError prints an error message and exits
func exitWithError(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func runScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	_ = fs.Parse(args)
	prompt, err := promptFrom(fs)
	if err != nil {
		return err
	}
	return printJSON(promptopt.Score(prompt))
}

func runOptimize(ctx context.Context, args []string) error {
	flags := &cmdFlags{}
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	fs.StringVar(&flags.technique, "technique", "", "Technique to apply (feedback-iteration, few-shot); default picks the highest-priority applicable one")
	fs.StringVar(&flags.contextFile, "context", "", "JSON file with examples, constraints and domain hints")
	fs.StringVar(&flags.model, "model", "", "Model override")
	fs.IntVar(&flags.iterations, "iterations", 0, "Maximum optimization iterations")
	fs.IntVar(&flags.variants, "variants", 0, "Maximum variants returned")
	fs.BoolVar(&flags.showMetrics, "metrics", false, "Include provider call metrics in the output")
	_ = fs.Parse(args)

	prompt, err := promptFrom(fs)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	config.ApplyOptions(cfg, flagOptions(flags)...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	octx, err := loadContext(flags.contextFile)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger()
	metrics := technique.NewMetrics()
	registry, err := promptopt.NewRegistry(cfg, promptopt.NewProvider(cfg, logger), logger, metrics)
	if err != nil {
		return err
	}

	tech, err := pickTechnique(registry, technique.Name(flags.technique), octx)
	if err != nil {
		return err
	}
	logger.Info("Applying technique", "technique", tech.Metadata().Name)

	variants, err := tech.Apply(ctx, prompt, octx)
	if err != nil {
		return err
	}
	evaluation, err := tech.Evaluate(ctx, variants)
	if err != nil {
		return err
	}

	out := map[string]any{
		"technique":  tech.Metadata().Name,
		"evaluation": evaluation,
	}
	if flags.showMetrics {
		out["metrics"] = metrics.Snapshot()
	}
	return printJSON(out)
}

func flagOptions(flags *cmdFlags) []config.ConfigOption {
	var opts []config.ConfigOption
	if flags.model != "" {
		opts = append(opts, config.SetModel(flags.model))
	}
	if flags.iterations > 0 {
		opts = append(opts, config.SetMaxIterations(flags.iterations))
	}
	if flags.variants > 0 {
		opts = append(opts, config.SetMaxVariants(flags.variants))
	}
	return opts
}

func pickTechnique(registry *technique.Registry, name technique.Name, octx *technique.OptimizationContext) (technique.Technique, error) {
	if name != "" {
		tech, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown technique %q", name)
		}
		if !tech.IsApplicable(octx) {
			return nil, fmt.Errorf("technique %q is not applicable to the given context", name)
		}
		return tech, nil
	}
	applicable := registry.Applicable(octx)
	if len(applicable) == 0 {
		return nil, fmt.Errorf("no applicable technique")
	}
	return applicable[0], nil
}

func loadContext(path string) (*technique.OptimizationContext, error) {
	octx := &technique.OptimizationContext{}
	if path == "" {
		return octx, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context file: %w", err)
	}
	if err := json.Unmarshal(data, octx); err != nil {
		return nil, fmt.Errorf("parse context file: %w", err)
	}
	return octx, nil
}

func promptFrom(fs *flag.FlagSet) (string, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("missing prompt argument")
	}
	return strings.Join(fs.Args(), " "), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
