package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/config"
	"github.com/zen-systems/scriptflow/pkg/execute"
	"github.com/zen-systems/scriptflow/pkg/history"
	"github.com/zen-systems/scriptflow/pkg/pipeline"
	"github.com/zen-systems/scriptflow/pkg/probe"
	"github.com/zen-systems/scriptflow/pkg/script"
)

var (
	adapterFlag string
	modelFlag   string
	quietFlag   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scriptflow",
		Short: "Self-healing pipeline that turns objectives into browser automation scripts",
		Long: `Scriptflow decomposes a natural-language objective into a step plan,
	reviews the plan, synthesizes a Playwright automation script (from an
	LLM or from a recorded demonstration), statically repairs it, and runs
	it through pytest. Every stage validates its oracle's output and falls
	back deterministically, so a run always terminates with an inspectable
	result.`,
	}

	rootCmd.PersistentFlags().StringVar(&adapterFlag, "adapter", "", "force a specific adapter (anthropic, openai, google, local, mock)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "force a specific model")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress stage progress output")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var demonstrateFlag bool

	cmd := &cobra.Command{
		Use:   "run [objective]",
		Short: "Run the full pipeline for an objective",
		Long: `Runs plan, review, synthesis, repair, and execution for the given
	objective. Use --demonstrate to record the script interactively with
	playwright codegen instead of generating it; generation failures will
	also direct you to this mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objective := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			p, err := buildPipeline(cfg, demonstrateFlag)
			if err != nil {
				return err
			}

			start := time.Now()
			st, runErr := p.Run(context.Background(), objective, demonstrateFlag)

			recordHistory(cfg, st, start)

			if runErr != nil {
				if errors.Is(runErr, pipeline.ErrGenerationFailed) {
					fmt.Fprintln(os.Stderr, "Script generation failed after all attempts.")
					fmt.Fprintln(os.Stderr, "Re-run with --demonstrate to record the script interactively.")
				}
				return runErr
			}

			printRunSummary(st)
			return nil
		},
	}

	cmd.Flags().BoolVar(&demonstrateFlag, "demonstrate", false, "record the script interactively instead of generating it")
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [objective]",
		Short: "Generate and review a plan without synthesizing a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objective := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			light, _, err := selectOracles(cfg)
			if err != nil {
				return err
			}

			st := pipeline.NewState(objective, false)
			planStage := &pipeline.PlanStage{Runner: &pipeline.StageRunner{
				Oracle:      light.Adapter,
				Model:       light.DefaultModel(),
				MaxAttempts: cfg.Attempts.Plan,
				Logger:      logf,
			}}
			reviewStage := &pipeline.ReviewStage{
				Oracle:      light.Adapter,
				Model:       light.DefaultModel(),
				MaxAttempts: cfg.Attempts.Review,
				Logger:      logf,
			}

			ctx := context.Background()
			planStage.Run(ctx, st)
			if len(st.Plan) == 0 {
				return fmt.Errorf("no plan could be produced")
			}
			reviewStage.Run(ctx, st)

			fmt.Println(st.Plan.JSON())
			if st.Review != nil {
				verdict := "VALID"
				if !st.Review.Valid {
					verdict = "INVALID"
				}
				fmt.Fprintf(os.Stderr, "Review: %s - %s\n", verdict, st.Review.Rationale)
			}
			if st.PlanFallback {
				fmt.Fprintln(os.Stderr, "Note: plan is the deterministic fallback; the oracle produced nothing usable.")
			}
			return nil
		},
	}
	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available adapters and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ADAPTER\tMODELS\tSTATUS")
			for _, name := range []string{"anthropic", "openai", "google", "local", "mock"} {
				status := "no key"
				models := "-"
				if a, ok := adapters[name]; ok {
					status = "ready"
					models = joinModels(a.Models())
				} else if name == "local" {
					status = "no endpoint"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, models, status)
			}
			return w.Flush()
		},
	}
	return cmd
}

func historyCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(limitFlag)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tMODE\tSTEPS\tORIGIN\tRESULT\tOBJECTIVE")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Mode,
					run.PlanSteps,
					run.ScriptOrigin,
					formatResult(run),
					truncate(run.Objective, 60),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum number of runs to show")
	return cmd
}

func buildPipeline(cfg *config.Config, demonstrate bool) (*pipeline.Pipeline, error) {
	light, heavy, err := selectOracles(cfg)
	if err != nil {
		return nil, err
	}
	logf("oracles: %s/%s for planning, %s/%s for synthesis",
		light.Adapter.Name(), light.DefaultModel(), heavy.Adapter.Name(), heavy.DefaultModel())

	runner := execute.NewRunner()
	if cfg.RunnerCommand != "" {
		runner.Command = cfg.RunnerCommand
	}
	if cfg.RunnerTimeout > 0 {
		runner.Timeout = cfg.RunnerTimeout
	}

	recorder := script.NewRecorder()
	if cfg.RecorderCommand != "" {
		recorder.Command = cfg.RecorderCommand
	}
	if cfg.RecorderTimeout > 0 {
		recorder.Timeout = cfg.RecorderTimeout
	}

	var prober *probe.Prober
	if demonstrate {
		prober = probe.New()
	}

	return &pipeline.Pipeline{
		Plan: &pipeline.PlanStage{Runner: &pipeline.StageRunner{
			Oracle:      light.Adapter,
			Model:       light.DefaultModel(),
			MaxAttempts: cfg.Attempts.Plan,
			Logger:      logf,
		}},
		Review: &pipeline.ReviewStage{
			Oracle:      light.Adapter,
			Model:       light.DefaultModel(),
			MaxAttempts: cfg.Attempts.Review,
			Logger:      logf,
		},
		Synthesis: &pipeline.SynthesisStage{
			Runner: &pipeline.StageRunner{
				Oracle:      heavy.Adapter,
				Model:       heavy.DefaultModel(),
				MaxAttempts: cfg.Attempts.Script,
				Logger:      logf,
			},
			Recorder: recorder,
			Prober:   prober,
			Logger:   logf,
		},
		Repair: &pipeline.RepairStage{
			Runner: &pipeline.StageRunner{
				Oracle:      light.Adapter,
				Model:       light.DefaultModel(),
				MaxAttempts: cfg.Attempts.Repair,
				Logger:      logf,
			},
			Logger: logf,
		},
		Exec: &pipeline.ExecStage{Runner: runner, Logger: logf},

		ArtifactsRoot: cfg.ArtifactsRoot,
		Logger:        logf,
	}, nil
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.LocalBaseURL != "" {
		a, err := adapter.NewLocalAdapter(cfg.LocalBaseURL, cfg.LocalModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create local adapter: %w", err)
		}
		adapters["local"] = a
	}

	adapters["mock"] = adapter.NewMockAdapter()

	return adapters, nil
}

// selectOracles picks the two oracle roles once, at process start: a light
// oracle for planning, review, and repair (the local endpoint when one is
// configured), and a heavy oracle for script synthesis (the best remote
// provider available). The --adapter flag forces both roles onto one
// adapter.
func selectOracles(cfg *config.Config) (light, heavy adapter.Selection, err error) {
	adapters, err := createAdapters(cfg)
	if err != nil {
		return light, heavy, err
	}

	if adapterFlag != "" {
		forced, ok := adapters[adapterFlag]
		if !ok {
			return light, heavy, fmt.Errorf("adapter %q not available; check `scriptflow models`", adapterFlag)
		}
		sel := adapter.Selection{Adapter: forced, Model: modelFlag}
		return sel, sel, nil
	}

	var remote adapter.Adapter
	for _, name := range []string{"anthropic", "openai", "google"} {
		if a, ok := adapters[name]; ok {
			remote = a
			break
		}
	}
	local := adapters["local"]

	switch {
	case remote != nil && local != nil:
		return adapter.Selection{Adapter: local}, adapter.Selection{Adapter: remote}, nil
	case remote != nil:
		return adapter.Selection{Adapter: remote}, adapter.Selection{Adapter: remote}, nil
	case local != nil:
		return adapter.Selection{Adapter: local}, adapter.Selection{Adapter: local}, nil
	}
	return light, heavy, fmt.Errorf("no oracle configured: set an API key or a local endpoint (see `scriptflow models`)")
}

func recordHistory(cfg *config.Config, st *pipeline.State, start time.Time) {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logf("history unavailable: %v", err)
		return
	}
	defer store.Close()

	run := history.Run{
		ID:           st.RunID,
		StartedAt:    start,
		Objective:    st.Objective,
		Mode:         modeLabel(st.Demonstrate),
		PlanSteps:    len(st.Plan),
		PlanFallback: st.PlanFallback,
	}
	if st.Review != nil {
		v := st.Review.Valid
		run.ReviewValid = &v
	}
	if st.Script != nil {
		run.ScriptOrigin = string(st.Script.Origin)
		run.ScriptPath = st.Script.Path
	}
	if st.Result != nil {
		passed := st.Result.Passed
		exitCode := st.Result.ExitCode
		run.Passed = &passed
		run.ExitCode = &exitCode
		run.TimedOut = st.Result.TimedOut
	}

	if err := store.Record(run); err != nil {
		logf("record history: %v", err)
	}
}

func printRunSummary(st *pipeline.State) {
	if len(st.Plan) == 0 {
		fmt.Println("Empty objective: nothing to do.")
		return
	}

	fmt.Printf("Run %s\n", st.RunID)
	fmt.Printf("  plan: %d step(s)", len(st.Plan))
	if st.PlanFallback {
		fmt.Print(" (fallback)")
	}
	fmt.Println()

	if st.Review != nil {
		verdict := "valid"
		if !st.Review.Valid {
			verdict = "flagged"
		}
		fmt.Printf("  review: %s\n", verdict)
	}
	if st.Script != nil {
		fmt.Printf("  script: %s v%d at %s\n", st.Script.Origin, st.ScriptVersion, st.Script.Path)
	}
	if len(st.RepairResidual) > 0 {
		fmt.Printf("  residual issues: %d\n", len(st.RepairResidual))
	}
	if st.Result != nil {
		switch {
		case st.Result.TimedOut:
			fmt.Println("  execution: timed out")
		case st.Result.Passed:
			fmt.Println("  execution: passed")
		default:
			fmt.Printf("  execution: failed (exit %d)\n", st.Result.ExitCode)
		}
	}
}

func modeLabel(demonstrate bool) string {
	if demonstrate {
		return "demonstrative"
	}
	return "generative"
}

func formatResult(run history.Run) string {
	switch {
	case run.TimedOut:
		return "timeout"
	case run.Passed == nil:
		return "-"
	case *run.Passed:
		return "passed"
	default:
		return "failed"
	}
}

func joinModels(models []string) string {
	out := ""
	for i, m := range models {
		if i > 0 {
			out += ", "
		}
		out += m
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func logf(format string, args ...any) {
	if quietFlag {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
