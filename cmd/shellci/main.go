package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shellci/internal/config"
	"shellci/internal/core"
	"shellci/internal/journal"
	"shellci/internal/security"
	"shellci/internal/storage"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "shellci",
	Short:         "shellci runs shell-script quality jobs for repository events",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger = zap.NewNop()
		}
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// event flags shared by `run` and `event send`
var (
	flagEvent         string
	flagRef           string
	flagBaseRef       string
	flagDefaultBranch string
	flagChanged       []string
)

func eventFromFlags() core.Event {
	return core.Event{
		Kind:          core.EventKind(flagEvent),
		Ref:           flagRef,
		BaseRef:       flagBaseRef,
		DefaultBranch: flagDefaultBranch,
		ChangedPaths:  flagChanged,
	}
}

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagEvent, "event", "push", "event kind: push or pull_request")
	cmd.Flags().StringVar(&flagRef, "ref", "main", "branch the event happened on")
	cmd.Flags().StringVar(&flagBaseRef, "base-ref", "", "target branch for pull_request events")
	cmd.Flags().StringVar(&flagDefaultBranch, "default-branch", "main", "repository default branch")
	cmd.Flags().StringSliceVar(&flagChanged, "changed", nil, "changed file paths")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate an event against the workflow and run it locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		wf, err := core.LoadWorkflow(cfg.Workflow.Path)
		if err != nil {
			return err
		}

		exec := core.NewExecutor()
		exec.StepTimeout = cfg.Tools.StepTimeout
		exec.LintBin = cfg.Tools.Shellcheck
		exec.FmtBin = cfg.Tools.Shfmt

		runner := core.NewRunner(exec)
		runner.Logs = storage.NewLogStore(cfg.Storage.LogsDir)
		runner.RepoDir = cfg.Workflow.RepoDir
		runner.Log = logger.Sugar()

		// journal is best-effort for local runs
		pub, priv, err := security.EnsureKeyPair(
			filepath.Join(cfg.Storage.KeysDir, "server.pub"),
			filepath.Join(cfg.Storage.KeysDir, "server.priv"))
		if err == nil {
			if jnl, err := journal.Open(cfg.Storage.JournalPath, priv, pub); err == nil {
				runner.Journal = jnl
			}
		}

		ev := eventFromFlags()
		dispatcher := core.NewDispatcher(runner, logger.Sugar())
		res, dec, err := dispatcher.Dispatch(context.Background(), uuid.NewString(), wf, ev)
		if err != nil {
			return err
		}
		if !dec.Run {
			fmt.Printf("skipped: %s\n", dec.Reason)
			return nil
		}

		for _, job := range res.Jobs {
			fmt.Printf("==> job %s: %s\n", job.Name, job.Status)
			if job.Output != "" {
				fmt.Print(job.Output)
			}
			if job.Error != "" {
				fmt.Printf("error: %s\n", job.Error)
			}
		}
		fmt.Printf("run %s: %s\n", res.ID, res.Status)
		if res.Failed() {
			os.Exit(1)
		}
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	addEventFlags(runCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fmtDiffCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(eventCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
