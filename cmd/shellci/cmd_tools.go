package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shellci/internal/config"
	"shellci/internal/fmtcheck"
	"shellci/internal/lint"
)

var flagScanDir string

// checkCmd runs the linter directly, outside any workflow. Findings at or
// above warning severity exit non-zero, same as the check job.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint shell scripts in the scan directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dir := flagScanDir
		if dir == "" {
			dir = cfg.Workflow.ScriptDir
		}

		res, err := lint.Run(cmd.Context(), lint.Options{Bin: cfg.Tools.Shellcheck, Dir: dir})
		if err != nil {
			return err
		}
		fmt.Print(res.Output)
		if res.Findings {
			os.Exit(1)
		}
		return nil
	},
}

// fmtDiffCmd prints formatting diffs without ever failing: divergence from
// canonical style is advisory.
var fmtDiffCmd = &cobra.Command{
	Use:   "fmt-diff",
	Short: "Show diffs against canonical shell formatting",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dir := flagScanDir
		if dir == "" {
			dir = cfg.Workflow.ScriptDir
		}

		res, err := fmtcheck.Run(cmd.Context(), fmtcheck.Options{
			Bin:        cfg.Tools.Shfmt,
			CaseIndent: true,
			Dir:        dir,
		})
		if err != nil {
			return err
		}
		fmt.Print(res.Output())
		if res.Dirty() {
			fmt.Printf("%d file(s) differ from canonical formatting\n", len(res.Diffs))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&flagScanDir, "dir", "", "scan directory (default from config)")
	fmtDiffCmd.Flags().StringVar(&flagScanDir, "dir", "", "scan directory (default from config)")
}
