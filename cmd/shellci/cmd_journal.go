package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shellci/internal/config"
	"shellci/internal/journal"
	"shellci/pkg/utils"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect or verify the signed run journal",
}

var journalInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List journal records",
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, err := openJournal()
		if err != nil {
			return err
		}
		for _, rec := range jnl.Records() {
			fmt.Printf("seq=%d run=%s job=%s status=%s hash=%s\n",
				rec.Seq, rec.RunID, rec.Job, rec.Status, utils.ShortHash(rec.Hash))
		}
		return nil
	},
}

var journalVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify hashes, chain links and signatures",
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, err := openJournal()
		if err != nil {
			return err
		}
		if err := jnl.Verify(); err != nil {
			return fmt.Errorf("journal verification failed: %w", err)
		}
		fmt.Printf("journal verification ok (%d records)\n", jnl.Len())
		return nil
	},
}

// openJournal opens the configured journal read-only (no signing keys).
func openJournal() (*journal.Journal, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.Storage.JournalPath, nil, nil)
}

func init() {
	journalCmd.AddCommand(journalInspectCmd)
	journalCmd.AddCommand(journalVerifyCmd)
}
