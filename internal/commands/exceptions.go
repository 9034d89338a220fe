package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearline-dev/clearline/internal/exceptions"
)

func newExceptionsCommand() *cobra.Command {
	var repoDir string
	var document string

	cmd := &cobra.Command{
		Use:   "exceptions",
		Short: "List the exception queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runExceptions(absDir, document)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger repo directory")
	cmd.Flags().StringVar(&document, "document", "", "only show records for one source document")

	return cmd
}

func runExceptions(dir, document string) error {
	records, err := exceptions.Read(dir)
	if err != nil {
		return err
	}

	shown := 0
	for _, rec := range records {
		if document != "" && rec.SourceDocument != document {
			continue
		}
		shown++
		row := "-"
		if rec.Ordinal > 0 {
			row = fmt.Sprintf("%d", rec.Ordinal)
		}
		fmt.Printf("%s  %s  row %-4s %-20s %s\n",
			rec.Timestamp.Format(time.RFC3339), rec.SourceDocument, row, rec.Kind, rec.Message)
	}

	if shown == 0 {
		fmt.Println("exception queue is empty")
	}
	return nil
}
