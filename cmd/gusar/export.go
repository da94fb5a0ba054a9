package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zanlubej/gusar/internal/db"
	"github.com/zanlubej/gusar/internal/store"
)

func exportCmd() *cobra.Command {
	var dbPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <expedition-id>",
		Short: "Export an expedition to a portable snapshot",
		Long: `Write an expedition's anonymized records to a binary snapshot file.
The snapshot carries ciphertexts, never plaintext, and never the
expedition key. Exporting the same expedition twice yields identical
bytes as long as the data has not changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expeditionID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid expedition id %q", args[0])
			}

			database, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			blob, err := store.ExportExpedition(context.Background(), database, expeditionID)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = fmt.Sprintf("expedition-%d.gusar", expeditionID)
			}
			if err := os.WriteFile(outPath, blob, 0o600); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}

			fmt.Printf("Exported expedition %d to %s (%d bytes)\n",
				expeditionID, color.New(color.FgGreen).Sprint(outPath), len(blob))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbPath, "db", "d", "gusar.sqlite3", "SQLite database path")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: expedition-<id>.gusar)")
	return cmd
}

func importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <expedition-id> <snapshot-file>",
		Short: "Import a snapshot into an empty expedition",
		Long: `Restore a snapshot into an existing expedition. The target must be
empty. The target keeps its own key, so restored identities only
decrypt if the source expedition's key is still available.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expeditionID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid expedition id %q", args[0])
			}

			blob, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading snapshot: %w", err)
			}

			database, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if err := store.ImportExpedition(context.Background(), database, expeditionID, blob); err != nil {
				return err
			}

			fmt.Printf("Imported %s into expedition %d\n",
				color.New(color.FgGreen).Sprint(args[1]), expeditionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbPath, "db", "d", "gusar.sqlite3", "SQLite database path")
	return cmd
}
