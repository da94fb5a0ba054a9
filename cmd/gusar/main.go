package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gusar",
		Short: "Gusar - anonymized expedition ledger",
		Long: `Gusar tracks pirate expeditions: who sails, what they are assigned,
what they consume and what they still owe. Real identities and item
names are stored only as authenticated ciphertext under a per-expedition
key; the ledger itself works entirely with pseudonyms.`,
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
