package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var dbPath string
	var adminUser string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and admin account",
		Long: `Create a new database, apply the schema and create the admin account.
The generated password is printed once and cannot be recovered.

Running serve against a missing database does this automatically; init
exists for setups that provision the database ahead of time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dbPath); err == nil {
				return fmt.Errorf("database %s already exists", dbPath)
			}

			database, password, err := initDatabase(dbPath, adminUser)
			if err != nil {
				return err
			}
			database.Close()

			printInitResult(dbPath, adminUser, password)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbPath, "db", "d", "gusar.sqlite3", "SQLite database path")
	cmd.Flags().StringVarP(&adminUser, "user", "u", "Admin", "admin username")
	return cmd
}
