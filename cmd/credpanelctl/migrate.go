package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/credpanel/internal/adapter/driven/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		version, dirty, err := sqliteadapter.SchemaVersion(db.Writer)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("schema version %d is dirty; a previous migration failed", version)
		}

		fmt.Printf("%s Database %s is at schema version %s\n",
			color.GreenString("✓"), color.CyanString(cfg.DBPath), color.GreenString(fmt.Sprint(version)))
		return nil
	},
}
