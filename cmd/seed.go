package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e-mutai/pesa-smart-guide/catalog"
)

// seedCmd copies the file (or built-in) catalog, history included, into the
// sqlite store so later runs read it from there.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the fund catalog into the sqlite store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Catalog.SQLitePath == "" {
				return fmt.Errorf("seed needs catalog.sqlite_path")
			}

			var sources []catalog.Source
			if cfg.Catalog.File != "" {
				sources = append(sources, catalog.FileSource{Path: cfg.Catalog.File})
			}
			funds, err := catalog.NewProvider(logger, sources, historySources(cfg)).LoadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := catalog.NewSQLiteSource(db)
			if err != nil {
				return err
			}
			if err := store.Seed(cmd.Context(), funds); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d funds into %s\n", len(funds), cfg.Catalog.SQLitePath)
			return nil
		},
	}
}
