package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the risk classifier and save it to the model store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			classifier, err := newClassifier(cfg, db, logger)
			if err != nil {
				return err
			}

			accuracy, err := classifier.Train(cmd.Context())
			if err != nil {
				return fmt.Errorf("train risk classifier: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "risk classifier accuracy: %.4f\n", accuracy)
			return nil
		},
	}
}
