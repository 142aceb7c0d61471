package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/searchindex"
)

func init() {
	var cuisine string

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Run a cuisine term query against the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			idx, err := searchindex.NewOpenSearchIndex(searchindex.Config{
				BaseURL:   cfg.SearchIndexURL,
				IndexName: cfg.SearchIndexName,
				Username:  cfg.SearchIndexUser,
				Password:  cfg.SearchIndexPassword,
			})
			if err != nil {
				return err
			}
			ids, total, err := idx.SearchByCuisine(cmd.Context(), cuisine)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "total: %d\n", total)
			for _, id := range ids {
				fmt.Fprintln(os.Stdout, id)
			}
			return nil
		},
	}
	searchCmd.Flags().StringVarP(&cuisine, "cuisine", "c", "", "Cuisine term (required)")
	_ = searchCmd.MarkFlagRequired("cuisine")
	rootCmd.AddCommand(searchCmd)
}
