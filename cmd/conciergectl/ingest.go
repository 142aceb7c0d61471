package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/factory"
	"github.com/ab7289/dining-concierge/internal/ingest"
	"github.com/ab7289/dining-concierge/internal/logger"
)

func init() {
	var location, cuisine string
	var limit int
	var persist bool

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Pull restaurants from the business search API into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("conciergectl")

			cfg, err := config.New()
			if err != nil {
				return err
			}
			if cfg.BusinessAPIKey == "" {
				return fmt.Errorf("CONCIERGE_BUSINESS_API_KEY is required for ingestion")
			}

			client := ingest.NewClient(ingest.ClientConfig{
				BaseURL: cfg.BusinessAPIURL,
				APIKey:  cfg.BusinessAPIKey,
			})

			if !persist {
				businesses, err := client.SearchBusinesses(cmd.Context(), location, cuisine, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Retrieved %d businesses (dry run, use --persist to write)\n", len(businesses))
				return nil
			}

			st, err := factory.NewStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			ing := ingest.NewIngester(client, st.Restaurants(), log)
			written, err := ing.Run(cmd.Context(), location, cuisine, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Persisted %d restaurants\n", written)
			return nil
		},
	}
	ingestCmd.Flags().StringVarP(&location, "location", "l", "New York City", "The location to search in")
	ingestCmd.Flags().StringVarP(&cuisine, "cuisine", "c", "", "The desired cuisine (required)")
	ingestCmd.Flags().IntVarP(&limit, "limit", "n", 1000, "Maximum businesses to retrieve")
	ingestCmd.Flags().BoolVarP(&persist, "persist", "p", false, "Toggle whether to persist the results in the store")
	_ = ingestCmd.MarkFlagRequired("cuisine")
	rootCmd.AddCommand(ingestCmd)
}
