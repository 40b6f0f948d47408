package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/adapter/dataset"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

var datasetJSON string

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage the interview dataset database",
}

var datasetMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Load the interview JSON file into the entrevistas table",
	Long: `Validate the dataset file and insert every record into the entrevistas
table, creating it if needed. Running it twice inserts the records twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, closeRepo, err := newDatasetUseCase()
		if err != nil {
			return err
		}
		defer closeRepo()

		path := GetConfig().Dataset.JSONPath
		if datasetJSON != "" {
			path = datasetJSON
		}
		n, err := uc.Migrate(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("Inserted %d interviews from %s\n", n, path)
		return nil
	},
}

var datasetStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of stored interviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, closeRepo, err := newDatasetUseCase()
		if err != nil {
			return err
		}
		defer closeRepo()

		n, err := uc.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count interviews: %w", err)
		}
		cfg := GetConfig()
		fmt.Printf("Driver:     %s\n", cfg.Dataset.Driver)
		fmt.Printf("Interviews: %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetMigrateCmd, datasetStatsCmd)
	datasetMigrateCmd.Flags().StringVar(&datasetJSON, "json", "", "dataset file (default from config)")
}

func newDatasetUseCase() (*usecase.DatasetUseCase, func(), error) {
	cfg := GetConfig()
	repo, err := dataset.Open(cfg.Dataset.Driver, cfg.Dataset.DSN)
	if err != nil {
		return nil, nil, err
	}
	return usecase.NewDatasetUseCase(repo), func() { repo.Close() }, nil
}
