/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/types"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// loadIngredientsCmd loads the ingredient catalog from a JSON file.
var loadIngredientsCmd = &cobra.Command{
	Use:   "load-ingredients <file.json>",
	Short: "Load ingredients into the catalog",
	Long: `Loads a JSON array of {"name": ..., "measurement_unit": ...} objects
into the ingredient catalog. Existing (name, unit) pairs are left untouched,
so the command can be re-run safely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var rows []types.Ingredient
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}

		cfg := config.LoadConfig()
		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		ingredientService := services.NewIngredientService(store.NewIngredientRepository(dbConn))
		result, err := ingredientService.Import(cmd.Context(), rows)
		if err != nil {
			return fmt.Errorf("import ingredients: %w", err)
		}

		logging.Info().
			Int("inserted", result.Inserted).
			Int("existing", result.Existing).
			Int("skipped", result.Skipped).
			Msg("ingredients loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadIngredientsCmd)
}
