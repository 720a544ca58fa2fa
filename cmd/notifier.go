/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/mq"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/types"
	"github.com/spf13/cobra"
)

// notifierCmd fans recipe events out to the author's subscribers.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Notify subscribers about new recipes",
	Long: `Consumes recipe events from the configured broker and emits one
notification per subscriber of the recipe's author. Requires MQ_BACKEND.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		broker, err := mq.New(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer broker.Close()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		subscriptions := store.NewSubscriptionRepository(dbConn)
		events := mq.NewRecipeEvents(broker, cfg.MQ.Channel)

		logging.Info().Str("channel", cfg.MQ.Channel).Str("backend", cfg.MQ.Backend).Msg("notifier started")
		err = events.Consume(ctx, func(ctx context.Context, event types.RecipeEvent) error {
			subscriberIDs, err := subscriptions.SubscriberIDs(ctx, event.AuthorID)
			if err != nil {
				return err
			}
			for _, id := range subscriberIDs {
				logging.Info().
					Int("subscriber_id", id).
					Int("author_id", event.AuthorID).
					Int("recipe_id", event.RecipeID).
					Str("recipe", event.Name).
					Msg("new recipe from followed author")
			}
			return nil
		}, func(msg mq.Message, err error) {
			logging.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed recipe event")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
