package mq

import (
	"context"
	"fmt"
	"strconv"

	"github.com/foodgram/apiserver/types"
	"github.com/goccy/go-json"
)

// RecipeEvents publishes and consumes recipe.published events on one channel.
type RecipeEvents struct {
	mq      *MQ
	channel string
}

func NewRecipeEvents(m *MQ, channel string) *RecipeEvents {
	return &RecipeEvents{mq: m, channel: channel}
}

func (e *RecipeEvents) PublishRecipe(ctx context.Context, event types.RecipeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = e.mq.Publish(ctx, e.channel, data, map[string]string{
		AttrContentType: "application/json",
		AttrOrderingKey: "author-" + strconv.Itoa(event.AuthorID),
	})
	return err
}

// Consume blocks, passing each decoded event to fn until ctx is done.
// Undecodable messages are acknowledged and dropped.
func (e *RecipeEvents) Consume(ctx context.Context, fn func(context.Context, types.RecipeEvent) error, onBadMessage func(Message, error)) error {
	return e.mq.Subscribe(ctx, e.channel, func(ctx context.Context, msg Message) error {
		var event types.RecipeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			if onBadMessage != nil {
				onBadMessage(msg, fmt.Errorf("decode recipe event: %w", err))
			}
			return nil
		}
		return fn(ctx, event)
	})
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRecipe(context.Context, types.RecipeEvent) error { return nil }
