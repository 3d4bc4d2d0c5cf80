package main

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/jaam8/vote_tracker/internal/api"
	"github.com/jaam8/vote_tracker/internal/config"
	"github.com/jaam8/vote_tracker/internal/tracker"
	"github.com/mattermost/mattermost-server/v6/model"
	"go.uber.org/zap"
)

// runChat serves /vote commands until ctx is done, reconnecting the
// websocket when Mattermost drops it.
func runChat(ctx context.Context, cfg *config.Config, service api.VoteService, tl api.TimelineView, txTracker *tracker.Tracker, log *zap.Logger) error {
	client := model.NewAPIv4Client(cfg.MmURL)
	client.SetToken(cfg.BotToken)

	user, _, err := client.GetUser("me", "")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	botID := user.Id

	handler := api.New(service, tl, log, client, cfg.ChannelID, cfg.Chain.TxURL)
	txTracker.Watch(handler.OnTxUpdate)

	for {
		webSocketClient, err := dialWebSocket(ctx, cfg)
		if err != nil {
			return err
		}
		webSocketClient.Listen()
		log.Info("listening to mattermost", zap.String("channel_id", cfg.ChannelID))

		closed := false
		for !closed {
			select {
			case <-ctx.Done():
				webSocketClient.Close()
				return nil
			case event, ok := <-webSocketClient.EventChannel:
				if !ok {
					closed = true
					break
				}
				if event.EventType() == model.WebsocketEventPosted {
					log.Debug("new message", zap.String("event", event.EventType()))
					api.HandleMessage(handler, event, botID)
				}
			}
		}
		log.Warn("mattermost websocket closed, reconnecting", zap.Any("error", webSocketClient.ListenError))
		webSocketClient.Close()
	}
}

func dialWebSocket(ctx context.Context, cfg *config.Config) (*model.WebSocketClient, error) {
	return backoff.Retry(ctx, func() (*model.WebSocketClient, error) {
		webSocketClient, err := model.NewWebSocketClient4(cfg.MmWsURL, cfg.BotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to webSocket: %v", err)
		}
		return webSocketClient, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()))
}
