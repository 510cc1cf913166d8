package es

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/security_backend/internal/config"
)

var ErrDisabled = errors.New("elasticsearch is not configured")

// NewClient connects to the cluster named by cfg.ESURL and checks it answers.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*elasticsearch.Client, error) {
	if cfg.ESURL == "" {
		return nil, ErrDisabled
	}
	logger.Info("es_connect", "status", "start", "url", cfg.ESURL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	logger.Info("es_connect", "status", "success")
	return client, nil
}
