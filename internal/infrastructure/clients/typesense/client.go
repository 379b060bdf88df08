package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"

	"github.com/portoseguro/backend/pkg/config"
	"github.com/portoseguro/backend/pkg/retry"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.Connect(ctx, retry.DefaultConfig(), "Typesense", func(ctx context.Context) error {
		ok, err := client.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("typesense reported unhealthy")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// NewFromClient wraps an existing typesense client without a health check.
func NewFromClient(client *typesense.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}
