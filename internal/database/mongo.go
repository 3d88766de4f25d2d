// server/internal/database/mongo.go
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"reagent-inventory-api-server/config"
)

// Connect opens the client, applies the credential file when one is configured,
// and pings the primary so a bad URI fails at startup rather than on first scan.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.CredentialsFile != "" {
		creds, err := config.LoadMongoCredentials(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		if creds.HasAccount() {
			opts.SetAuth(options.Credential{
				Username:   creds.Username,
				Password:   creds.Password,
				AuthSource: creds.AuthSource,
			})
		}
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}
