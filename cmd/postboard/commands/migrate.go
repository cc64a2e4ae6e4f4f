package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/postboard/config"
	"github.com/d60-Lab/postboard/internal/repository"
	"github.com/d60-Lab/postboard/pkg/database"
	"github.com/d60-Lab/postboard/pkg/logger"
)

// NewMigrateCommand creates the relational tables and, for the mongo post store, its indexes.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.InitDB(cfg)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("relational schema migrated", zap.String("driver", cfg.Database.Driver))

			if cfg.PostStore != config.PostStoreMongo {
				return nil
			}
			ctx := cmd.Context()
			client, err := database.InitMongo(ctx, cfg.Mongo)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
			if err := repository.NewMongoPostRepository(coll).EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("ensure post indexes: %w", err)
			}
			logger.Info("post indexes ensured", zap.String("collection", cfg.Mongo.Collection))
			return nil
		},
	}
}
