package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	drivermongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/canteenx/canteen-system/internal/core/ports"
	"github.com/canteenx/canteen-system/internal/core/service"
	"github.com/canteenx/canteen-system/internal/infrastructure/db/mongo"
	"github.com/canteenx/canteen-system/internal/infrastructure/password"
	"github.com/canteenx/canteen-system/internal/pkg/config"
	"github.com/canteenx/canteen-system/pkg/logger"
)

// canteenx indexes: create the MongoDB indexes and exit.
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), cfg, func(db *drivermongo.Database) error {
			if err := mongo.EnsureIndexes(cmd.Context(), db); err != nil {
				return err
			}
			logger.Get().Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
			return nil
		})
	},
}

var newUser ports.RegisterInput

// canteenx create-user: register an account from the shell, typically the first admin.
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Register a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), cfg, func(db *drivermongo.Database) error {
			tokens := service.NewTokenIssuer(service.TokenConfig{
				Secret: cfg.Auth.JWTSecret,
				Issuer: cfg.Auth.JWTIssuer,
				TTL:    cfg.Auth.TokenTTL,
			})
			auth := service.NewAuthService(
				mongo.NewUserRepository(db),
				password.NewBcryptHasher(cfg.Auth.BcryptCost),
				tokens,
				cfg.Auth.TokenTTL,
				logger.Get(),
			)
			res, err := auth.Register(cmd.Context(), newUser)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", res.User.Role, res.User.ID, res.User.Email)
			return nil
		})
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.Name, "name", "", "display name")
	f.StringVar(&newUser.Email, "email", "", "email address")
	f.StringVar(&newUser.CollegeID, "college-id", "", "college id")
	f.StringVar(&newUser.Password, "password", "", "initial password")
	f.StringVar(&newUser.Phone, "phone", "", "phone number")
	f.StringVar(&newUser.Department, "department", "", "department")
	f.StringVar(&newUser.Role, "role", "student", "student, canteen_staff or admin")
}

func withDatabase(ctx context.Context, cfg *config.Config, fn func(db *drivermongo.Database) error) error {
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	return fn(db)
}
