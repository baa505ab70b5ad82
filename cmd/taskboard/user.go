package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

var (
	userUsername string
	userEmail    string
	userName     string
)

func newTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an API token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			cfg, conn, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			signer, err := auth.NewSigner(cfg.JWTSecret, auth.DefaultTTL)
			if err != nil {
				return err
			}

			token, err := issueToken(conn, signer, userID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func issueToken(conn *gorm.DB, signer *auth.Signer, userID uuid.UUID) (string, error) {
	var user models.User

	if err := conn.Where("id = ?", userID).Take(&user).Error; err != nil {
		return "", fmt.Errorf("load user %s: %w", userID, err)
	}

	return signer.GenerateJWT(user.ID, user.Email)
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := createUser(conn, userUsername, userEmail, userName)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}

	create.Flags().StringVar(&userUsername, "username", "", "unique login name")
	create.Flags().StringVar(&userEmail, "email", "", "unique email address")
	create.Flags().StringVar(&userName, "name", "", "display name")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)

	return cmd
}

func createUser(conn *gorm.DB, username, email, name string) (models.User, error) {
	user := models.User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Name:     strings.TrimSpace(name),
	}

	if user.Username == "" || user.Email == "" {
		return models.User{}, fmt.Errorf("username and email are required")
	}

	if err := conn.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}
