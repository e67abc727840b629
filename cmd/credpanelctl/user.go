package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credpanel/internal/application"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userEmail == "" || userPassword == "" {
			return errors.New("--email and --password are required")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		name := userName
		if name == "" {
			name = userEmail
		}

		sess, err := a.auth.Register(cmd.Context(), application.RegisterInput{
			Name:     name,
			Email:    userEmail,
			Password: userPassword,
			Role:     userRole,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s Created %s (%s)\n", color.GreenString("✓"), color.GreenString(sess.User.Email), color.YellowString(sess.User.ID))
		fmt.Printf("  %-8s %s\n", "Role:", sess.User.Role)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name (defaults to the email address)")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	userAddCmd.Flags().StringVar(&userRole, "role", "", "role (defaults to Developer)")

	userCmd.AddCommand(userAddCmd)
}
