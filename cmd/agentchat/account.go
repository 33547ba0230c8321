package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/auth"
)

func newFlow() *auth.Flow {
	return auth.NewFlow(auth.Config{
		Client:    client,
		Store:     creds,
		Navigator: con,
		Notifier:  con,
	})
}

func loginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = prompt("Username: "); err != nil {
					return err
				}
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := newFlow().Login(ctx, username, password); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]interface{}{"username": username, "logged_in": true})
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when empty)")
	return cmd
}

func registerCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = prompt("Username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = prompt("Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := newFlow().Register(ctx, username, email, password); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]interface{}{"username": username, "logged_in": true})
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (prompted when empty)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := newFlow().Logout(ctx); err != nil {
				return err
			}
			if !jsonOut {
				out.Println("Logged out.")
			}
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := creds.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !c.Valid() {
				return fmt.Errorf("whoami: %w", api.ErrUnauthenticated)
			}
			if jsonOut {
				return printJSON(map[string]interface{}{"username": c.Username, "logged_in": true})
			}
			out.Println("%s", c.Username)
			return nil
		},
	}
}
