package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dalemusser/linguashift/internal/client"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save a token",
	Long: `Sign in with email and password and save the issued token.

The password is read from LINGUASHIFT_PASSWORD when set, otherwise from
the first line of standard input.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openCredentials()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		cmd.Println("Signed out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	store, err := openCredentials()
	if err != nil {
		return err
	}
	saved, err := store.Load()
	if err != nil {
		return err
	}
	server := ""
	if saved != nil {
		server = saved.Server
	}
	server = resolveServer(server)

	password := os.Getenv("LINGUASHIFT_PASSWORD")
	if password == "" {
		cmd.Print("Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
		cmd.Println()
	}

	c, err := client.New(server)
	if err != nil {
		return err
	}
	sess, err := c.Login(cmd.Context(), strings.TrimSpace(loginEmail), password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if sess.Token == "" {
		return fmt.Errorf("login failed: server did not issue a token")
	}

	err = store.Save(Credentials{
		Server:    server,
		Token:     sess.Token,
		Email:     sess.User.Email,
		UserID:    sess.User.ID,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	cmd.Printf("Signed in as %s (%s).\n", sess.User.Name, sess.User.Email)
	return nil
}
