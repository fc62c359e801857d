// Package cli implements lsctl, the Linguashift command-line client.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dalemusser/linguashift/internal/client"
)

const defaultServer = "http://localhost:8080"

var (
	serverURL       string
	credentialsPath string
)

var rootCmd = &cobra.Command{
	Use:   "lsctl",
	Short: "Command-line client for Linguashift",
	Long: `lsctl talks to a Linguashift server.

Sign in once with "lsctl login", then open a channel in the terminal
composer with "lsctl chat <channelId>" or manage your organization's
glossary with "lsctl glossary".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"server URL (defaults to the one saved at login, then "+defaultServer+")")
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "",
		"credentials file (defaults to the user config directory)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveServer picks the --server flag, then the saved server, then the
// default.
func resolveServer(saved string) string {
	switch {
	case serverURL != "":
		return serverURL
	case saved != "":
		return saved
	default:
		return defaultServer
	}
}

// signedInClient builds a client from the saved credentials.
func signedInClient() (*client.Client, *Credentials, error) {
	store, err := openCredentials()
	if err != nil {
		return nil, nil, err
	}
	creds, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	if creds == nil || creds.Token == "" {
		return nil, nil, fmt.Errorf("not signed in: run \"lsctl login\" first")
	}
	c, err := client.New(resolveServer(creds.Server), client.WithToken(creds.Token))
	if err != nil {
		return nil, nil, err
	}
	return c, creds, nil
}

func openCredentials() (*CredentialStore, error) {
	return NewCredentialStore(credentialsPath)
}
