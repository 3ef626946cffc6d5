// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "usershub",
	Short: "UsersHub is an identity and permission service",
	Long: `UsersHub is an identity and permission service: it federates
authentication providers (local passwords, CAS, OpenID Connect, LDAP or a
remote UsersHub instance), reconciles external identities into local
accounts and resolves per-application permission levels.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
