// Command shopctl runs maintenance tasks against the shop database: schema
// migration and offline superadmin bootstrap.
package main

import (
	"fmt" // Formatting
	"os"  // Process exit

	"github.com/spf13/cobra" // CLI commands
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Shop backend maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newCreateSuperAdminCmd())
	return root
}
