package commands

import (
	"fmt"
	"os"

	"bentobot/lib/serviceutil"

	"github.com/spf13/cobra"
)

var loginForce *bool

func init() {
	loginForce = loginCmd.Flags().Bool("force", false, "Re-login even if the saved session is still valid.")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login [--force]",
	Short: "Logs into the ordering site and saves the session for later commands.",
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient(cmd.Context())

		ok, err := client.EnsureAuthenticated(cmd.Context(), *loginForce)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		if !ok {
			fmt.Println("ログインに失敗しました。認証情報を確認してください。")
			os.Exit(1)
		}
		fmt.Println("ログインしました。")
	},
}
