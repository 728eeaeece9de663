package commands

import (
	"fmt"
	"os"
	"strconv"

	"bentobot/lib/scrapers/bento"
	"bentobot/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(cancelCmd)
}

var orderCmd = &cobra.Command{
	Use:   "order <date> <menu> [quantity]",
	Short: "Orders lunch for a day. The menu is 和風/あい/その他, quantity defaults to 1.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		quantity := 1
		if len(args) >= 3 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Fprintln(os.Stderr, "quantity must be a number")
				os.Exit(1)
			}
			quantity = parsed
		}

		client := createClient(cmd.Context())
		result, err := client.SubmitOrder(cmd.Context(), bento.OrderRequest{
			Date:      args[0],
			Selection: args[1],
			Quantity:  quantity,
		})
		if err != nil {
			serviceutil.Fatal("failed to submit order", err)
		}
		printOrderResult(result)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <date> <menu>",
	Short: "Cancels the order for a day.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}

		client := createClient(cmd.Context())
		result, err := client.CancelOrder(cmd.Context(), args[0], args[1])
		if err != nil {
			serviceutil.Fatal("failed to cancel order", err)
		}
		printOrderResult(result)
	},
}

func printOrderResult(result bento.OrderResult) {
	fmt.Println(result.Message)
	if !result.Success {
		os.Exit(1)
	}
}
