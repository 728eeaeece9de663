package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"bentobot/lib/scrapers/bento"
	"bentobot/lib/serviceutil"
	"bentobot/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(monthCmd)
}

// walks the three menu slots in form order so the output is stable
func formatOrders(orders map[string]int) string {
	var parts []string
	for i := 0; i < 3; i++ {
		name := bento.MenuSelection(i).String()
		if quantity, ok := orders[name]; ok {
			parts = append(parts, fmt.Sprintf("%s %d個", name, quantity))
		}
	}
	return strings.Join(parts, ", ")
}

var statusCmd = &cobra.Command{
	Use:   "status <date>",
	Short: "Shows what is ordered for a day.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}

		client := createClient(cmd.Context())
		status, err := client.DayStatus(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch order status", err)
		}

		if status.Holiday {
			fmt.Printf("%s は休業日です（%s）。\n", status.Date, status.HolidayLabel)
			return
		}
		if len(status.Orders) == 0 {
			fmt.Printf("%s の注文はありません。\n", status.Date)
			return
		}
		fmt.Printf("%s の注文状況: %s\n", status.Date, formatOrders(status.Orders))
	},
}

var monthCmd = &cobra.Command{
	Use:   "month [month]",
	Short: "Shows the ordering calendar for a month, defaulting to the current one.",
	Run: func(cmd *cobra.Command, args []string) {
		now := timezone.Now()
		year := now.Year()
		month := int(now.Month())
		if len(args) >= 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 1 || parsed > 12 {
				fmt.Fprintln(os.Stderr, "month must be a number between 1 and 12")
				os.Exit(1)
			}
			month = parsed
		}

		client := createClient(cmd.Context())
		days, err := client.MonthStatus(cmd.Context(), year, month)
		if err != nil {
			serviceutil.Fatal("failed to fetch monthly orders", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"日付", "注文", "備考"})
		for _, day := range days {
			if day.Holiday {
				t.AppendRow(table.Row{day.Date, "", day.HolidayLabel})
				continue
			}
			t.AppendRow(table.Row{day.Date, formatOrders(day.Orders), ""})
		}
		t.Render()
	},
}
