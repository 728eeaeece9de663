package commands

import (
	"fmt"
	"os"
	"strings"

	"bentobot/lib/scrapers/menupage"
	"bentobot/lib/serviceutil"
	"bentobot/lib/sqliteutil"
	"bentobot/lib/telemetry"
	"bentobot/services/menu"
	menudb "bentobot/services/menu/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var menuSyncForce *bool
var menuSearchLimit *int

func init() {
	menuSyncForce = menuSyncCmd.Flags().Bool("force", false, "Re-extract pdfs that are already downloaded.")
	menuSearchLimit = menuSearchCmd.Flags().Int("limit", 0, "Maximum number of matches to show, 0 shows all.")

	menuCmd.AddCommand(menuSyncCmd)
	menuCmd.AddCommand(menuShowCmd)
	menuCmd.AddCommand(menuSearchCmd)
	rootCmd.AddCommand(menuCmd)
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Works with the local menu database.",
}

func openMenuService(config Config) (menu.Service, func()) {
	path := config.MenuDb
	if path == "" {
		path = "bentobot.db"
	}
	database, err := sqliteutil.OpenDB(menudb.Schema, path)
	if err != nil {
		serviceutil.Fatal("failed to open menu database", err)
	}
	return menu.NewService(database), func() { database.Close() }
}

var menuSyncCmd = &cobra.Command{
	Use:   "sync [--force]",
	Short: "Downloads the published menu pdfs and extracts them into the local database.",
	Run: func(cmd *cobra.Command, args []string) {
		config := readConfig()
		telemetry.InstrumentPerfStats(cmd.Context())

		store, closeStore := openMenuService(config)
		defer closeStore()

		scraper, err := menupage.NewClient(config.MenuPage)
		if err != nil {
			serviceutil.Fatal("failed to initialize menu page scraper", err)
		}

		pipeline := menu.NewPipeline(scraper, menu.NewExtractor(config.GeminiModel), store)
		report, err := pipeline.Sync(cmd.Context(), menu.SyncOptions{
			Dir:   config.MenusDir,
			Force: *menuSyncForce,
		})
		if err != nil {
			serviceutil.Fatal("failed to sync menus", err)
		}

		fmt.Printf("PDF %d件（新規 %d、スキップ %d）、メニュー %d日分を更新しました。\n",
			report.PDFsFound, report.PDFsDownloaded, report.PDFsSkipped, report.DaysUpserted)
		for _, message := range report.Errors {
			fmt.Fprintln(os.Stderr, message)
		}
		if len(report.Errors) > 0 {
			os.Exit(1)
		}
	},
}

func renderMenuTable(days []menu.MenuDay) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"日付", "あいランチ", "和風ランチ"})
	for _, day := range days {
		t.AppendRow(table.Row{day.Date, day.AiLunch, day.WafuLunch})
	}
	t.Render()
}

var menuShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Shows the stored menu for a day, or every stored day without a date.",
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := openMenuService(readConfig())
		defer closeStore()

		if len(args) < 1 {
			days, err := store.Range(cmd.Context(), "", "")
			if err != nil {
				serviceutil.Fatal("failed to read menus", err)
			}
			if len(days) == 0 {
				fmt.Println("メニューがありません。`bentobot menu sync` を実行してください。")
				return
			}
			renderMenuTable(days)
			return
		}

		date := strings.ReplaceAll(args[0], "/", "-")
		day, found, err := store.Day(cmd.Context(), date)
		if err != nil {
			serviceutil.Fatal("failed to read menu", err)
		}
		if !found {
			fmt.Printf("%s のメニューは見つかりませんでした。\n", date)
			os.Exit(1)
		}
		fmt.Printf("%s のランチメニュー\n", day.Date)
		fmt.Printf("  あいランチ: %s\n", day.AiLunch)
		fmt.Printf("  和風ランチ: %s\n", day.WafuLunch)
	},
}

var menuSearchCmd = &cobra.Command{
	Use:   "search <keyword>...",
	Short: "Searches the stored menus by dish keywords.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		query := strings.Join(args, " ")

		store, closeStore := openMenuService(readConfig())
		defer closeStore()

		matches, err := store.Search(cmd.Context(), query, *menuSearchLimit)
		if err != nil {
			serviceutil.Fatal("failed to search menus", err)
		}
		if len(matches) == 0 {
			fmt.Printf("「%s」に一致するメニューは見つかりませんでした。\n", query)
			return
		}

		days := make([]menu.MenuDay, len(matches))
		for i, match := range matches {
			days[i] = match.MenuDay
		}
		renderMenuTable(days)
	},
}
