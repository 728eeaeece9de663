package commands

import (
	"context"
	"fmt"
	"os"

	"bentobot/lib/configutil"
	"bentobot/lib/serviceutil"
	"bentobot/lib/telemetry"

	"github.com/spf13/cobra"
)

// Config holds the optional bentobot.json5 settings. Every field has a
// default so the CLI works without a config file.
type Config struct {
	// ordering site, defaults to the production url
	BaseUrl string `json:"base_url"`
	// where login cookies are persisted
	SessionFile string `json:"session_file"`
	// public menu listing page, defaults to the production url
	MenuPage string `json:"menu_page"`
	// sqlite path or libsql url for the menu database
	MenuDb string `json:"menu_db"`
	// directory menu pdfs are cached in
	MenusDir string `json:"menus_dir"`
	// gemini model used for menu extraction
	GeminiModel string `json:"gemini_model"`
}

func readConfig() Config {
	config, err := configutil.ReadConfig[Config]("bentobot.json5")
	if os.IsNotExist(err) {
		return Config{}
	}
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return config
}

var verbose *bool

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging and request/response dumps.")
}

var rootCmd = &cobra.Command{
	Use:   "bentobot",
	Short: "bentobot orders lunch from the sumiyoshi bento site and keeps a local menu database.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
