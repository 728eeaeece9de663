package commands

import (
	"context"
	"log/slog"
	"os"

	"bentobot/lib/restyutil"
	"bentobot/lib/scrapers/bento"
	"bentobot/lib/serviceutil"
)

func createClient(ctx context.Context) *bento.Client {
	config := readConfig()

	// a missing BENTO_USER_CD only matters once a fresh login is
	// actually needed, a persisted session can still carry a command
	creds, err := bento.CredentialsFromEnv()
	if err != nil {
		slog.DebugContext(ctx, "no credentials in environment", "err", err)
	}

	sessionFile := config.SessionFile
	if sessionFile == "" {
		sessionFile = os.Getenv("BENTO_SESSION_FILE")
	}

	opts := bento.ClientOptions{
		BaseUrl:     config.BaseUrl,
		SessionFile: sessionFile,
		Credentials: creds,
	}
	if *verbose {
		opts.InstrumentOutput = restyutil.NewFilesystemOutput(".dev/resty/bento")
	}

	client, err := bento.NewClient(ctx, opts)
	if err != nil {
		serviceutil.Fatal("failed to initialize bento client", err)
	}
	return client
}
