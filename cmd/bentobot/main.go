package main

import (
	"context"

	"bentobot/cmd/bentobot/commands"
	"bentobot/lib/serviceutil"
	"bentobot/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "bentobot")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
