package main

import (
	"context"

	"nutribruin-backend/cmd/dining-cli/commands"
	"nutribruin-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "dining-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
