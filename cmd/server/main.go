package main

import (
	"github.com/lexguard/backend/internal/server"
	"github.com/lexguard/backend/internal/util"
	"github.com/lexguard/backend/pkg/logger"
	"github.com/lexguard/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
