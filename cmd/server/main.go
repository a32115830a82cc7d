package main

import (
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/server"
	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger/console"

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
