package main

import (
	"github.com/aurelia-app/aurelia/backend/internal/server"
	"github.com/aurelia-app/aurelia/backend/internal/util"
	"github.com/aurelia-app/aurelia/backend/pkg/logger"
	"github.com/aurelia-app/aurelia/backend/pkg/logger/console"

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
