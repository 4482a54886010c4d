// The serve command boots the fake server and runs it until interrupted,
// walking each connecting client through status, login, and the play phase.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mimicraft/mimic/internal/core"
	"github.com/mimicraft/mimic/internal/core/data"
	"github.com/mimicraft/mimic/internal/core/debug"
	"github.com/mimicraft/mimic/internal/server"
)

func ServeCommand(cmd *cobra.Command, args []string) {
	config := core.LoadConfig(ConfigFlag)
	fmt.Println("using configuration file:", ConfigFlag)

	// Change to the config directory so that any relative paths in the
	// config file will resolve.
	if err := os.Chdir(ConfigFlag); err != nil {
		fmt.Println("error changing to config directory:", err)
		os.Exit(1)
	}

	logger, err := core.NewLogger(config)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}

	debug.StartUtilities(logger)

	var db *gorm.DB
	if config.Database.Engine != "" {
		db = initDatabase(config)
		defer func() {
			if err := data.Shutdown(db); err != nil {
				logger.Warn(err)
			}
		}()
	}

	srv, err := server.NewServer(server.Config{
		Hostname:             config.Hostname,
		Port:                 config.Server.Port,
		MinecraftVersion:     config.MinecraftVersion,
		CompressionThreshold: config.Threshold(),
		Motd:                 config.Motd,
		Database:             db,
		Debug:                config.Debugging.PacketLoggingEnabled,
	}, logger)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Ctrl-C lets the session in progress finish; a second one kills the
	// process outright.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		logger.Info("waiting to shut down gracefully...")
		srv.Stop()
		<-interrupts
		fmt.Println("hard exiting (killed)")
		os.Exit(1)
	}()

	if err := srv.Run(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
	fmt.Println("shut down")
}

func initDatabase(config *core.Config) *gorm.DB {
	engine := strings.ToLower(config.Database.Engine)

	var dataSource string
	switch engine {
	case data.EngineSQLite:
		dataSource = config.Database.Filename
		if dataSource == "" {
			dataSource = "mimic.db"
		}
	case data.EnginePostgres:
		dataSource = config.DatabaseURL()
	}

	db, err := data.Initialize(engine, dataSource, config.Logging.LogLevel == "debug")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	return db
}
