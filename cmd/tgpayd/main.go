package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arkade-os/tgpay/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version will be set during build time
var Version string

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "tgpayd"
	app.Usage = "telegram handle payments ledger and operator"
	app.Flags = config.Flags
	app.Action = mainAction
	app.Commands = cli.Commands{
		readUpdatesCmd,
		purgeCmd,
		registerSendCmd,
		queryCmd,
	}
	return app
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}
	log.SetLevel(log.Level(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}
	return cfg, nil
}

func mainAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log.Debugf("tgpayd config: %s", cfg)

	reporterSvc, err := cfg.ReporterService()
	if err != nil {
		return fmt.Errorf("failed to create reporter: %s", err)
	}
	operatorSvc, err := cfg.OperatorService()
	if err != nil {
		return fmt.Errorf("failed to create operator: %s", err)
	}
	ledgerSvc, err := cfg.LedgerService()
	if err != nil {
		return fmt.Errorf("failed to create ledger: %s", err)
	}

	info := ledgerSvc.GetInfo()
	log.WithFields(log.Fields{
		"address":        info.Address,
		"auth_mode":      info.AuthMode,
		"allowed_denoms": info.AllowedDenoms,
	}).Info("ledger ready")

	log.Info("starting service...")
	if reporterSvc != nil {
		if err := reporterSvc.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start reporter: %s", err)
		}
	}
	if err := operatorSvc.Start(); err != nil {
		return fmt.Errorf("failed to start operator: %s", err)
	}
	log.Infof("polling updates every %s", cfg.PollInterval)

	log.RegisterExitHandler(func() {
		operatorSvc.Stop()
		if reporterSvc != nil {
			reporterSvc.Stop()
		}
		cfg.Close()
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
	return nil
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}

func normalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}
