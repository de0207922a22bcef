// emu2mqtt reads the Rainforest EMU-2 serial feed and publishes demand and
// energy usage to MQTT as Home Assistant sensors.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/emu2mqtt/pkg/bridge"
	"github.com/NotCoffee418/emu2mqtt/pkg/config"
	"github.com/NotCoffee418/emu2mqtt/pkg/livefeed"
	"github.com/NotCoffee418/emu2mqtt/pkg/mqttpub"
	"github.com/NotCoffee418/emu2mqtt/pkg/port_reader"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load config
	if err := config.LoadBridgeConfig(); err != nil {
		log.Fatalf("Failed to load bridge config: %v", err)
	}
	cfg := config.ActiveBridgeConfig

	setupLogging(cfg.Debug)
	log.Infof("config set: %s", cfg)

	if err := run(cfg); err != nil {
		log.Fatalf("Bridge stopped: %v", err)
	}
}

func setupLogging(debug bool) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func run(cfg *config.BridgeConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emuReader := port_reader.NewEMUReader(cfg.SerialDevice)
	if err := emuReader.Connect(); err != nil {
		return err
	}
	defer emuReader.Disconnect()

	mqttPublisher, err := mqttpub.Connect(cfg)
	if err != nil {
		return err
	}
	defer mqttPublisher.Disconnect()

	publishers := bridge.MultiPublisher{mqttPublisher}
	if cfg.LiveFeedListen != "" {
		hub := livefeed.NewHub()
		publishers = append(publishers, hub)
		go func() {
			if err := hub.Serve(ctx, cfg.LiveFeedListen); err != nil {
				log.Errorf("Live feed stopped: %v", err)
			}
		}()
	}

	// A blocked serial read may not return on close, so don't wait for it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- bridge.New(emuReader, publishers, cfg.MaxFrameBytes).Run(ctx)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down...")
		return nil
	}
}
