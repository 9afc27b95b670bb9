package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arnavgupta/headguard/internal/announce"
	"github.com/arnavgupta/headguard/internal/sensor"
	"github.com/arnavgupta/headguard/internal/store"
)

var sensorFlags struct {
	port      string
	baud      int
	player    string
	team      string
	url       string
	apiKey    string
	threshold float64
	cooldown  time.Duration
	dbPath    string
	simulate  bool
	silent    bool
}

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Bridge a helmet accelerometer into the event stream",
	Long: `Reads magnitude lines from a serial-attached helmet sensor, records
impacts above the G-force threshold, and forwards them to the upstream
tracking API. Use --simulate to generate readings without hardware.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSensor()
	},
}

func init() {
	sensorCmd.Flags().StringVar(&sensorFlags.port, "port", "", "serial port device (e.g. /dev/ttyUSB0)")
	sensorCmd.Flags().IntVar(&sensorFlags.baud, "baud", sensor.DefaultBaudRate, "serial baud rate")
	sensorCmd.Flags().StringVar(&sensorFlags.player, "player", "", "player name attached to impacts")
	sensorCmd.Flags().StringVar(&sensorFlags.team, "team", "", "team name attached to impacts")
	sensorCmd.Flags().StringVar(&sensorFlags.url, "url", "", "upstream tracking API URL")
	sensorCmd.Flags().StringVar(&sensorFlags.apiKey, "api-key", "", "upstream API key")
	sensorCmd.Flags().Float64Var(&sensorFlags.threshold, "threshold", sensor.DefaultThresholdG, "impact threshold in Gs")
	sensorCmd.Flags().DurationVar(&sensorFlags.cooldown, "cooldown", sensor.DefaultCooldown, "minimum time between alerts")
	sensorCmd.Flags().StringVar(&sensorFlags.dbPath, "db", "", "record hits to this SQLite database (default ~/.headguard/headguard.db)")
	sensorCmd.Flags().BoolVar(&sensorFlags.simulate, "simulate", false, "simulate sensor readings without hardware")
	sensorCmd.Flags().BoolVar(&sensorFlags.silent, "silent", false, "disable spoken alerts")
}

func runSensor() error {
	if sensorFlags.player == "" {
		return fmt.Errorf("--player is required")
	}
	if sensorFlags.port == "" && !sensorFlags.simulate {
		return fmt.Errorf("--port is required unless --simulate is set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var src io.Reader
	if sensorFlags.simulate {
		log.Println("Simulating sensor readings")
		src = sensor.SimulatedSource(ctx, 200*time.Millisecond, time.Now().UnixNano())
	} else {
		port, err := sensor.OpenPort(sensorFlags.port, sensorFlags.baud)
		if err != nil {
			return fmt.Errorf("failed to open serial port %s: %w", sensorFlags.port, err)
		}
		defer port.Close()
		src = port
	}

	dbPath := sensorFlags.dbPath
	if dbPath == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		dbPath = filepath.Join(dir, "headguard.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var forwarder *sensor.Forwarder
	if sensorFlags.url != "" {
		forwarder = sensor.NewForwarder(sensor.ForwarderConfig{
			URL:    sensorFlags.url,
			APIKey: sensorFlags.apiKey,
		})
	}

	var announcer announce.Announcer = announce.Noop{}
	if !sensorFlags.silent {
		announcer = announce.NewSpeech()
	}

	cfg := sensor.DefaultConfig()
	cfg.PlayerName = sensorFlags.player
	cfg.Team = sensorFlags.team
	cfg.ThresholdG = sensorFlags.threshold
	cfg.Cooldown = sensorFlags.cooldown

	reader := sensor.NewReader(cfg, src)
	log.Printf("Monitoring %s (%s), threshold %.1fG", cfg.PlayerName, cfg.Team, cfg.ThresholdG)

	err = reader.Run(ctx, func(imp sensor.Impact) {
		log.Printf("Impact: %.2fG for %s", imp.AccelerationG, imp.PlayerName)
		announcer.Announce(announce.HitMessage(imp.PlayerName, imp.AccelerationG))

		hit := &store.SensorHit{
			ID:              uuid.New().String(),
			PlayerName:      imp.PlayerName,
			Team:            imp.Team,
			OccurredAt:      imp.OccurredAt,
			AccelerationG:   imp.AccelerationG,
			AngularVelocity: imp.AngularVelocity,
		}
		if err := st.Hits().Create(hit); err != nil {
			log.Printf("Failed to record hit: %v", err)
		}

		if forwarder == nil {
			return
		}
		if err := forwarder.Send(ctx, imp); err != nil {
			log.Printf("Failed to forward hit: %v", err)
			return
		}
		if hit.ID != "" {
			if err := st.Hits().MarkForwarded(hit.ID); err != nil {
				log.Printf("Failed to mark hit forwarded: %v", err)
			}
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("sensor read failed: %w", err)
	}

	log.Printf("Session summary: %d readings, %d impacts", reader.Readings(), reader.Impacts())
	return nil
}
