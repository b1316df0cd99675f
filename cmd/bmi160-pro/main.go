// Command bmi160-pro reads a BMI160 IMU over I²C, computes orientation and
// vibration, and publishes readings and tilt/motion alerts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/bus"
	"github.com/Cupra85/bmi160-pro/internal/calib"
	"github.com/Cupra85/bmi160-pro/internal/config"
	"github.com/Cupra85/bmi160-pro/internal/gpio"
	"github.com/Cupra85/bmi160-pro/internal/history"
	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/Cupra85/bmi160-pro/internal/mqtt"
	"github.com/Cupra85/bmi160-pro/internal/status"
	"github.com/Cupra85/bmi160-pro/internal/web"
)

const pruneInterval = time.Hour

func main() {
	configPath := flag.String("config", "/etc/bmi160-pro.yaml", "YAML config file (empty for defaults)")
	printState := flag.Bool("print-state", false, "Print one reading and exit")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config; \"off\" disables)")

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	switch *httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = *httpAddr
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("config %s not found, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}

func run(cfg config.Config, printState bool) error {
	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}

	reader, err := bus.NewRealReader(cfg.Device.I2CBus, cfg.Device.Address, cfg.Device.AccelRangeG, cfg.Device.GyroRangeDPS)
	if err != nil {
		return fmt.Errorf("init bmi160: %w", err)
	}
	defer reader.Close()

	var bias logic.GyroBias
	if n := cfg.GyroBiasSamples; n > 0 && !printState {
		log.Printf("estimating gyro bias from %d samples, keep the sensor still", n)
		cal := logic.NewCalibration(cfg.Device.AccelRangeG, cfg.Device.GyroRangeDPS, logic.GyroBias{})
		calCtx, calStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		res, err := calib.Collect(calCtx, reader, cal, n, cfg.GyroBiasInterval)
		calStop()
		switch {
		case err == nil:
			bias = res.Bias
			log.Printf("gyro bias: x=%.3f y=%.3f z=%.3f °/s (stddev x=%.3f y=%.3f z=%.3f)",
				bias.X, bias.Y, bias.Z, res.StdDev.X, res.StdDev.Y, res.StdDev.Z)
		case errors.Is(err, context.Canceled):
			return nil
		default:
			log.Printf("gyro bias estimation failed, using zero bias: %v", err)
		}
	}

	engine, err := logic.NewEngine(engineCfg, bias)
	if err != nil {
		return err
	}

	if printState {
		rd, err := engine.Tick(time.Now(), reader)
		if err != nil {
			return err
		}
		fmt.Println(formatReading(rd))
		return nil
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Device:                cfg.Device.Name,
		Address:               cfg.Device.Address,
		PollMs:                cfg.UpdateInterval.Milliseconds(),
		HeartbeatMs:           cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:                cfg.MQTT.Broker,
		HTTPAddr:              cfg.HTTP.Addr,
		Outputs:               engineCfg.Outputs.Names(),
		TiltThresholdDeg:      engineCfg.TiltThresholdDeg,
		MotionThresholdMS2:    engineCfg.MotionThresholdMS2,
		VibrationThresholdMS2: engineCfg.VibrationThresholdMS2,
		FilterAlpha:           engineCfg.FilterAlpha,
		TiltSource:            string(engineCfg.TiltSource),
		GyroBias:              bias,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var sinks []logic.Sink
	d := loopDeps{
		reader:    reader,
		engine:    engine,
		tracker:   tracker,
		heartbeat: cfg.MQTT.Heartbeat,
	}

	// MQTT
	if cfg.MQTT.Broker != "" {
		publisher, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			Topics:     mqtt.NewTopics(cfg.Device.Name),
			BufferSize: cfg.MQTT.BufferSize,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		publisher.OnReconnect(func() { tracker.SetMQTTConnected(true) })
		d.publisher = publisher
		d.mqttStatus = publisher
		sinks = append(sinks, publisher)
	}

	// Alert indicator lines
	if pins := cfg.Pins(); pins.Enabled() {
		indicator, err := gpio.NewRealIndicator(cfg.GPIO.Chip, pins)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer indicator.Close()
		sinks = append(sinks, indicator)
	}

	// History
	var hist web.History
	if cfg.History.Path != "" {
		db, err := history.NewDB(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		defer db.Close()
		d.alerts = db
		hist = db
		sinks = append(sinks, db)

		stopPrune := startPruner(db, cfg.History.Retention, pruneInterval)
		defer stopPrune()
	}

	d.router = logic.NewRouter(engineCfg.Outputs, sinks...)

	// Publish startup event with full status snapshot
	if d.publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      mqtt.EventStartup,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
		}
		if err := d.publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event (session %s)", snap.Session)
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		d.live = web.NewBroadcaster()
		srv := web.New(cfg.HTTP.Addr, tracker, d.live, hist)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: device=%s poll=%v outputs=%v broker=%q heartbeat=%v",
		cfg.Device.Name, cfg.UpdateInterval, engineCfg.Outputs.Names(), cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	ticker := time.NewTicker(cfg.UpdateInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, time.Now, ticker.C, sigCh)
}

// alertRecorder stores alert transitions.
type alertRecorder interface {
	RecordAlert(e logic.AlertEvent) error
}

// loopDeps are the collaborators of runLoop. publisher, mqttStatus, alerts,
// tracker and live may be nil.
type loopDeps struct {
	reader     bus.Reader
	engine     *logic.Engine
	router     *logic.Router
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	alerts     alertRecorder
	tracker    *status.Tracker
	live       *web.Broadcaster
	heartbeat  time.Duration
}

func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(now())
	vibrationHigh := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if d.publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     mqtt.EventShutdown,
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.refreshConnection()
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, mqtt.EventShutdown, signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			rd, err := d.engine.Tick(t, d.reader)
			if err != nil {
				log.Printf("bus read error: %v", err)
				if d.tracker != nil {
					d.tracker.RecordBusError(t, err)
				}
				continue
			}

			if d.router != nil {
				if err := d.router.Forward(rd); err != nil {
					log.Printf("output error: %v", err)
					// Don't crash on sink failure
				}
			}

			for _, event := range rd.Events {
				log.Printf("event: %s value=%.3f (tilt=%s motion=%s)", event.Type, event.Value, event.TiltState, event.MotionState)
				if d.publisher != nil {
					if err := d.publisher.PublishAlert(event); err != nil {
						log.Printf("alert publish error: %v", err)
					}
				}
				if d.alerts != nil {
					if err := d.alerts.RecordAlert(event); err != nil {
						log.Printf("alert record error: %v", err)
					}
				}
			}

			if rd.VibrationHigh && !vibrationHigh {
				log.Printf("vibration high: %.3f m/s²", rd.Vibration)
			}
			vibrationHigh = rd.VibrationHigh

			// Update status tracker for HTTP consumers
			if d.tracker != nil {
				d.tracker.Update(rd, d.engine.State(), d.engine.EventCountsSnapshot())
				d.refreshConnection()
			}
			d.live.Publish(rd)

			if d.publisher == nil {
				continue
			}
			if hbData := hb.Check(t, d.heartbeat, d.engine.EventCountsSnapshot()); hbData != nil {
				log.Printf("heartbeat: uptime=%v tilt_on=%d tilt_off=%d motion_on=%d motion_off=%d",
					hbData.Uptime, hbData.Counts.TiltOn, hbData.Counts.TiltOff, hbData.Counts.MotionOn, hbData.Counts.MotionOff)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     mqtt.EventHeartbeat,
				}
				if d.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					snap := d.tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, mqtt.EventHeartbeat, "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func (d loopDeps) refreshConnection() {
	if d.tracker != nil && d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// pruneHistory deletes readings and events older than retention until ctx is done.
// startPruner runs pruneHistory in the background. The returned func stops it
// and waits for an in-flight prune, so the database can be closed after it.
func startPruner(db *history.DB, retention, every time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pruneHistory(ctx, db, retention, every)
	}()
	return func() {
		cancel()
		<-done
	}
}

func pruneHistory(ctx context.Context, db *history.DB, retention, every time.Duration) {
	if retention <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		n, err := db.Prune(time.Now().Add(-retention))
		if err != nil {
			log.Printf("history prune error: %v", err)
		} else if n > 0 {
			log.Printf("history: pruned %d rows", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func formatReading(rd logic.Reading) string {
	o := rd.Orientation
	s := rd.Sample
	return fmt.Sprintf("pitch=%.1f° roll=%.1f° inclination=%.1f° temp=%.1f°C accel=(%.3f, %.3f, %.3f) m/s² gyro=(%.3f, %.3f, %.3f) °/s",
		o.Pitch, o.Roll, o.Inclination, s.Temperature, s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
