package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rtcsync/rtcsync/clocksync"
	"github.com/rtcsync/rtcsync/config"
	"github.com/rtcsync/rtcsync/ds3231"
	"github.com/rtcsync/rtcsync/httpapi"
	"github.com/rtcsync/rtcsync/ntp"
	"github.com/rtcsync/rtcsync/telemetry"
)

// session is one open RTC with the synchroniser built over it.
type session struct {
	sync *clocksync.Syncer
	cfg  *config.Config
	log  logrus.FieldLogger
	out  io.Writer
}

// action is a one-shot operation usable both from the command line and the
// shell. args are whatever followed the command name in the shell.
type action func(ctx context.Context, s *session, args []string) error

var actions = map[string]action{
	"read":        readAction,
	"write":       writeAction,
	"update":      updateAction,
	"temperature": temperatureAction,
	"status":      statusAction,
	"ntp":         ntpAction,
}

func readAction(_ context.Context, s *session, _ []string) error {
	t, err := s.sync.ReadRTC()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Time on RTC:", t.Format(time.ANSIC))
	return nil
}

func writeAction(_ context.Context, s *session, _ []string) error {
	t, err := s.sync.WriteRTC()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Time on RTC:", t.Format(time.ANSIC))
	return nil
}

func updateAction(_ context.Context, s *session, _ []string) error {
	t, err := s.sync.UpdateHost()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "System time set to:", t.Format(time.ANSIC))
	return nil
}

func temperatureAction(_ context.Context, s *session, _ []string) error {
	temp, err := s.sync.Temperature()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Temperature: %.2f C\n", temp)
	return nil
}

func statusAction(_ context.Context, s *session, _ []string) error {
	st, err := s.sync.Status()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Time on RTC:", st.RTCTime.Format(time.ANSIC))
	fmt.Fprintln(s.out, "Host time:  ", st.HostTime.Format(time.ANSIC))
	fmt.Fprintf(s.out, "Drift:       %.0fs\n", st.DriftSeconds)
	fmt.Fprintf(s.out, "Temperature: %.2f C\n", st.TemperatureC)
	if st.LostPower {
		fmt.Fprintln(s.out, "Oscillator stopped since last set; RTC time is not trustworthy")
	}
	return nil
}

// ntpAction sets the RTC from an NTP server; args[0] overrides ntp.server.
func ntpAction(ctx context.Context, s *session, args []string) error {
	server := s.cfg.NTP.Server
	if len(args) > 0 {
		server = args[0]
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NTP.Timeout)
	defer cancel()
	t, err := ntp.Query(ctx, server)
	if err != nil {
		return err
	}
	if err := s.sync.SetRTC(t); err != nil {
		return err
	}
	s.log.WithField("server", server).Info("rtc set from ntp")
	fmt.Fprintln(s.out, "Time on RTC:", t.In(s.sync.Location()).Format(time.ANSIC))
	return nil
}

// withSession opens the RTC named by the config, or by the first positional
// argument when one is given, runs fn and releases the bus.
func (a *app) withSession(c *cli.Context, fn func(*session) error) error {
	bus := a.cfg.Bus
	if c.Args().Present() {
		bus.Device = c.Args().First()
	}
	s, closer, err := a.openSession(bus)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			a.log.WithError(err).Warn("closing bus")
		}
	}()
	return fn(s)
}

func (a *app) openSession(bus config.BusConfig) (*session, io.Closer, error) {
	b, closer, err := a.open(bus)
	if err != nil {
		return nil, nil, err
	}
	loc, err := a.cfg.Clock.Location()
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	dev := ds3231.New(b)
	dev.Configure(ds3231.Config{RereadOnRollover: a.cfg.Clock.RereadOnRollover})
	log := a.log.WithFields(logrus.Fields{"device": bus.Device, "backend": bus.Backend})
	log.Debug("bus opened")
	return &session{
		sync: clocksync.New(dev, a.host, loc, log),
		cfg:  a.cfg,
		log:  log,
		out:  a.out,
	}, closer, nil
}

func (a *app) oneShot(name, usage string) *cli.Command {
	act := actions[name]
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "[/dev/i2c-N]",
		Action: func(c *cli.Context) error {
			return a.withSession(c, func(s *session) error {
				return act(c.Context, s, nil)
			})
		},
	}
}

func (a *app) commands() []*cli.Command {
	return []*cli.Command{
		a.oneShot("read", "print the time held by the RTC"),
		a.oneShot("write", "copy the host time into the RTC and print it back"),
		a.oneShot("update", "set the host time from the RTC"),
		a.oneShot("temperature", "print the RTC die temperature"),
		a.oneShot("status", "print RTC time, drift from the host, temperature and power-loss flag"),
		{
			Name:      "ntp",
			Usage:     "set the RTC from an NTP server",
			ArgsUsage: "[/dev/i2c-N]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "server", Usage: "NTP server (default from ntp.server)"},
			},
			Action: func(c *cli.Context) error {
				var args []string
				if c.IsSet("server") {
					args = []string{c.String("server")}
				}
				return a.withSession(c, func(s *session) error {
					return ntpAction(c.Context, s, args)
				})
			},
		},
		{
			Name:      "monitor",
			Usage:     "publish clock status to MQTT until interrupted",
			ArgsUsage: "[/dev/i2c-N]",
			Action: func(c *cli.Context) error {
				return a.withSession(c, func(s *session) error {
					return a.monitor(c.Context, s)
				})
			},
		},
		{
			Name:      "serve",
			Usage:     "serve the clock over HTTP until interrupted",
			ArgsUsage: "[/dev/i2c-N]",
			Action: func(c *cli.Context) error {
				return a.withSession(c, func(s *session) error {
					return a.serve(c.Context, s)
				})
			},
		},
		{
			Name:      "shell",
			Usage:     "run commands interactively against one open RTC",
			ArgsUsage: "[/dev/i2c-N]",
			Action: func(c *cli.Context) error {
				return a.withSession(c, func(s *session) error {
					return runShell(c.Context, s, os.Stdin)
				})
			},
		},
	}
}

func (a *app) monitor(ctx context.Context, s *session) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	p, err := telemetry.Dial(a.cfg.MQTT, s.log)
	if err != nil {
		return err
	}
	defer p.Close()
	err = telemetry.Run(ctx, s.sync, p, a.cfg.MQTT.Interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) serve(ctx context.Context, s *session) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.New(s.sync, s.log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", a.cfg.HTTP.Addr).Info("http listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
