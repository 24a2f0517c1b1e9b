// Command rtcsync reads and sets a DS3231 real-time clock over I2C and keeps
// the host clock in step with it.
//
//	rtcsync read [/dev/i2c-N]         print the RTC time
//	rtcsync write [/dev/i2c-N]        copy the host time into the RTC
//	rtcsync update [/dev/i2c-N]       set the host time from the RTC
//	rtcsync temperature [/dev/i2c-N]  print the RTC die temperature
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/rtcsync/rtcsync/config"
	"github.com/rtcsync/rtcsync/ds3231"
	"github.com/rtcsync/rtcsync/hostclock"
	"github.com/rtcsync/rtcsync/i2cdev"
	"github.com/rtcsync/rtcsync/logging"
)

func main() {
	a := newApp(os.Stdout, openBus, hostclock.System{})
	if err := a.cli().Run(os.Args); err != nil {
		if a.log != nil {
			a.log.WithError(err).Error("rtcsync failed")
		} else {
			fmt.Fprintln(os.Stderr, "rtcsync:", err)
		}
		os.Exit(1)
	}
}

// busOpener acquires the transport for one session; the closer releases it.
type busOpener func(cfg config.BusConfig) (ds3231.Bus, io.Closer, error)

func openBus(cfg config.BusConfig) (ds3231.Bus, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendPeriph:
		p, err := i2cdev.OpenPeriph(cfg.Device, cfg.Address)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		d, err := i2cdev.Open(cfg.Device, cfg.Address)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	}
}

type app struct {
	out  io.Writer
	open busOpener
	host hostclock.Clock

	v         *viper.Viper
	cfg       *config.Config
	log       *logrus.Logger
	logCloser io.Closer
}

func newApp(out io.Writer, open busOpener, host hostclock.Clock) *app {
	return &app{out: out, open: open, host: host}
}

// flagKeys maps global flags onto config keys.
var flagKeys = map[string]string{
	"device":    "bus.device",
	"backend":   "bus.backend",
	"address":   "bus.address",
	"timezone":  "clock.timezone",
	"log-level": "log.level",
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:      "rtcsync",
		Usage:     "read, set and synchronise a DS3231 real-time clock",
		Writer:    a.out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{config.EnvPrefix + "_CONFIG"}},
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "I2C bus device (default /dev/i2c-0)"},
			&cli.StringFlag{Name: "backend", Usage: "bus backend: devfs or periph"},
			&cli.StringFlag{Name: "address", Usage: "7-bit device address (default 0x68)"},
			&cli.StringFlag{Name: "timezone", Usage: "zone the RTC keeps wall-clock time in"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
		},
		Before:   a.before,
		After:    a.after,
		Commands: a.commands(),
	}
}

func (a *app) before(c *cli.Context) error {
	a.v = config.New()
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			a.v.Set(key, c.String(flag))
		}
	}
	cfg, err := config.Load(a.v, c.String("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log, a.logCloser, err = logging.Setup(cfg.Log)
	return err
}

func (a *app) after(*cli.Context) error {
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}
