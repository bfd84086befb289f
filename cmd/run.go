package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gesturehook/internal/api"
	"gesturehook/internal/autostart"
	"gesturehook/internal/config"
	"gesturehook/internal/dispatch"
	"gesturehook/internal/display"
	"gesturehook/internal/gesture"
	"gesturehook/internal/input"
	"gesturehook/internal/tray"
	"gesturehook/internal/ui"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the gesture service (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd, opts)
		},
	}
}

func runService(cmd *cobra.Command, opts *rootOptions) error {
	cfgMgr, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()
	log := logrus.WithField("component", "service")
	log.WithField("version", version).Info("gesturehook starting...")

	// Must happen before any coordinate or DPI query
	display.EnableDPIAwareness()

	// The recognizer needs its sink before the server exists, and the
	// server needs the recognizer; disp is assigned before the hook starts.
	var disp *dispatch.Dispatcher
	recognizer := gesture.NewRecognizer(cfg.Gesture.Thresholds, gesture.SinkFunc(func(c gesture.Circle, r gesture.Report) {
		disp.Deliver(c, r)
	}))
	recognizer.SetEnabled(cfg.Gesture.Enabled)

	var hook input.PointerCapture = input.NewHook()

	var server *api.Server
	if cfg.General.APIEnabled {
		server = api.NewServer(cfgMgr, recognizer, hook, version)
		disp = dispatch.New(server, display.System{})
		disp.AddRecorder(server)
	} else {
		disp = dispatch.New(nil, display.System{})
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if err := hook.Start(recognizer); err != nil {
		// Not fatal: status and offline analysis stay available
		log.WithError(err).Error("Circle gestures unavailable for this run")
	} else {
		g.Go(func() error {
			select {
			case <-hook.Done():
				if ctx.Err() == nil {
					log.Warn("Pointer hook thread exited unexpectedly")
				}
			case <-ctx.Done():
			}
			return nil
		})
	}

	if server != nil {
		addr := cfg.General.APIAddr
		g.Go(func() error {
			if err := server.Start(addr); err != nil {
				log.WithError(err).Error("Event server unavailable")
			}
			return nil
		})
	}

	var t *tray.Tray
	var enableItem int
	if cfg.General.ShowTray {
		t, enableItem = buildTray(cfgMgr, cancel)
	}

	// Push config changes made through the API or tray into the live recognizer
	cfgMgr.RegisterChangeCallback(func(c config.Config) {
		applyGestureConfig(recognizer, c)
		if t != nil {
			t.SetItemChecked(enableItem, c.Gesture.Enabled)
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")

		if err := hook.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop pointer hook")
		}
		if server != nil {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			if err := server.Shutdown(sctx); err != nil {
				log.WithError(err).Warn("Event server shutdown")
			}
		}
		if t != nil {
			t.Stop()
		}
		return nil
	})

	log.Info("gesturehook running. Press Ctrl+C to stop.")
	if t != nil {
		// systray wants the main goroutine
		t.Run()
		cancel()
	}

	err = g.Wait()
	recognizer.Wait()
	log.Info("gesturehook stopped")
	return err
}

// buildTray returns the tray and the id of its enable checkbox
func buildTray(cfgMgr *config.Manager, quit context.CancelFunc) (*tray.Tray, int) {
	cfg := cfgMgr.Get()
	log := logrus.WithField("component", "tray")
	t := tray.New("gesturehook", "Circle gestures")

	id := t.AddCheckbox("Enable circle gestures", cfg.Gesture.Enabled, func(checked bool) {
		cfgMgr.Update(func(c *config.Config) { c.Gesture.Enabled = checked })
		if err := cfgMgr.Save(); err != nil {
			log.WithError(err).Warn("Failed to save config")
		}
	})

	if cfg.General.APIEnabled {
		t.AddMenuItem("Open gesture monitor", func() {
			c := cfgMgr.Get().General
			if err := ui.OpenBrowser(ui.MonitorURL(c.APIAddr, c.APIToken)); err != nil {
				log.WithError(err).Warn("Failed to open browser")
			}
		})
	}

	var loginItem int
	loginItem = t.AddCheckbox("Start at login", autostart.IsEnabled(), func(checked bool) {
		if err := autostart.Set(checked); err != nil {
			log.WithError(err).Warn("Failed to change auto-start")
			t.SetItemChecked(loginItem, !checked)
		}
	})

	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		quit()
	})
	return t, id
}

// applyGestureConfig copies the gesture section into the recognizer
func applyGestureConfig(r *gesture.Recognizer, c config.Config) {
	if err := r.SetThresholds(c.Gesture.Thresholds); err != nil {
		logrus.WithError(err).Warn("Ignoring invalid thresholds from config")
	}
	r.SetEnabled(c.Gesture.Enabled)
}
