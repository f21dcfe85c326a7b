// Package replay implements the trace replay command, which runs a recorded
// trace through a full monitoring session on a simulated clock.
package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/drivesense/internal/clock"
	"github.com/tphakala/drivesense/internal/conf"
	"github.com/tphakala/drivesense/internal/location"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/observability"
	"github.com/tphakala/drivesense/internal/resolver"
	"github.com/tphakala/drivesense/internal/session"
	"github.com/tphakala/drivesense/internal/trace"
	"github.com/tphakala/drivesense/internal/trigger"
)

// Options select which replay sensors exist and what to produce.
type Options struct {
	NoTrigger  bool
	NoSampler  bool
	NoLocation bool
	// Tail advances the clock past the last record so timers can fire.
	Tail time.Duration
	// TrackPath receives the accepted fixes as GeoJSON when set.
	TrackPath string
	// Serve keeps the metrics endpoint up after the replay until interrupted.
	Serve bool
}

// Summary is the outcome of a replay.
type Summary struct {
	SessionID string
	Stats     trace.Stats
	State     motion.MovementState
	Label     motion.DebouncedState
	Estimate  location.SpeedEstimate
	Degraded  bool
}

// Command creates the replay command.
func Command(settings *conf.Settings) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "replay [trace.jsonl]",
		Short: "Replay a recorded trace through a monitoring session",
		Long: `Replay feeds recorded samples, fixes, trigger events and vehicle signals
through the trigger controller, location processor and state resolver on a
simulated clock, printing every confirmed transition and state change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening trace: %w", err)
			}
			tr, err := trace.Read(f)
			f.Close()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := Run(ctx, cmd.OutOrStdout(), tr, settings, opts)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.NoTrigger, "no-trigger", false, "Replay without a hardware significant-motion trigger")
	cmd.Flags().BoolVar(&opts.NoSampler, "no-sampler", false, "Replay without the fallback acceleration sampler")
	cmd.Flags().BoolVar(&opts.NoLocation, "no-location", false, "Replay without location fixes")
	cmd.Flags().DurationVar(&opts.Tail, "tail", 0, "Advance the clock this long after the last record")
	cmd.Flags().StringVar(&opts.TrackPath, "track", "", "Write accepted fixes as GeoJSON to this file")
	cmd.Flags().BoolVar(&opts.Serve, "serve", false, "Keep serving metrics after the replay until interrupted")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", settings.Metrics.Enabled, "Enable the Prometheus metrics endpoint")
	cmd.Flags().StringVar(&settings.Metrics.Listen, "listen", settings.Metrics.Listen, "Listen address of the metrics endpoint")

	return cmd
}

// Run replays tr and reports to out as events happen.
func Run(ctx context.Context, out io.Writer, tr *trace.Trace, settings *conf.Settings, opts Options) (Summary, error) {
	clk := clock.NewFake(tr.Start())

	var (
		trig    *trace.Trigger
		sampler *trace.Sampler
		loc     *trace.LocationProvider
		sensors = session.Sensors{Clock: clk}
	)
	if !opts.NoTrigger {
		trig = trace.NewTrigger(true)
		sensors.Trigger = trig
	}
	if !opts.NoSampler {
		sampler = trace.NewSampler(true)
		sensors.Sampler = sampler
	}
	if !opts.NoLocation {
		loc = trace.NewLocationProvider()
		sensors.Location = loc
	}

	var m *observability.Metrics
	if settings.Metrics.Enabled {
		var err error
		if m, err = observability.NewMetrics(); err != nil {
			return Summary{}, err
		}
		m.CountErrors()
	}

	mon, err := session.New(settings, sensors, m)
	if err != nil {
		return Summary{}, err
	}
	closed := false
	defer func() {
		if !closed {
			_ = mon.Close()
		}
	}()

	track := &trace.Track{}
	mon.Processor().AddObserver(track.Observe)
	subscribeReport(out, clk, mon)

	if err := mon.Start(ctx); err != nil {
		return Summary{}, err
	}
	settle := func() { mon.Controller().Sync(ctx) }
	settle()

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if m != nil {
		endpoint, err := observability.NewEndpoint(settings.Metrics.Listen, m)
		if err != nil {
			return Summary{}, err
		}
		g.Go(func() error { return endpoint.Run(serveCtx) })
	}

	var stats trace.Stats
	g.Go(func() error {
		if !opts.Serve {
			defer stopServing()
		}
		player := trace.NewPlayer(tr, clk, trace.Options{
			Trigger:  trig,
			Sampler:  sampler,
			Location: loc,
			Vehicle:  mon.SetVehicleSignal,
			Settle:   settle,
			Tail:     opts.Tail,
		})
		var err error
		stats, err = player.Run(gctx)
		return err
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return Summary{}, err
	}

	summary := Summary{
		SessionID: mon.SessionID(),
		Stats:     stats,
		State:     mon.State(),
		Label:     mon.Controller().State(),
		Estimate:  mon.Processor().Estimate(),
		Degraded:  mon.Controller().Status().Degraded,
	}

	// drains the subscribers so every event is reported before returning
	closed = true
	if err := mon.Close(); err != nil {
		return summary, err
	}

	if opts.TrackPath != "" {
		data, err := track.MarshalGeoJSON()
		if err != nil {
			return summary, err
		}
		if err := os.WriteFile(opts.TrackPath, data, 0o644); err != nil {
			return summary, fmt.Errorf("error writing track: %w", err)
		}
	}
	return summary, nil
}

func subscribeReport(out io.Writer, clk clock.Clock, mon *session.Monitor) {
	var mu sync.Mutex
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format, args...)
	}

	mon.SubscribeTransitions(func(t motion.LabelTransition) {
		report("%s  label     %s -> %s\n", t.At.Format(time.TimeOnly), t.From, t.To)
	})
	mon.Subscribe(func(c resolver.StateChange) {
		report("%s  state     moving=%t vehicle=%t (speed %.1f m/s, label %s)\n",
			clk.Now().Format(time.TimeOnly), c.Current.Moving, c.Current.VehicleMoving,
			c.Inputs.Speed, c.Inputs.Label)
	})
	mon.AddMotionListener(trigger.ListenerFuncs{
		Detected: func() { report("%s  motion    detected\n", clk.Now().Format(time.TimeOnly)) },
		Stopped:  func() { report("%s  motion    stopped\n", clk.Now().Format(time.TimeOnly)) },
	})
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nsession %s\n", s.SessionID)
	fmt.Fprintf(w, "  samples   %d delivered, %d dropped\n", s.Stats.Samples, s.Stats.SamplesDropped)
	fmt.Fprintf(w, "  fixes     %d delivered, %d dropped\n", s.Stats.Fixes, s.Stats.FixesDropped)
	fmt.Fprintf(w, "  triggers  %d delivered, %d dropped\n", s.Stats.Triggers, s.Stats.TriggersDropped)
	fmt.Fprintf(w, "  label     %s since %s\n", s.Label.Current, s.Label.Since.Format(time.RFC3339))
	fmt.Fprintf(w, "  speed     %.2f m/s\n", s.Estimate.Estimate)
	fmt.Fprintf(w, "  state     moving=%t vehicle=%t\n", s.State.Moving, s.State.VehicleMoving)
	if s.Degraded {
		fmt.Fprintln(w, "  degraded: no trigger and no sampler")
	}
}
