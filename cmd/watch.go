package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/tokenmgmt/models"
)

var (
	watchInterval time.Duration
	watchMetrics  bool
	watchListen   string
	watchOnce     bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [location-id...]",
	Short: "Follow the tokens being served at one or more locations",
	Long: `Poll the currently served tokens of each location and report changes.

With --metrics a Prometheus endpoint is served on metrics.listen exposing
the request metrics of the client and the number of tokens being served
per location.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default watch.interval)")
	watchCmd.Flags().BoolVar(&watchMetrics, "metrics", false, "serve Prometheus metrics")
	watchCmd.Flags().StringVar(&watchListen, "listen", "", "metrics listen address (default metrics.listen)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "poll once and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ids, err := locationsOrDefault(args)
	if err != nil {
		return err
	}

	interval := cfg.Watch.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}
	listen := cfg.Metrics.Listen
	if watchListen != "" {
		listen = watchListen
	}

	w, err := newWatcher(registry, ids, cfg.Watch.Concurrency, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if watchMetrics && !watchOnce {
		srv := &http.Server{
			Addr:              listen,
			Handler:           newMetricsRouter(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info().Str("listen", listen).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()

		logger.Info().
			Ints64("locations", ids).
			Dur("interval", interval).
			Msg("Watching currently served tokens")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := w.poll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if watchOnce {
					return err
				}
				logger.Warn().Err(err).Msg("Poll failed")
			}
			if watchOnce {
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}

// newMetricsRouter serves reg on /metrics and a liveness probe on /healthz
func newMetricsRouter(reg *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

// watcher polls the currently served tokens and reports changes
type watcher struct {
	locations   []int64
	concurrency int
	out         io.Writer

	serving *prometheus.GaugeVec
	polls   *prometheus.CounterVec

	last map[int64]string
}

func newWatcher(reg prometheus.Registerer, locations []int64, concurrency int, out io.Writer) (*watcher, error) {
	w := &watcher{
		locations:   locations,
		concurrency: concurrency,
		out:         out,
		serving: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tokenmgmt",
			Subsystem: "watch",
			Name:      "serving_tokens",
			Help:      "Number of tokens currently being served per location.",
		}, []string{"location"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenmgmt",
			Subsystem: "watch",
			Name:      "polls_total",
			Help:      "Completed polls by result.",
		}, []string{"result"}),
		last: make(map[int64]string),
	}

	for _, c := range []prometheus.Collector{w.serving, w.polls} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register watch metrics: %w", err)
		}
	}
	return w, nil
}

// poll fetches every location once, updates the gauges and prints the
// locations whose served tokens changed since the previous poll
func (w *watcher) poll(ctx context.Context) error {
	results, err := servingByLocation(ctx, w.locations, w.concurrency)
	if err != nil {
		w.polls.WithLabelValues("error").Inc()
		return err
	}
	w.polls.WithLabelValues("success").Inc()

	for i, id := range w.locations {
		numbers := tokenNumbers(results[i])
		w.serving.WithLabelValues(fmt.Sprint(id)).Set(float64(len(numbers)))

		current := strings.Join(numbers, ", ")
		if prev, seen := w.last[id]; seen && prev == current {
			continue
		}
		w.last[id] = current

		if current == "" {
			current = mutedStyle.Render("nobody")
		}
		fmt.Fprintf(w.out, "%s  location %d: now serving %s\n",
			time.Now().Format(time.TimeOnly), id, current)
		logger.Debug().Int64("location", id).Strs("tokens", numbers).Msg("Serving changed")
	}
	return nil
}

// tokenNumbers extracts the token numbers of a currently-serving payload,
// which is either a list of tokens or a single token
func tokenNumbers(p models.Payload) []string {
	recs, ok := p.Records()
	if !ok {
		rec, ok := p.Record()
		if !ok {
			return []string{}
		}
		recs = []models.Record{rec}
	}

	numbers := make([]string, 0, len(recs))
	for _, rec := range recs {
		token := models.NewToken(rec)
		if n, ok := token.TokenNumber(); ok {
			numbers = append(numbers, n)
		} else if id, ok := token.ID(); ok {
			numbers = append(numbers, fmt.Sprintf("#%d", id))
		}
	}
	return numbers
}
