// Package session wires a configured page of knobs to its hosts: the
// in-memory recorder, the websocket hub, the log and metrics.
package session

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/knobs/internal/config"
	"github.com/san-kum/knobs/internal/host"
	"github.com/san-kum/knobs/internal/knob"
	"github.com/san-kum/knobs/internal/metrics"
	"github.com/san-kum/knobs/internal/storage"
)

type Options struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// Hub, when set, receives every push for broadcast.
	Hub *host.Hub
	// Bounds positions knob i on the page; nil stacks them 120 units apart.
	Bounds func(i int, k config.KnobConfig) knob.Rect
}

// Session is one live page of knobs.
type Session struct {
	cfg    *config.Config
	page   *knob.Page
	rec    *host.Recorder
	logger *slog.Logger
}

// New validates cfg and builds every knob with a bridge to the session's
// hosts. Knobs are not mounted.
func New(cfg *config.Config, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	contract, err := host.ParseContract(cfg.Host.Contract)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	s := &Session{
		cfg:    cfg,
		page:   knob.NewPage(nil),
		rec:    host.NewRecorder(),
		logger: logger,
	}
	for i, kc := range cfg.Knobs {
		engine, err := kc.Build()
		if err != nil {
			return nil, fmt.Errorf("knob %q: %w", kc.ID, err)
		}
		mode, err := kc.InteractionMode()
		if err != nil {
			return nil, fmt.Errorf("knob %q: %w", kc.ID, err)
		}

		hosts := []host.Host{s.rec.Host(kc.ID), host.NewLogHost(logger, kc.ID)}
		if opts.Hub != nil {
			hosts = append(hosts, opts.Hub.Host(kc.ID))
		}
		bridge := host.NewBridge(kc.ID, host.Join(hosts...),
			host.WithContract(contract),
			host.WithResizeOnChange(cfg.Host.ResizeOnChange),
			host.WithLogger(logger),
			host.WithMetrics(rec),
		)

		bounds := knob.Rect{X: float64(i) * 120, W: 100, H: 100}
		if opts.Bounds != nil {
			bounds = opts.Bounds(i, kc)
		}
		k, err := knob.New(engine, mode, s.page.Document(), knob.WithBounds(bounds), knob.WithObserver(bridge))
		if err != nil {
			return nil, fmt.Errorf("knob %q: %w", kc.ID, err)
		}
		if err := s.page.Add(kc.ID, k); err != nil {
			return nil, err
		}
	}
	logger.Info("session ready", "title", cfg.Title, "knobs", len(cfg.Knobs), "contract", contract)
	return s, nil
}

func (s *Session) Config() *config.Config { return s.cfg }

func (s *Session) Page() *knob.Page { return s.page }

// Recorder holds every host call made so far.
func (s *Session) Recorder() *host.Recorder { return s.rec }

// Save stores the recorded pushes as a new session in store.
func (s *Session) Save(store *storage.Store, source string) (string, error) {
	if err := store.Init(); err != nil {
		return "", err
	}
	id, err := store.Save(s.cfg.Title, source, storage.DescribeKnobs(s.cfg.Knobs), s.rec.Pushes())
	if err != nil {
		return "", err
	}
	s.logger.Info("session saved", "id", id, "pushes", s.rec.Len())
	return id, nil
}
