package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/knobs/internal/config"
	"github.com/san-kum/knobs/internal/export"
	"github.com/san-kum/knobs/internal/host"
	"github.com/san-kum/knobs/internal/knob"
	"github.com/san-kum/knobs/internal/logging"
	"github.com/san-kum/knobs/internal/metrics"
	"github.com/san-kum/knobs/internal/scenario"
	"github.com/san-kum/knobs/internal/session"
	"github.com/san-kum/knobs/internal/storage"
	"github.com/san-kum/knobs/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	wsAddr     string
	logFile    string
	logLevel   string
	record     bool
	withProm   bool
	theme      string
	contract   string
	// plot / export
	knobID  string
	svgOut  string
	outFile string
	// render
	knobType   string
	family     string
	renderSize int
	angle      float64
	value      float64
	braille    bool
	// replay
	quiet   bool
	workers int
	watch   bool
)

// main registers the commands and runs the root command, which opens the
// terminal page when no subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "knobs",
		Short:         "rotary controls in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPage,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().StringVar(&preset, "preset", "demo", "built-in knob set")
	rootCmd.Flags().StringVar(&wsAddr, "ws-addr", "", "serve the host websocket channel on this address")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "log file (default <data>/knobs.log)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (error, warn, info, debug)")
	rootCmd.Flags().BoolVar(&record, "record", false, "save the session on exit")
	rootCmd.Flags().BoolVar(&withProm, "metrics", false, "expose /metrics next to the websocket channel")
	rootCmd.Flags().StringVar(&theme, "theme", "studio", "color theme")
	rootCmd.Flags().StringVar(&contract, "contract", "", "host payload contract (angle_value, value, angle)")

	listenCmd := &cobra.Command{
		Use:   "listen [url]",
		Short: "print frames from a running host channel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runListen,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [script...]",
		Short: "replay scripted input sequences headlessly",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runReplay,
	}
	replayCmd.Flags().BoolVar(&record, "record", false, "save the pushes as a session")
	replayCmd.Flags().BoolVar(&quiet, "quiet", false, "only print the final values")
	replayCmd.Flags().IntVar(&workers, "workers", 0, "scripts replayed at once (0 = all)")
	replayCmd.Flags().BoolVar(&watch, "watch", false, "replay again whenever a script changes")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list recorded sessions",
		RunE:  listSessions,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [session_id]",
		Short: "plot knob values of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSession,
	}
	plotCmd.Flags().StringVar(&knobID, "knob", "", "plot only this knob")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the plot of --knob as svg")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [session_id]",
		Short: "export session values to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).WriteCSV(os.Stdout, args[0], knobID)
		},
	}
	exportCSVCmd.Flags().StringVar(&knobID, "knob", "", "export only this knob")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [session_id]",
		Short: "export a session to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if outFile != "" {
				return st.ExportJSON(outFile, args[0])
			}
			return st.WriteJSON(os.Stdout, args[0])
		},
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render a knob face as svg",
		RunE:  renderKnob,
	}
	renderCmd.Flags().StringVar(&knobType, "type", config.DefaultKnobType, "knob type (1, 2, 3)")
	renderCmd.Flags().StringVar(&family, "family", config.DefaultFamily, "travel family")
	renderCmd.Flags().IntVar(&renderSize, "size", 200, "image size in pixels")
	renderCmd.Flags().Float64Var(&angle, "angle", 0, "indicator angle in degrees")
	renderCmd.Flags().Float64Var(&value, "value", 0, "render at this value of a 0..100 knob instead of --angle")
	renderCmd.Flags().BoolVar(&braille, "braille", false, "render the terminal braille face instead of vector art")
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in knob sets and families",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				ids := make([]string, len(p.Knobs))
				for i, k := range p.Knobs {
					ids[i] = k.ID
				}
				fmt.Printf("  %-8s %s\n", name, strings.Join(ids, ", "))
			}
			fmt.Println("families:")
			for _, name := range config.ListFamilies() {
				f := config.Families[name]
				fmt.Printf("  %-14s %g..%g\n", name, f.MinAngle, f.MaxAngle)
			}
			fmt.Printf("modes: %s\n", strings.Join(knob.ModeNames(), ", "))
			fmt.Printf("themes: %s\n", strings.Join(viz.ThemeNames(), ", "))
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(preset)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "demo", "built-in knob set")

	rootCmd.AddCommand(listenCmd, replayCmd, sessionsCmd, plotCmd, exportCSVCmd, exportJSONCmd, renderCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the page config: the preset, replaced by --config
// when given, then overridden by flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("ws-addr") {
		cfg.Host.WSAddr = wsAddr
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Host.Metrics = withProm
	}
	if cmd.Flags().Changed("contract") {
		cfg.Host.Contract = contract
	}
	if cmd.Flags().Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = logFile
	}
	if cmd.Flags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(cfg.DataDir, "knobs.log")
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.OpenFile(path, logging.Options{Level: level.String(), Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		rec metrics.Recorder = metrics.NoopRecorder{}
		reg *prom.Registry
		hub *host.Hub
	)
	if cfg.Host.Metrics {
		reg = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}
	if cfg.Host.WSAddr != "" {
		hub = host.NewHub(logger, rec, host.HubConfig{})
		srv := session.NewServer(cfg.Host.WSAddr, cfg.Host.WSPath, hub, reg, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("host server failed", "error", err)
			}
		}()
	}

	rects := viz.Layout(cfg.Knobs)
	s, err := session.New(cfg, session.Options{
		Logger:  logger,
		Metrics: rec,
		Hub:     hub,
		Bounds:  func(i int, _ config.KnobConfig) knob.Rect { return rects[i] },
	})
	if err != nil {
		return err
	}

	opts := []viz.Option{viz.WithTheme(theme)}
	if hub != nil {
		opts = append(opts, viz.WithStatus(func() string {
			return fmt.Sprintf("ws://%s%s  clients %d  pushes %d", cfg.Host.WSAddr, cfg.Host.WSPath, hub.Clients(), s.Recorder().Len())
		}))
	}
	model := viz.New(cfg.Title, cfg.Knobs, s.Page(), opts...)
	if err := viz.Run(model); err != nil {
		return err
	}
	logger.Info("page closed", "values", model.Describe())

	if record {
		id, err := s.Save(storage.New(cfg.DataDir), "tui")
		if errors.Is(err, storage.ErrEmptySession) {
			fmt.Println("nothing recorded")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("session id: %s\n", id)
	}
	return nil
}

func runListen(cmd *cobra.Command, args []string) error {
	url := "ws://" + config.DefaultWSAddr + config.DefaultWSPath
	if len(args) > 0 {
		url = args[0]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("listening on %s\n", url)
	err := host.Listen(ctx, url, func(f host.Frame) {
		switch f.Type {
		case host.FrameHeight:
			fmt.Printf("%s  %-8s %s\n", f.At.Format("15:04:05.000"), f.Knob, f.Type)
		default:
			fmt.Printf("%s  %-8s %-15s %s\n", f.At.Format("15:04:05.000"), f.Knob, f.Type, f.Payload)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runReplay(cmd *cobra.Command, args []string) error {
	if !watch {
		return replayOnce(cmd, args)
	}
	if err := replayOnce(cmd, args); err != nil {
		fmt.Println("error:", err)
	}

	logger, err := logging.New(logging.Options{Level: slog.LevelWarn.String(), Output: os.Stderr})
	if err != nil {
		return err
	}
	w, err := scenario.NewWatcher(args, 200*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Printf("watching %s\n", strings.Join(args, ", "))
	return w.Run(ctx, func(path string) {
		fmt.Printf("\n%s changed\n", path)
		if err := replayOnce(cmd, []string{path}); err != nil {
			fmt.Println("error:", err)
		}
	})
}

func replayOnce(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return runBatch(cmd, args)
	}
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: slog.LevelWarn.String(), Output: os.Stderr})
	if err != nil {
		return err
	}

	rec := host.NewRecorder()
	seen := 0
	opts := scenario.Options{
		Recorder: rec,
		Host:     func(id string) host.Host { return host.NewLogHost(logger, id) },
	}
	if !quiet {
		opts.OnStep = func(i int, st scenario.Step, snap knob.Snapshot) {
			pushes := rec.Pushes()
			for _, p := range pushes[seen:] {
				if p.Kind == host.KindFrameHeight {
					fmt.Printf("  %-8s frame_height\n", p.Knob)
					continue
				}
				fmt.Printf("  %-8s %s\n", p.Knob, host.Payload{Angle: p.Angle, Value: p.Value})
			}
			seen = len(pushes)
			fmt.Printf("step %d %-11s %-8s angle=%.2f value=%s\n", i+1, st.Action, st.Knob, snap.Angle, strconv.FormatFloat(snap.Value, 'g', -1, 64))
		}
	}

	res, err := scenario.Run(cmd.Context(), sc, opts)
	if err != nil {
		return err
	}
	printResult(sc, res)
	return saveReplay(sc, res)
}

func runBatch(cmd *cobra.Command, paths []string) error {
	scs := make([]*scenario.Scenario, len(paths))
	for i, path := range paths {
		sc, err := scenario.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		scs[i] = sc
	}

	results, errs := scenario.NewBatch(scs, workers).Run(cmd.Context())
	failed := 0
	for i, sc := range scs {
		if errs[i] != nil {
			fmt.Printf("%s: FAIL %v\n", paths[i], errs[i])
			failed++
			continue
		}
		printResult(sc, results[i])
		if err := saveReplay(sc, results[i]); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(scs))
	}
	return nil
}

func printResult(sc *scenario.Scenario, res *scenario.Result) {
	ids := make([]string, 0, len(res.Final))
	for id := range res.Final {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Printf("%s: %d steps, %d pushes\n", sc.Name, res.Steps, len(res.Pushes))
	for _, id := range ids {
		snap := res.Final[id]
		fmt.Printf("  %-8s angle=%.2f value=%g\n", id, snap.Angle, snap.Value)
	}
}

func saveReplay(sc *scenario.Scenario, res *scenario.Result) error {
	if !record {
		return nil
	}
	knobs := make([]config.KnobConfig, len(sc.Knobs))
	for i, k := range sc.Knobs {
		knobs[i] = k.KnobConfig
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(sc.Name, "replay", storage.DescribeKnobs(knobs), res.Pushes)
	if err != nil {
		return err
	}
	fmt.Printf("session id: %s\n", id)
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	sessions, err := st.List()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSOURCE\tTIME\tDURATION\tPUSHES\tKNOBS")
	for _, s := range sessions {
		ids := make([]string, len(s.Knobs))
		for i, k := range s.Knobs {
			ids[i] = k.ID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%d\t%s\n",
			s.ID,
			s.Title,
			s.Source,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.Duration,
			s.Pushes,
			strings.Join(ids, ","),
		)
	}
	return w.Flush()
}

func plotSession(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	pushes, err := st.LoadPushes(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("session: %s\n", meta.ID)
	fmt.Printf("title: %s\n", meta.Title)
	fmt.Printf("pushes: %d\n\n", meta.Pushes)

	plotted := 0
	for _, k := range meta.Knobs {
		if knobID != "" && k.ID != knobID {
			continue
		}
		values, times := storage.Series(pushes, k.ID)
		if len(values) == 0 {
			continue
		}
		graph := asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.LowerBound(k.MinValue),
			asciigraph.UpperBound(k.MaxValue),
			asciigraph.Caption(fmt.Sprintf("%s (%s)", k.Title, k.Mode)),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++

		if svgOut != "" && k.ID == knobID {
			svg := export.SeriesToSVG(times, values, 800, 300, "#00d7ff")
			if svg == "" {
				return fmt.Errorf("not enough samples for svg")
			}
			if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", svgOut)
		}
	}
	if plotted == 0 {
		return fmt.Errorf("no data to plot")
	}
	if svgOut != "" && knobID == "" {
		return fmt.Errorf("--svg needs --knob")
	}
	return nil
}

func renderKnob(cmd *cobra.Command, args []string) error {
	fam, ok := config.Families[family]
	if !ok {
		return fmt.Errorf("%w: %s", config.ErrUnknownFamily, family)
	}
	if _, ok := config.KnobTypes[knobType]; !ok {
		return fmt.Errorf("%w: %s", config.ErrUnknownKnobType, knobType)
	}

	a := angle
	if cmd.Flags().Changed("value") {
		kc := config.DefaultKnob("render")
		kc.Family = family
		kc.InitialValue = config.Float(value)
		engine, err := kc.Build()
		if err != nil {
			return err
		}
		a = engine.ValueToAngle(value)
	}
	a = knob.Clamp(a, fam.MinAngle, fam.MaxAngle)

	var out string
	if braille {
		c := viz.NewCanvas(renderSize/8, renderSize/16)
		viz.Face{KnobType: knobType, MinAngle: fam.MinAngle, MaxAngle: fam.MaxAngle}.Draw(c, a)
		out = export.CanvasToSVG(c, 4, "#00ff00")
	} else {
		out = export.KnobToSVG(knobType, renderSize, a, fam.MinAngle, fam.MaxAngle)
	}

	if outFile == "" {
		fmt.Println(out)
		return nil
	}
	return os.WriteFile(outFile, []byte(out), 0644)
}
