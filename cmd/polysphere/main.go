package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/config"
	"github.com/san-kum/polysphere/internal/curve"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/limitcycle"
	"github.com/san-kum/polysphere/internal/orbit"
	"github.com/san-kum/polysphere/internal/render"
	"github.com/san-kum/polysphere/internal/storage"
	"github.com/san-kum/polysphere/internal/tui"
)

var (
	dataDir   string
	studyFile string
	preset    string
	verbose   bool
	noSave    bool
	// integration overrides
	maxSteps  int
	tolerance float64
	fieldKind string
	// output
	pngPath  string
	svgPath  string
	viewName string
	span     float64
	width    int
	height   int
	terminal bool
	// orbit
	direction int
	extend    int
	// limit cycle
	section     []float64
	grid        float64
	interactive bool
	// curve
	chartName string
)

var packages = []string{
	"polysphere.integrators", "polysphere.solve", "polysphere.chart", "polysphere.field",
	"polysphere.orbit", "polysphere.limitcycle", "polysphere.curve", "polysphere.render",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "polysphere",
		Short: "orbits, separatrices and limit cycles of planar polynomial fields on the Poincaré spheres",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := tracing.LevelError
			if verbose {
				level = tracing.LevelDebug
			}
			for _, p := range packages {
				tracing.Select(p).SetTraceLevel(level)
			}
		},
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".polysphere", "data directory")
	pf.StringVar(&studyFile, "study", "", "study file (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a preset study")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug tracing")
	pf.BoolVar(&noSave, "no-save", false, "do not store the run")
	pf.IntVar(&maxSteps, "steps", 0, "integration steps per curve")
	pf.Float64Var(&tolerance, "tol", 0, "integration tolerance")
	pf.StringVar(&fieldKind, "kind", "", "field to integrate: reduced or original")
	pf.StringVar(&pngPath, "png", "", "write a PNG image")
	pf.StringVar(&svgPath, "svg", "", "write an SVG image")
	pf.StringVar(&viewName, "view", "sphere", "view: sphere, R2, U1, V1, U2, V2")
	pf.Float64Var(&span, "span", 3, "half width of the window for chart views")
	pf.IntVar(&width, "width", 800, "image width")
	pf.IntVar(&height, "height", 800, "image height")
	pf.BoolVar(&terminal, "term", false, "draw in the terminal")

	orbitCmd := &cobra.Command{
		Use:   "orbit [x y]",
		Short: "integrate orbits through plane points",
		Args: cobra.MatchAll(cobra.RangeArgs(0, 2), func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("need both x and y")
			}
			return nil
		}),
		RunE: runOrbits,
	}
	orbitCmd.Flags().IntVar(&direction, "dir", 1, "1 forward, -1 backward")
	orbitCmd.Flags().IntVar(&extend, "extend", 0, "continue each orbit this many times both ways")

	sepCmd := &cobra.Command{
		Use:   "separatrices",
		Short: "integrate every separatrix of the study's singular points",
		RunE:  runSeparatrices,
	}

	lcCmd := &cobra.Command{
		Use:   "limitcycle",
		Short: "search limit cycles along a transverse section",
		RunE:  runLimitCycle,
	}
	lcCmd.Flags().Float64SliceVar(&section, "section", nil, "section x0,y0,x1,y1")
	lcCmd.Flags().Float64Var(&grid, "grid", config.DefaultGrid, "grid spacing")
	lcCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "show progress, press s to stop")

	curveCmd := &cobra.Command{
		Use:   "curve [file]",
		Short: "draw a curve table written by the algebra side",
		Args:  cobra.ExactArgs(1),
		RunE:  runCurve,
	}
	curveCmd.Flags().StringVar(&chartName, "chart", "R2", "chart of the table coordinates")

	fieldCmd := &cobra.Command{
		Use:   "field [x y]",
		Short: "show the field in every chart, evaluated at a plane point",
		Args:  cobra.MaximumNArgs(2),
		RunE:  showField,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata or redraw a run to --png/--svg/--term",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(orbitCmd, sepCmd, lcCmd, curveCmd, fieldCmd, presetsCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render.Warn.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// loadStudy picks the preset, then the study file, then the flags that were
// set explicitly.
func loadStudy(cmd *cobra.Command) (*config.Study, error) {
	var study *config.Study
	switch {
	case studyFile != "":
		s, err := config.Load(studyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load study: %w", err)
		}
		study = s
	case preset != "":
		study = config.GetPreset(preset)
		if study == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		study = config.GetPreset("hopf")
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		study.Integration.MaxSteps = maxSteps
	}
	if flags.Changed("tol") {
		study.Integration.Tolerance = tolerance
	}
	if flags.Changed("kind") {
		study.Field.Kind = fieldKind
	}
	if err := study.Validate(); err != nil {
		return nil, err
	}
	return study, nil
}

// output is the set of renderers asked for on the command line.
type output struct {
	renderer dynamo.Renderer
	finish   func() error
}

func outputs(a *chart.Atlas, title string) (*output, error) {
	v, err := chart.ParseView(viewName)
	if err != nil {
		return nil, err
	}
	win := render.DefaultWindow(a, v, span)
	var multi render.Multi
	var finish []func() error

	if pngPath != "" {
		p, err := render.NewPNG(a, v, win, width, height, title)
		if err != nil {
			return nil, err
		}
		multi = append(multi, p)
		finish = append(finish, func() error {
			if err := p.Save(pngPath); err != nil {
				return err
			}
			fmt.Println(render.KeyValue("png", pngPath))
			return nil
		})
	}
	if svgPath != "" {
		s := render.NewSVG(a, v, win, width, height)
		multi = append(multi, s)
		finish = append(finish, func() error {
			if err := os.WriteFile(svgPath, []byte(s.String()), 0644); err != nil {
				return err
			}
			fmt.Println(render.KeyValue("svg", svgPath))
			return nil
		})
	}
	if terminal {
		b := render.NewBraille(a, v, win, 60, 30)
		multi = append(multi, b)
		finish = append(finish, func() error {
			fmt.Print(b.Render())
			return nil
		})
	}
	return &output{
		renderer: multi,
		finish: func() error {
			for _, f := range finish {
				if err := f(); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

func stepReporter() dynamo.StepReporter {
	if !verbose {
		return nil
	}
	return dynamo.StepReporterFunc(func(h float64) {
		fmt.Fprintf(os.Stderr, "\rh = %-12.3g", h)
	})
}

func save(study *config.Study, command string, curves []*orbit.Curve, summary map[string]float64) error {
	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(study, command, curves, summary)
	if err != nil {
		return err
	}
	fmt.Println(render.KeyValue("run id", runID))
	return nil
}

func summarize(curves []*orbit.Curve) {
	points, degraded := 0, 0
	for _, c := range curves {
		points += c.Len()
		degraded += c.Degraded
	}
	fmt.Println(render.KeyValue("curves", fmt.Sprint(len(curves))))
	fmt.Println(render.KeyValue("points", fmt.Sprint(points)))
	if degraded > 0 {
		fmt.Println(render.Warn.Render(fmt.Sprintf("%d steps accepted above tolerance at the minimum step", degraded)))
	}
}

func runOrbits(cmd *cobra.Command, args []string) error {
	study, err := loadStudy(cmd)
	if err != nil {
		return err
	}
	starts := study.Orbits
	if len(args) == 2 {
		var x, y float64
		if _, err := fmt.Sscan(args[0], &x); err != nil {
			return fmt.Errorf("bad x: %w", err)
		}
		if _, err := fmt.Sscan(args[1], &y); err != nil {
			return fmt.Errorf("bad y: %w", err)
		}
		starts = []config.OrbitStart{{X: x, Y: y, Dir: direction}}
	}
	if len(starts) == 0 {
		return fmt.Errorf("no starting points: give x y or list orbits in the study")
	}

	ev, err := study.Evaluator()
	if err != nil {
		return err
	}
	atlas := chart.New(ev.Sphere())
	out, err := outputs(atlas, study.Name)
	if err != nil {
		return err
	}
	sess, err := study.Session(out.renderer, stepReporter())
	if err != nil {
		return err
	}

	fmt.Println(render.Title.Render("orbits of " + study.Name))
	start := time.Now()
	var curves []*orbit.Curve
	for _, s := range starts {
		c, err := sess.OrbitFrom(s.X, s.Y, s.Dir)
		if err != nil {
			return err
		}
		for i := 0; i < extend; i++ {
			if err := sess.ContinueOrbit(c, 1); err != nil {
				return err
			}
			if err := sess.ContinueOrbit(c, -1); err != nil {
				return err
			}
		}
		curves = append(curves, c)
	}
	fmt.Println(render.KeyValue("elapsed", time.Since(start).Round(time.Millisecond).String()))
	summarize(curves)
	if err := out.finish(); err != nil {
		return err
	}
	return save(study, "orbit", curves, nil)
}

func runSeparatrices(cmd *cobra.Command, args []string) error {
	study, err := loadStudy(cmd)
	if err != nil {
		return err
	}
	sings, err := study.SingularPoints()
	if err != nil {
		return err
	}
	if len(sings) == 0 {
		return fmt.Errorf("study %s has no singular points", study.Name)
	}
	ev, err := study.Evaluator()
	if err != nil {
		return err
	}
	out, err := outputs(chart.New(ev.Sphere()), study.Name)
	if err != nil {
		return err
	}
	sess, err := study.Session(out.renderer, stepReporter())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(render.Title.Render("separatrices of " + study.Name))
	res, err := sess.AllSeparatrices(ctx, sings, nil)
	if err != nil {
		return err
	}
	if res.Aborted {
		fmt.Println(render.Warn.Render("interrupted"))
	}
	summarize(res.Curves)
	if err := out.finish(); err != nil {
		return err
	}
	aborted := 0.0
	if res.Aborted {
		aborted = 1
	}
	return save(study, "separatrices", res.Curves, map[string]float64{"aborted": aborted})
}

func runLimitCycle(cmd *cobra.Command, args []string) error {
	study, err := loadStudy(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("section") {
		if len(section) != 4 {
			return fmt.Errorf("--section needs x0,y0,x1,y1")
		}
		if study.LimitCycle == nil {
			study.LimitCycle = &config.LimitCycleConfig{Grid: grid}
		}
		copy(study.LimitCycle.Section[:], section)
	}
	if cmd.Flags().Changed("grid") && study.LimitCycle != nil {
		study.LimitCycle.Grid = grid
	}
	sec, err := study.Section(limitcycle.DefaultBounds())
	if err != nil {
		return err
	}
	ev, err := study.Evaluator()
	if err != nil {
		return err
	}
	out, err := outputs(chart.New(ev.Sphere()), study.Name)
	if err != nil {
		return err
	}
	// shots are not drawn, only the cycles found
	sess, err := study.Session(nil, nil)
	if err != nil {
		return err
	}

	opts := study.SearchOptions()
	search := func(c dynamo.Canceller, p dynamo.Progress) (limitcycle.Result, error) {
		return limitcycle.Search(sess, sec, opts, c, p)
	}
	var res limitcycle.Result
	if interactive {
		res, err = tui.RunSearch("limit cycles of "+study.Name, sec.Points(), search)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err = search(dynamo.ContextCanceller(ctx), nil)
	}
	if err != nil {
		return err
	}

	fmt.Println(render.Title.Render("limit cycles of " + study.Name))
	if res.Aborted {
		fmt.Println(render.Warn.Render("search stopped"))
	}
	plotDisplacements(res.Displacements)

	var curves []*orbit.Curve
	if len(res.Cycles) == 0 && !res.Aborted {
		fmt.Println(render.Hint.Render("no limit cycle found"))
	}
	for i, c := range res.Cycles {
		fmt.Printf("  %s  (%.6f, %.6f)  r=%.6f\n", render.Good.Render(fmt.Sprintf("#%d", i+1)), c.X, c.Y, math.Hypot(c.X, c.Y))
		c.Curve.Draw(out.renderer)
		curves = append(curves, c.Curve)
	}
	if err := out.finish(); err != nil {
		return err
	}
	return save(study, "limitcycle", curves, map[string]float64{"cycles": float64(len(res.Cycles))})
}

func plotDisplacements(ds []limitcycle.Displacement) {
	var data []float64
	for _, d := range ds {
		if !math.IsNaN(d.Forward) {
			data = append(data, d.Forward)
		}
	}
	if len(data) < 2 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("forward return map displacement along the section"),
	)
	fmt.Println(graph)
	fmt.Println()
}

func runCurve(cmd *cobra.Command, args []string) error {
	study, err := loadStudy(cmd)
	if err != nil {
		return err
	}
	c, err := dynamo.ParseChart(chartName)
	if err != nil {
		return err
	}
	var set curve.Set
	if err := set.ReadFile(args[0], c); err != nil {
		return err
	}
	sp, err := study.SphereKind()
	if err != nil {
		return err
	}
	atlas := chart.New(sp)
	out, err := outputs(atlas, args[0])
	if err != nil {
		return err
	}
	set.Draw(atlas, out.renderer, dynamo.ColorCurve)
	curves := set.Curves(atlas, dynamo.ColorCurve)
	summarize(curves)
	if err := out.finish(); err != nil {
		return err
	}
	return save(study, "curve", curves, nil)
}

func showField(cmd *cobra.Command, args []string) error {
	study, err := loadStudy(cmd)
	if err != nil {
		return err
	}
	ev, err := study.Evaluator()
	if err != nil {
		return err
	}
	fmt.Println(render.Title.Render(study.Name))
	fmt.Println(render.KeyValue("sphere", ev.Sphere().Kind.String()))
	for _, line := range ev.Describe() {
		fmt.Println("  " + line)
	}
	if len(args) < 2 {
		return nil
	}

	var x, y float64
	if _, err := fmt.Sscan(args[0], &x); err != nil {
		return fmt.Errorf("bad x: %w", err)
	}
	if _, err := fmt.Sscan(args[1], &y); err != nil {
		return fmt.Errorf("bad y: %w", err)
	}
	atlas := chart.New(ev.Sphere())
	pt := atlas.R2ToSphere(x, y)
	fmt.Println()
	fmt.Println(render.KeyValue("sphere point", fmt.Sprintf("%.6g", pt)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHART\tZ1\tZ2\tDZ1\tDZ2\tGCF")
	for _, c := range dynamo.Charts() {
		z, ok := atlas.SphereToChart(c, pt)
		if !ok {
			continue
		}
		v := ev.Eval(c, z)
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%+d\n", c, z[0], z[1], v[0], v[1], ev.GCFSign(c, z))
	}
	return w.Flush()
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range config.ListPresets() {
			s := config.GetPreset(name)
			fmt.Printf("  %-16s %s\n", render.Value.Render(name), render.Hint.Render(fmt.Sprintf("%s, P = %s, Q = %s", s.Sphere, s.Field.P.Poly(), s.Field.Q.Poly())))
		}
		return nil
	}
	s := config.GetPreset(args[0])
	if s == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(s)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDY\tCOMMAND\tTIME\tSPHERE\tCURVES\tPOINTS")
	for _, run := range runs {
		sphere := run.Sphere
		if strings.HasPrefix(sphere, "poincare-") {
			sphere = fmt.Sprintf("%s(%d,%d)", sphere, run.Weights[0], run.Weights[1])
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Study,
			run.Command,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			sphere,
			run.Curves,
			run.Points,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if pngPath == "" && svgPath == "" && !terminal {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	curves, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}
	sp := dynamo.PoincareSphere()
	if meta.Sphere != "" && meta.Sphere != dynamo.Poincare.String() {
		sp = dynamo.LyapunovSphere(meta.Weights[0], meta.Weights[1])
	}
	out, err := outputs(chart.New(sp), meta.Study+" "+meta.Command)
	if err != nil {
		return err
	}
	for _, c := range curves {
		c.Draw(out.renderer)
	}
	return out.finish()
}
