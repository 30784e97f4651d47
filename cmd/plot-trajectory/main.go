// Command plot-trajectory renders a simulate trace as a static PNG (via
// gonum/plot, grounded on internal/lidar/monitor/gridplotter.go) and an
// interactive HTML scatter (via go-echarts, grounded on
// internal/lidar/monitor/echarts_handlers.go): road geometry, the noisy
// observed fixes, and the estimator's reconstructed mean. The trace's
// confidence-ellipse axes (estMajor/estMinor) are read but not drawn.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lanefinder/roadtrack/internal/graph"
)

type tracePoint struct {
	Time     string       `json:"time"`
	World    graph.Point  `json:"world"`
	EstMean  graph.Point  `json:"estMean"`
	EstMajor graph.Point  `json:"estMajor"`
	EstMinor graph.Point  `json:"estMinor"`
	Edge     graph.EdgeID `json:"edge"`
}

type trace struct {
	Edges  []graph.EdgeSpec `json:"edges"`
	Points []tracePoint     `json:"points"`
}

func loadTrace(path string) (*trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	var t trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	return &t, nil
}

func renderPNG(t *trace, out string) error {
	p := plot.New()
	p.Title.Text = "Vehicle trajectory"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	for _, e := range t.Edges {
		pts := make(plotter.XYs, len(e.Geometry))
		for i, v := range e.Geometry {
			pts[i] = plotter.XY{X: v.X, Y: v.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("edge %v: %w", e.ID, err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	observed := make(plotter.XYs, len(t.Points))
	estimated := make(plotter.XYs, len(t.Points))
	for i, pt := range t.Points {
		observed[i] = plotter.XY{X: pt.World.X, Y: pt.World.Y}
		estimated[i] = plotter.XY{X: pt.EstMean.X, Y: pt.EstMean.Y}
	}

	obsScatter, err := plotter.NewScatter(observed)
	if err != nil {
		return fmt.Errorf("observed scatter: %w", err)
	}
	p.Add(obsScatter)
	p.Legend.Add("observed", obsScatter)

	estLine, err := plotter.NewLine(estimated)
	if err != nil {
		return fmt.Errorf("estimate line: %w", err)
	}
	p.Add(estLine)
	p.Legend.Add("estimate", estLine)

	p.Legend.Top = true
	return p.Save(10*vg.Inch, 8*vg.Inch, out)
}

func renderHTML(t *trace, out string) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Vehicle trajectory"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x (m)"}),
	)

	roadData := make([]opts.ScatterData, 0)
	for _, e := range t.Edges {
		for _, v := range e.Geometry {
			roadData = append(roadData, opts.ScatterData{Value: []interface{}{v.X, v.Y}})
		}
	}
	obsData := make([]opts.ScatterData, 0, len(t.Points))
	estData := make([]opts.ScatterData, 0, len(t.Points))
	for _, pt := range t.Points {
		obsData = append(obsData, opts.ScatterData{Value: []interface{}{pt.World.X, pt.World.Y}})
		estData = append(estData, opts.ScatterData{Value: []interface{}{pt.EstMean.X, pt.EstMean.Y}})
	}

	scatter.AddSeries("road", roadData).
		AddSeries("observed", obsData).
		AddSeries("estimate", estData)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating html output: %w", err)
	}
	defer f.Close()
	return scatter.Render(f)
}

func main() {
	in := flag.String("i", "trace.json", "input trace JSON path")
	png := flag.String("png", "trajectory.png", "output PNG path")
	html := flag.String("html", "trajectory.html", "output HTML path")
	flag.Parse()

	t, err := loadTrace(*in)
	if err != nil {
		log.Fatal(err)
	}

	if err := renderPNG(t, *png); err != nil {
		log.Fatalf("rendering PNG: %v", err)
	}
	if err := renderHTML(t, *html); err != nil {
		log.Fatalf("rendering HTML: %v", err)
	}
	fmt.Printf("wrote %s and %s\n", *png, *html)
}
