// Package charts renders the contention study charts from a results dataset.
package charts

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/alanwang67/kvsbench/results"
	"github.com/alanwang67/kvsbench/workload"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart is one metric plotted against theta.
type Chart struct {
	Name   string
	Title  string
	YLabel string
	Value  func(results.Row) float64
}

// Charts are rendered by Render, one PNG each.
var Charts = []Chart{
	{"commit_rate", "Transaction Commit Rate vs Contention Level", "Commits per Second",
		func(r results.Row) float64 { return r.CommitsPerSec }},
	{"abort_rate", "Transaction Abort Rate vs Contention Level", "Abort Rate (%)",
		func(r results.Row) float64 { return r.AbortRate }},
	{"ops_rate", "Total Operation Rate vs Contention Level", "Operations per Second",
		func(r results.Row) float64 { return r.OpsPerSec }},
	{"success_rate", "Transaction Success Rate vs Contention Level", "Transaction Success Rate (%)",
		results.Row.SuccessRate},
}

// Series groups rows with a theta by workload, each sorted by theta. Failed
// trials carry no measurements and are left out. Workload names are returned
// sorted.
func Series(rows []results.Row) ([]string, map[string][]results.Row) {
	groups := make(map[string][]results.Row)
	for _, r := range rows {
		if !r.HasTheta || r.TrialFailed() {
			continue
		}
		groups[r.Workload] = append(groups[r.Workload], r)
	}
	names := make([]string, 0, len(groups))
	for name, rs := range groups {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Theta < rs[j].Theta })
		names = append(names, name)
	}
	sort.Strings(names)
	return names, groups
}

func legend(name string) string {
	w := workload.Name(name)
	if d := w.Description(); d != name {
		return name + " (" + d + ")"
	}
	return name
}

// New builds the plot for chart.
func New(chart Chart, rows []results.Row) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = "Theta (Zipfian Skew Parameter)"
	p.Y.Label.Text = chart.YLabel
	p.X.Min, p.X.Max = -0.05, 1.05
	p.Add(plotter.NewGrid())

	names, groups := Series(rows)
	var lines []interface{}
	for _, name := range names {
		rs := groups[name]
		xys := make(plotter.XYs, len(rs))
		for i, r := range rs {
			xys[i].X = r.Theta
			xys[i].Y = chart.Value(r)
		}
		lines = append(lines, legend(name), xys)
	}
	if len(lines) > 0 {
		if err := plotutil.AddLinePoints(p, lines...); err != nil {
			return nil, errors.Wrapf(err, "plotting %s", chart.Name)
		}
	}
	return p, nil
}

// Render writes one PNG per chart next to csvPath and returns their paths.
func Render(csvPath string, rows []results.Row) ([]string, error) {
	base := strings.TrimSuffix(csvPath, filepath.Ext(csvPath))
	var out []string
	for _, c := range Charts {
		p, err := New(c, rows)
		if err != nil {
			return out, err
		}
		path := base + "_" + c.Name + ".png"
		if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
			return out, errors.Wrapf(err, "saving %s", path)
		}
		log.Info("plot saved", "path", path)
		out = append(out, path)
	}
	return out, nil
}
