// Package report renders a built Pareto front into files an analyst
// can use directly: JSON for programmatic consumers, CSV for
// spreadsheets, and a PNG/SVG chart of the front itself.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/shaigundersen/Optimization-Project/internal/pareto"
	"github.com/shaigundersen/Optimization-Project/internal/problem"
)

// Document is a self-describing snapshot of one sweep: which problem
// and strategy produced it, when, and the resulting front with any
// warnings the builder collected along the way.
type Document struct {
	Problem     string           `json:"problem"`
	Strategy    string           `json:"strategy"`
	Resolution  int              `json:"resolution"`
	Backend     string           `json:"backend"`
	GeneratedAt time.Time        `json:"generated_at"`
	Objectives  []string         `json:"objectives"`
	Variables   []string         `json:"variables"`
	Points      []pareto.Point   `json:"points"`
	Warnings    []pareto.Warning `json:"warnings,omitempty"`
}

// New assembles a Document for a finished sweep. Column names come
// from the problem definition so the CSV and plot stay readable.
func New(p *problem.Problem, strategy string, resolution int, backend string, front pareto.Front, warnings []pareto.Warning) *Document {
	objectives := make([]string, len(p.Objectives))
	for i, o := range p.Objectives {
		objectives[i] = o.Name
	}
	variables := make([]string, len(p.Variables))
	for i, v := range p.Variables {
		variables[i] = v.Name
	}
	return &Document{
		Problem:     p.Name,
		Strategy:    strategy,
		Resolution:  resolution,
		Backend:     backend,
		GeneratedAt: time.Now().UTC(),
		Objectives:  objectives,
		Variables:   variables,
		Points:      front,
		Warnings:    warnings,
	}
}

// WriteJSON writes the document as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// WriteCSV writes the front as CSV, one row per point. The header
// names the objective columns first, then the decision variables.
func (d *Document) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, d.Objectives...), d.Variables...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("report: write csv header: %w", err)
	}
	row := make([]string, 0, len(header))
	for _, pt := range d.Points {
		row = row[:0]
		row = append(row, formatFloat(pt.O1), formatFloat(pt.O2))
		for _, x := range pt.X {
			row = append(row, formatFloat(x))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return nil
}

// SaveJSON writes the document to path, atomically.
func (d *Document) SaveJSON(path string) error {
	return saveAtomic(path, d.WriteJSON)
}

// SaveCSV writes the front to path as CSV, atomically.
func (d *Document) SaveCSV(path string) error {
	return saveAtomic(path, d.WriteCSV)
}

// SavePlot renders the front as a connected scatter chart and writes
// it to path, atomically. The file extension picks the image format
// (png, svg, pdf, ...).
func (d *Document) SavePlot(path string) error {
	if len(d.Points) == 0 {
		return fmt.Errorf("report: nothing to plot")
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("report: plot path %q has no extension to pick a format from", path)
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s: %s sweep", d.Problem, d.Strategy)
	if len(d.Objectives) == 2 {
		pl.X.Label.Text = d.Objectives[0]
		pl.Y.Label.Text = d.Objectives[1]
	}
	pl.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(d.Points))
	for i, pt := range d.Points {
		xys[i].X = pt.O1
		xys[i].Y = pt.O2
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("report: build plot series: %w", err)
	}
	pl.Add(line, points)

	wt, err := pl.WriterTo(6*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("report: render %s plot: %w", format, err)
	}
	return saveAtomic(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}

// saveAtomic writes through a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func saveAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("report: rename into place: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
