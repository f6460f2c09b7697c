package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
)

const (
	chartWidth  = 1000
	chartHeight = 400
)

// ChartImage is one rendered chart. Path is set when the image was
// written to (or served from) the disk cache.
type ChartImage struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	PNG   []byte `json:"-"`
	Path  string `json:"path,omitempty"`
}

// chartDefs fixes the chart set and its order; cache files are named
// after these.
var chartDefs = []struct {
	name  string
	title string
}{
	{"elevation_profile", "Yükseklik Profili"},
	{"segment_rate", "Segment Tüketimi (L/100km)"},
	{"cumulative_fuel", "Kümülatif Yakıt (L)"},
	{"zone_costs", "Bölge Bazlı Maliyet (TL)"},
}

// CacheKey identifies this analysis for chart caching. Two analyses with
// the same route, vehicle and period share rendered charts.
func (a *Analysis) CacheKey() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d|%.4f",
		a.Origin, a.Destination, a.Vehicle.ID, a.Period,
		len(a.Points), a.Stats.TotalDistanceKm)
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// RenderCharts renders the full chart set for an analysis.
func RenderCharts(a *Analysis) ([]ChartImage, error) {
	if len(a.Points) < 2 {
		return nil, fuel.ErrInsufficientSamples
	}
	if a.Consumption == nil {
		return nil, fmt.Errorf("consumption analysis is required for charts")
	}

	renderers := []func(*Analysis) ([]byte, error){
		elevationProfilePNG,
		segmentRatePNG,
		cumulativeFuelPNG,
		zoneCostPNG,
	}

	images := make([]ChartImage, 0, len(chartDefs))
	for i, def := range chartDefs {
		png, err := renderers[i](a)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", def.name, err)
		}
		images = append(images, ChartImage{Name: def.name, Title: def.title, PNG: png})
	}
	return images, nil
}

func renderPNG(c chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// elevationProfilePNG draws elevation against distance with markers on
// the critical-grade sections.
func elevationProfilePNG(a *Analysis) ([]byte, error) {
	distances := a.CumulativeKm()
	elevations := make([]float64, len(a.Points))
	for i, p := range a.Points {
		elevations[i] = p.ElevationM
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Yükseklik",
			XValues: distances,
			YValues: elevations,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2b6cb0"),
				StrokeWidth: 2.5,
				FillColor:   drawing.ColorFromHex("87ceeb").WithAlpha(90),
			},
		},
	}

	if critical := a.CriticalSections(); len(critical) > 0 {
		annotations := make([]chart.Value2, 0, len(critical))
		for _, s := range critical {
			annotations = append(annotations, chart.Value2{
				XValue: s.DistanceKm,
				YValue: s.ElevationM,
				Label:  fmt.Sprintf("%%%.0f", abs(s.GradePercent)),
			})
		}
		series = append(series, chart.AnnotationSeries{
			Annotations: annotations,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("ff0000"),
				FillColor:   drawing.ColorFromHex("ff0000").WithAlpha(32),
			},
		})
	}

	return renderPNG(chart.Chart{
		Title:  "Yükseklik Profili",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: "Mesafe (km)"},
		YAxis:  chart.YAxis{Name: "Yükseklik (m)"},
		Series: series,
	})
}

// segmentRatePNG draws the effective consumption rate over distance.
// The rate at x=0 extends the first segment backwards so single-segment
// routes still chart.
func segmentRatePNG(a *Analysis) ([]byte, error) {
	per := a.Consumption.PerSegment
	if len(per) == 0 {
		return nil, fuel.ErrInsufficientSamples
	}
	distances := a.CumulativeKm()

	xs := make([]float64, 0, len(per)+1)
	ys := make([]float64, 0, len(per)+1)
	first := effectiveRate(per[0])
	xs = append(xs, 0)
	ys = append(ys, first)
	for i, sc := range per {
		x := 0.0
		if i+1 < len(distances) {
			x = distances[i+1]
		}
		xs = append(xs, x)
		ys = append(ys, effectiveRate(sc))
	}

	return renderPNG(chart.Chart{
		Title:  "Segment Tüketimi",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: "Mesafe (km)"},
		YAxis:  chart.YAxis{Name: "Tüketim (L/100km)"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Tüketim",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("dd6b20"),
					StrokeWidth: 2.0,
				},
			},
		},
	})
}

// effectiveRate is the realized L/100km of one segment including the
// grade factor.
func effectiveRate(sc fuel.SegmentConsumption) float64 {
	if sc.Segment.DistanceKm <= 0 {
		return 0
	}
	return sc.FuelLiters / sc.Segment.DistanceKm * 100
}

// cumulativeFuelPNG draws total fuel burned against distance traveled.
func cumulativeFuelPNG(a *Analysis) ([]byte, error) {
	per := a.Consumption.PerSegment
	if len(per) == 0 {
		return nil, fuel.ErrInsufficientSamples
	}
	distances := a.CumulativeKm()

	xs := make([]float64, 0, len(per)+1)
	ys := make([]float64, 0, len(per)+1)
	xs = append(xs, 0)
	ys = append(ys, 0)
	running := 0.0
	for i, sc := range per {
		running += sc.FuelLiters
		x := 0.0
		if i+1 < len(distances) {
			x = distances[i+1]
		}
		xs = append(xs, x)
		ys = append(ys, running)
	}

	return renderPNG(chart.Chart{
		Title:  "Kümülatif Yakıt",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: "Mesafe (km)"},
		YAxis:  chart.YAxis{Name: "Yakıt (L)"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Yakıt",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2f855a"),
					StrokeWidth: 2.5,
					FillColor:   drawing.ColorFromHex("2f855a").WithAlpha(40),
				},
			},
		},
	})
}

// zoneCostPNG draws the per-zone cost breakdown, fuel plus toll.
func zoneCostPNG(a *Analysis) ([]byte, error) {
	res := a.Consumption
	bars := make([]chart.Value, 0, len(res.Zones))
	for _, zone := range res.Zones {
		cost := zone.FuelLiters * res.PricePerLiterTL
		if zone.Toll {
			cost += zone.TollPriceTL
		}
		bars = append(bars, chart.Value{Value: cost, Label: zone.ZoneName})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no traffic zones to chart")
	}

	graph := chart.BarChart{
		Title:    "Bölge Bazlı Maliyet",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 60,
		Bars:     bars,
		YAxis:    chart.YAxis{Name: "Maliyet (TL)"},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Renderer renders chart sets with a disk cache keyed by analysis.
// An empty directory disables caching.
type Renderer struct {
	dir string
}

// NewRenderer creates a renderer caching under dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

func (r *Renderer) cachePath(key, name string) string {
	return filepath.Join(r.dir, fmt.Sprintf("chart_%s_%s.png", key, name))
}

// Render returns the chart set for an analysis, serving cached images
// from disk when the full set is present.
func (r *Renderer) Render(a *Analysis) ([]ChartImage, error) {
	key := a.CacheKey()

	if r.dir != "" {
		if images, ok := r.loadCached(key); ok {
			return images, nil
		}
	}

	images, err := RenderCharts(a)
	if err != nil {
		return nil, err
	}

	if r.dir != "" {
		r.store(key, images)
	}
	return images, nil
}

// loadCached returns the cached chart set if every image is on disk.
func (r *Renderer) loadCached(key string) ([]ChartImage, bool) {
	images := make([]ChartImage, 0, len(chartDefs))
	for _, def := range chartDefs {
		path := r.cachePath(key, def.name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}
		images = append(images, ChartImage{
			Name:  def.name,
			Title: def.title,
			PNG:   data,
			Path:  path,
		})
	}
	return images, true
}

// store writes rendered images to the cache directory. Failures only
// cost the cache, not the response.
func (r *Renderer) store(key string, images []ChartImage) {
	logger := slog.Default().With("component", "report")
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		logger.Warn("chart cache directory unavailable", "dir", r.dir, "error", err)
		return
	}
	for i := range images {
		path := r.cachePath(key, images[i].Name)
		if err := os.WriteFile(path, images[i].PNG, 0o644); err != nil {
			logger.Warn("chart cache write failed", "path", path, "error", err)
			continue
		}
		images[i].Path = path
	}
}
