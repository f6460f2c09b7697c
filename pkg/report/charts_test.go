package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderCharts(t *testing.T) {
	a := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)
	images, err := RenderCharts(a)
	if err != nil {
		t.Fatalf("RenderCharts: %v", err)
	}
	if len(images) != 4 {
		t.Fatalf("len(images) = %d, want 4", len(images))
	}

	wantNames := []string{"elevation_profile", "segment_rate", "cumulative_fuel", "zone_costs"}
	for i, img := range images {
		if img.Name != wantNames[i] {
			t.Errorf("images[%d].Name = %q, want %q", i, img.Name, wantNames[i])
		}
		if img.Title == "" {
			t.Errorf("images[%d] has no title", i)
		}
		if !bytes.HasPrefix(img.PNG, pngMagic) {
			t.Errorf("images[%d] (%s) is not a PNG", i, img.Name)
		}
		if img.Path != "" {
			t.Errorf("images[%d].Path = %q, want empty without a renderer", i, img.Path)
		}
	}
}

func TestRenderChartsTooFewPoints(t *testing.T) {
	a := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)
	a.Points = a.Points[:1]
	if _, err := RenderCharts(a); !errors.Is(err, fuel.ErrInsufficientSamples) {
		t.Fatalf("err = %v, want ErrInsufficientSamples", err)
	}
}

func TestRenderChartsRequiresConsumption(t *testing.T) {
	a := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)
	a.Consumption = nil
	_, err := RenderCharts(a)
	if err == nil || !strings.Contains(err.Error(), "consumption") {
		t.Fatalf("err = %v, want consumption requirement", err)
	}
}

func TestCacheKey(t *testing.T) {
	a := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)
	b := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("identical analyses produced different keys")
	}
	if len(a.CacheKey()) != 12 {
		t.Errorf("len(key) = %d, want 12", len(a.CacheKey()))
	}

	c := testAnalysis(t, "nissan_qashqai", fuel.Peak)
	if a.CacheKey() == c.CacheKey() {
		t.Errorf("different vehicles share a cache key")
	}
	d := testAnalysis(t, "fiat_egea_dizel", fuel.Offpeak)
	if a.CacheKey() == d.CacheKey() {
		t.Errorf("different periods share a cache key")
	}
}

func TestRendererDiskCache(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)
	a := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)

	first, err := r.Render(a)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("len(first) = %d, want 4", len(first))
	}
	for _, img := range first {
		if img.Path == "" {
			t.Fatalf("image %s has no cache path", img.Name)
		}
		if filepath.Dir(img.Path) != dir {
			t.Errorf("image %s cached outside %s: %s", img.Name, dir, img.Path)
		}
		if _, err := os.Stat(img.Path); err != nil {
			t.Fatalf("cached file missing: %v", err)
		}
	}

	// Overwrite one cached file. A second render must serve the bytes
	// from disk instead of re-rendering.
	marker := []byte("cached-bytes")
	if err := os.WriteFile(first[0].Path, marker, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	second, err := r.Render(a)
	if err != nil {
		t.Fatalf("second Render: %v", err)
	}
	if !bytes.Equal(second[0].PNG, marker) {
		t.Errorf("second render did not come from the disk cache")
	}
	if second[0].Path != first[0].Path {
		t.Errorf("cache path changed between renders: %q vs %q", second[0].Path, first[0].Path)
	}
}

func TestRendererWithoutDirectory(t *testing.T) {
	r := NewRenderer("")
	a := testAnalysis(t, "fiat_egea_dizel", fuel.Peak)

	images, err := r.Render(a)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, img := range images {
		if img.Path != "" {
			t.Errorf("image %s has Path %q, want empty without a cache dir", img.Name, img.Path)
		}
	}
}
