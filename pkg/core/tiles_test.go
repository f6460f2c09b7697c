package core

import (
	"math"
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

func TestLatLonTileRoundTrip(t *testing.T) {
	const zoom = 12
	lat, lon := 41.0082, 28.9784

	x, y := LatLonToTile(lat, lon, zoom)
	backLat, backLon := TileToLatLon(x, y, zoom)

	// The tile corner must be within one tile of the input point
	tileSpanLon := 360.0 / math.Pow(2, zoom)
	if math.Abs(backLon-lon) > tileSpanLon {
		t.Errorf("longitude drift %f exceeds tile span %f", math.Abs(backLon-lon), tileSpanLon)
	}
	if math.Abs(backLat-lat) > 1.0 {
		t.Errorf("latitude drift %f too large", math.Abs(backLat-lat))
	}
}

func TestZoomForBounds(t *testing.T) {
	tests := []struct {
		name    string
		bbox    geo.BoundingBox
		minZoom int
		maxZoom int
	}{
		{
			name: "city block",
			bbox: geo.BoundingBox{
				MinLat: 41.0072, MinLon: 28.9774,
				MaxLat: 41.0092, MaxLon: 28.9794,
			},
			minZoom: 14,
			maxZoom: 19,
		},
		{
			name: "cross-city route",
			bbox: geo.BoundingBox{
				MinLat: 40.97, MinLon: 28.70,
				MaxLat: 41.20, MaxLon: 29.40,
			},
			minZoom: 8,
			maxZoom: 12,
		},
		{
			name: "whole country",
			bbox: geo.BoundingBox{
				MinLat: 36.0, MinLon: 26.0,
				MaxLat: 42.0, MaxLon: 45.0,
			},
			minZoom: 1,
			maxZoom: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zoom := ZoomForBounds(tt.bbox, 800, 600)
			if zoom < tt.minZoom || zoom > tt.maxZoom {
				t.Errorf("ZoomForBounds = %d, want between %d and %d", zoom, tt.minZoom, tt.maxZoom)
			}

			// The box must actually fit at the returned zoom
			x1, y1 := latLonToTileF(tt.bbox.MaxLat, tt.bbox.MinLon, zoom)
			x2, y2 := latLonToTileF(tt.bbox.MinLat, tt.bbox.MaxLon, zoom)
			if math.Abs(x2-x1)*DefaultTileSize > 800 {
				t.Errorf("width overflows viewport at zoom %d", zoom)
			}
			if math.Abs(y2-y1)*DefaultTileSize > 600 {
				t.Errorf("height overflows viewport at zoom %d", zoom)
			}
		})
	}
}

func TestZoomForBoundsDefaultViewport(t *testing.T) {
	bbox := geo.BoundingBox{MinLat: 41.0, MinLon: 29.0, MaxLat: 41.01, MaxLon: 29.01}
	if got := ZoomForBounds(bbox, 0, 0); got < 1 || got > 19 {
		t.Errorf("ZoomForBounds with zero viewport = %d, out of range", got)
	}
}
