package core

import (
	"math"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

const (
	// DefaultTileSize is the size of OSM tiles in pixels
	DefaultTileSize = 256

	// maxSlippyZoom is the deepest zoom level OSM serves
	maxSlippyZoom = 19
)

// LatLonToTile converts latitude, longitude and zoom to tile coordinates
func LatLonToTile(lat, lon float64, zoom int) (x, y int) {
	fx, fy := latLonToTileF(lat, lon, zoom)
	return int(math.Floor(fx)), int(math.Floor(fy))
}

// TileToLatLon converts tile coordinates to latitude, longitude
func TileToLatLon(x, y, zoom int) (lat, lon float64) {
	n := math.Pow(2, float64(zoom))
	lon = float64(x)/n*360.0 - 180.0

	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	lat = latRad * 180.0 / math.Pi

	return lat, lon
}

// latLonToTileF is the fractional form of LatLonToTile, used for
// fitting bounds into a viewport.
func latLonToTileF(lat, lon float64, zoom int) (x, y float64) {
	lat = math.Max(-85.05112878, math.Min(85.05112878, lat))
	n := math.Pow(2, float64(zoom))

	x = (lon + 180.0) / 360.0 * n
	y = (1.0 - math.Log(math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * n

	return x, y
}

// ZoomForBounds returns the deepest zoom level at which the bounding box
// still fits inside a viewport of the given pixel dimensions. Used to build
// map links that frame an entire route.
func ZoomForBounds(bbox geo.BoundingBox, widthPx, heightPx int) int {
	if widthPx <= 0 {
		widthPx = 800
	}
	if heightPx <= 0 {
		heightPx = 600
	}

	for zoom := maxSlippyZoom; zoom >= 1; zoom-- {
		x1, y1 := latLonToTileF(bbox.MaxLat, bbox.MinLon, zoom)
		x2, y2 := latLonToTileF(bbox.MinLat, bbox.MaxLon, zoom)

		wpx := math.Abs(x2-x1) * DefaultTileSize
		hpx := math.Abs(y2-y1) * DefaultTileSize

		if wpx <= float64(widthPx) && hpx <= float64(heightPx) {
			return zoom
		}
	}
	return 1
}
