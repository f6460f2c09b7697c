package report

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/NERVsystems/fuelmcp/pkg/core"
	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// googleMapsFallbackURL is returned when the route has too few points to
// build a directions link.
const googleMapsFallbackURL = "https://www.google.com/maps/dir/?api=1&origin=0,0&destination=0,0&travelmode=driving"

// maxMapsWaypoints is the waypoint cap of a Google Maps directions URL.
const maxMapsWaypoints = 23

// MapLinks pairs the external map views of one route.
type MapLinks struct {
	GoogleMaps string `json:"google_maps_url"`
	OSMView    string `json:"osm_view_url"`
}

// Links builds both map links for a route polyline.
func Links(points []geo.Location) MapLinks {
	return MapLinks{
		GoogleMaps: GoogleMapsURL(points),
		OSMView:    OSMViewURL(points),
	}
}

func coordParam(p geo.Location) string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// GoogleMapsURL builds a Google Maps directions link for the route. The
// first and last points become origin and destination, with up to
// maxMapsWaypoints intermediate points sampled evenly in between so the
// drawn route follows the analyzed one.
func GoogleMapsURL(points []geo.Location) string {
	if len(points) < 2 {
		return googleMapsFallbackURL
	}

	values := url.Values{}
	values.Set("api", "1")
	values.Set("origin", coordParam(points[0]))
	values.Set("destination", coordParam(points[len(points)-1]))
	values.Set("travelmode", "driving")

	if mid := points[1 : len(points)-1]; len(mid) > 0 {
		n := len(mid)
		if n > maxMapsWaypoints {
			n = maxMapsWaypoints
		}
		waypoints := make([]string, 0, n)
		for i := 0; i < n; i++ {
			waypoints = append(waypoints, coordParam(mid[i*len(mid)/n]))
		}
		values.Set("waypoints", strings.Join(waypoints, "|"))
	}

	return "https://www.google.com/maps/dir/?" + values.Encode()
}

// OSMViewURL builds an openstreetmap.org view centered on the route at
// the deepest zoom that still frames all of it.
func OSMViewURL(points []geo.Location) string {
	if len(points) == 0 {
		return "https://www.openstreetmap.org/#map=1/0.000000/0.000000"
	}

	bbox := geo.NewBoundingBox()
	for _, p := range points {
		bbox.ExtendWithPoint(p.Latitude, p.Longitude)
	}
	center := bbox.Center()
	zoom := core.ZoomForBounds(*bbox, 0, 0)
	return fmt.Sprintf("https://www.openstreetmap.org/#map=%d/%.6f/%.6f",
		zoom, center.Latitude, center.Longitude)
}
