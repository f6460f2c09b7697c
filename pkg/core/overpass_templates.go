package core

import (
	"fmt"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// DrivableWaysQuery returns an Overpass query that fetches every way a car
// can drive on within the bounding box, excluding footways, paths, cycleways,
// pedestrian zones, steps and tracks. The recursion step pulls in the node
// coordinates the ways reference.
func DrivableWaysQuery(bbox geo.BoundingBox) string {
	return fmt.Sprintf(`[out:json][timeout:90];
(
  way["highway"]["highway"!="footway"]["highway"!="path"]
      ["highway"!="cycleway"]["highway"!="pedestrian"]
      ["highway"!="steps"]["highway"!="track"]
      (%.6f,%.6f,%.6f,%.6f);
);
out body;
>;
out skel qt;`, bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)
}

// FuelStationsQuery returns an Overpass query for fuel stations around a
// point. Radius is in meters.
func FuelStationsQuery(lat, lon, radius float64) string {
	return NewOverpassBuilder().
		WithCenter(lat, lon, radius).
		WithNode(Tag("amenity", "fuel")).
		WithWay(Tag("amenity", "fuel")).
		Build()
}
