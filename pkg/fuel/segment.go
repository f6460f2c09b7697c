package fuel

import (
	"errors"
	"math"

	"github.com/NERVsystems/fuelmcp/pkg/geo"
)

// ErrInsufficientSamples is returned when a route carries fewer than two
// usable samples and no segment can be formed.
var ErrInsufficientSamples = errors.New("route must contain at least two samples")

// CriticalGradePercent is the absolute grade above which a segment is
// reported as critical.
const CriticalGradePercent = 20.0

// SamplePoint is one route sample: a position with its elevation.
type SamplePoint struct {
	Location   geo.Location `json:"location"`
	ElevationM float64      `json:"elevation_m"`
}

// RouteSegment is the leg between two consecutive route samples with the
// figures the consumption model works on. Grade is signed: positive
// uphill, negative downhill.
type RouteSegment struct {
	From            geo.Location `json:"from"`
	To              geo.Location `json:"to"`
	DistanceKm      float64      `json:"distance_km"`
	ElevationDeltaM float64      `json:"elevation_delta_m"`
	GradePercent    float64      `json:"grade_percent"`
	ZoneKey         string       `json:"zone_key"`

	zone *TrafficZone
}

// Zone returns the traffic zone the segment was classified into.
func (s *RouteSegment) Zone() *TrafficZone {
	if s.zone != nil {
		return s.zone
	}
	if z, ok := zoneIndex[s.ZoneKey]; ok {
		return z
	}
	return DefaultZone()
}

// BuildSegments pairs consecutive samples into route segments. Pairs
// with zero ground distance are dropped so grades stay finite. Zone
// classification uses the leg midpoint heuristic.
func BuildSegments(points []SamplePoint) ([]RouteSegment, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientSamples
	}

	segments := make([]RouteSegment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		distKm := prev.Location.Distance(cur.Location) / 1000
		if distKm == 0 {
			continue
		}
		delta := cur.ElevationM - prev.ElevationM
		zone := ResolveZoneByLeg(prev.Location, cur.Location)
		segments = append(segments, RouteSegment{
			From:            prev.Location,
			To:              cur.Location,
			DistanceKm:      distKm,
			ElevationDeltaM: delta,
			GradePercent:    delta / (distKm * 1000) * 100,
			ZoneKey:         zone.Key,
			zone:            zone,
		})
	}
	if len(segments) == 0 {
		return nil, ErrInsufficientSamples
	}
	return segments, nil
}

// TotalDistanceKm sums the segment distances.
func TotalDistanceKm(segments []RouteSegment) float64 {
	var total float64
	for _, s := range segments {
		total += s.DistanceKm
	}
	return total
}

// RouteStats summarizes a route's elevation profile. AvgGradePercent is
// the elevation span over the full route distance, the headline figure
// used in reports, not the mean of per-segment grades.
type RouteStats struct {
	TotalDistanceKm  float64 `json:"total_distance_km"`
	MinElevationM    float64 `json:"min_elevation_m"`
	MaxElevationM    float64 `json:"max_elevation_m"`
	TotalAscentM     float64 `json:"total_ascent_m"`
	TotalDescentM    float64 `json:"total_descent_m"`
	AvgGradePercent  float64 `json:"avg_grade_percent"`
	MaxGradePercent  float64 `json:"max_grade_percent"`
	CriticalSegments int     `json:"critical_segment_count"`
}

// ComputeStats derives elevation statistics from the route samples.
func ComputeStats(points []SamplePoint) RouteStats {
	if len(points) == 0 {
		return RouteStats{}
	}

	stats := RouteStats{
		MinElevationM: points[0].ElevationM,
		MaxElevationM: points[0].ElevationM,
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.ElevationM < stats.MinElevationM {
			stats.MinElevationM = cur.ElevationM
		}
		if cur.ElevationM > stats.MaxElevationM {
			stats.MaxElevationM = cur.ElevationM
		}

		delta := cur.ElevationM - prev.ElevationM
		if delta > 0 {
			stats.TotalAscentM += delta
		} else {
			stats.TotalDescentM += -delta
		}

		distKm := prev.Location.Distance(cur.Location) / 1000
		stats.TotalDistanceKm += distKm
		if distKm == 0 {
			continue
		}
		grade := math.Abs(delta / (distKm * 1000) * 100)
		if grade > stats.MaxGradePercent {
			stats.MaxGradePercent = grade
		}
		if grade > CriticalGradePercent {
			stats.CriticalSegments++
		}
	}

	if stats.TotalDistanceKm > 0 {
		stats.AvgGradePercent = (stats.MaxElevationM - stats.MinElevationM) / (stats.TotalDistanceKm * 1000) * 100
	}
	return stats
}
