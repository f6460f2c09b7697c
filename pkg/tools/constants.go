package tools

// Route analysis constants
const (
	// DefaultVehicleID is used when an analysis request names no vehicle
	DefaultVehicleID = "fiat_egea_dizel"
	// DefaultSampleIntervalM is the polyline resampling interval in meters
	DefaultSampleIntervalM = 200.0
	// MinSampleIntervalM is the smallest accepted resampling interval
	MinSampleIntervalM = 25.0
	// MaxRouteSamples caps the number of elevation samples per analysis;
	// longer routes get their interval widened to stay under it
	MaxRouteSamples = 1200
)

// Fuel station search constants
const (
	// DefaultStationRadiusM is the default search radius in meters
	DefaultStationRadiusM = 2000.0
	// MaxStationRadiusM is the largest accepted search radius
	MaxStationRadiusM = 10000.0
	// DefaultStationLimit is the default result count
	DefaultStationLimit = 10
	// MaxStationLimit is the largest accepted result count
	MaxStationLimit = 50
	// RouteStationSampleM is the spacing of corridor probes when searching
	// along a route polyline
	RouteStationSampleM = 500.0
)

// Road network constants
const (
	// MaxNetworkAreaKm2 caps the bounding box area for a network build
	MaxNetworkAreaKm2 = 750.0
)
