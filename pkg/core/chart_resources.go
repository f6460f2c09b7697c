package core

import (
	"log/slog"

	"github.com/NERVsystems/fuelmcp/pkg/cache"
)

// chartResourceManager is the global rendered-chart resource manager
var chartResourceManager *cache.ChartResourceManager

// InitChartResourceManager initializes the chart resource manager
func InitChartResourceManager(logger *slog.Logger) {
	if chartResourceManager == nil {
		chartResourceManager = cache.NewChartResourceManager(logger)
	}
}

// GetChartResourceManager returns the global chart resource manager
func GetChartResourceManager() *cache.ChartResourceManager {
	return chartResourceManager
}
