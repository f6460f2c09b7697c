// Command tool_test invokes the offline fuel analysis tools in-process and
// prints their raw results. Useful for eyeballing tool output shapes without
// wiring up an MCP client.
package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/fuelmcp/pkg/tools"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func printResult(name string, result *mcp.CallToolResult, err error) {
	fmt.Printf("== %s\n", name)
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	if result.IsError {
		fmt.Println("  (error result)")
	}
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			fmt.Printf("  %s\n", text.Text)
		}
	}
}

func main() {
	ctx := context.Background()

	result, err := tools.HandleGetVersion(ctx, callRequest("get_version", nil))
	printResult("get_version", result, err)

	result, err = tools.HandleListVehicles(ctx, callRequest("list_vehicles", nil))
	printResult("list_vehicles", result, err)

	result, err = tools.HandleListZones(ctx, callRequest("list_zones", nil))
	printResult("list_zones", result, err)

	result, err = tools.HandleGetFuelPrices(ctx, callRequest("get_fuel_prices", nil))
	printResult("get_fuel_prices", result, err)

	result, err = tools.HandleResolveZone(ctx, callRequest("resolve_zone", map[string]any{
		"hint": "Kadıköy",
	}))
	printResult("resolve_zone", result, err)

	result, err = tools.HandleGeoDistance(ctx, callRequest("geo_distance", map[string]any{
		"from": map[string]any{"latitude": 40.9927, "longitude": 29.0277},
		"to":   map[string]any{"latitude": 41.0370, "longitude": 28.9850},
	}))
	printResult("geo_distance", result, err)

	result, err = tools.HandlePolylineEncode(ctx, callRequest("polyline_encode", map[string]any{
		"points": []map[string]any{
			{"latitude": 41.0082, "longitude": 28.9784},
			{"latitude": 41.0351, "longitude": 28.9834},
		},
	}))
	printResult("polyline_encode", result, err)
}
