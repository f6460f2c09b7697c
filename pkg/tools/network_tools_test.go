package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestHandleBuildRoadNetworkInputValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "Missing region",
			args: map[string]any{
				"min_lat": 40.9, "min_lon": 29.0,
				"max_lat": 41.0, "max_lon": 29.1,
			},
		},
		{
			name: "Invalid corner latitude",
			args: map[string]any{
				"region":  "test",
				"min_lat": 95.0, "min_lon": 29.0,
				"max_lat": 41.0, "max_lon": 29.1,
			},
		},
		{
			name: "Inverted bounding box",
			args: map[string]any{
				"region":  "test",
				"min_lat": 41.0, "min_lon": 29.1,
				"max_lat": 40.9, "max_lon": 29.0,
			},
		},
		{
			name: "Bounding box too large",
			args: map[string]any{
				"region":  "test",
				"min_lat": 36.0, "min_lon": 26.0,
				"max_lat": 42.0, "max_lon": 45.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      "build_road_network",
					Arguments: tt.args,
				},
			}

			result, err := HandleBuildRoadNetwork(context.Background(), req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			AssertErrorResult(t, result, "Expected error result, but got success")
		})
	}
}

func TestHandlePlanCapabilityRouteInputValidation(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]any
		wantInText string
	}{
		{
			name: "Missing region",
			args: map[string]any{
				"origin":      "41.0,29.0",
				"destination": "41.02,29.02",
			},
			wantInText: "Region",
		},
		{
			name: "Unknown vehicle",
			args: map[string]any{
				"region":      "test",
				"origin":      "41.0,29.0",
				"destination": "41.02,29.02",
				"vehicle":     "no_such_vehicle",
			},
			wantInText: "no_such_vehicle",
		},
		{
			name: "Invalid mode",
			args: map[string]any{
				"region":      "test",
				"origin":      "41.0,29.0",
				"destination": "41.02,29.02",
				"mode":        "fastest",
			},
			wantInText: "mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      "plan_capability_route",
					Arguments: tt.args,
				},
			}

			result, err := HandlePlanCapabilityRoute(context.Background(), req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			AssertErrorResult(t, result, "Expected error result, but got success")

			if tt.wantInText != "" {
				text := ResultText(result)
				if !strings.Contains(strings.ToLower(text), strings.ToLower(tt.wantInText)) {
					t.Errorf("Expected error text to mention %q, got: %s", tt.wantInText, text)
				}
			}
		})
	}
}
