package prompts

import (
	"strings"
	"testing"

	"github.com/NERVsystems/fuelmcp/pkg/fuel"
	"github.com/NERVsystems/fuelmcp/pkg/roadnet"
)

func TestFuelAnalysisSystemPrompt(t *testing.T) {
	prompt := FuelAnalysisSystemPrompt()
	if prompt == "" {
		t.Fatal("Expected a non-empty system prompt")
	}

	// The prompt must reference the tools it teaches.
	for _, tool := range []string{
		"list_vehicles",
		"analyze_route_fuel",
		"compare_vehicles",
		"plan_capability_route",
		"build_road_network",
		"render_route_charts",
	} {
		if !strings.Contains(prompt, tool) {
			t.Errorf("Prompt does not mention %s", tool)
		}
	}

	// Difficulty ratings are part of the contract with the client.
	for _, rating := range []string{"KOLAY", "ORTA", "ZOR", "ÇOK ZOR"} {
		if !strings.Contains(prompt, rating) {
			t.Errorf("Prompt does not mention rating %s", rating)
		}
	}
}

// The prompt makes factual claims about the tool surface; each must hold
// against the packages that implement it, or clients following the prompt
// will issue failing calls.
func TestFuelAnalysisSystemPromptFactsMatchCode(t *testing.T) {
	prompt := FuelAnalysisSystemPrompt()

	t.Run("Example vehicle identifiers exist", func(t *testing.T) {
		for _, id := range []string{"fiat_egea_dizel", "ford_focus_dizel"} {
			if !strings.Contains(prompt, id) {
				t.Errorf("Prompt does not mention %s", id)
				continue
			}
			if _, err := fuel.LookupVehicle(id); err != nil {
				t.Errorf("Prompt names vehicle %s which is not in the catalog: %v", id, err)
			}
		}
	})

	t.Run("Peak windows match the price model", func(t *testing.T) {
		if !strings.Contains(prompt, "07:00-10:00 and 17:00-20:00") {
			t.Error("Prompt does not state the peak windows")
		}
		for _, hour := range []int{7, 9, 17, 19} {
			if !fuel.IsPeakHour(hour) {
				t.Errorf("Hour %d should be peak", hour)
			}
		}
		for _, hour := range []int{6, 10, 16, 20} {
			if fuel.IsPeakHour(hour) {
				t.Errorf("Hour %d should not be peak", hour)
			}
		}
	})

	t.Run("Routing modes parse", func(t *testing.T) {
		for _, mode := range []string{"power_optimized", "balanced"} {
			if !strings.Contains(prompt, mode) {
				t.Errorf("Prompt does not mention mode %s", mode)
				continue
			}
			if _, err := roadnet.ParseMode(mode); err != nil {
				t.Errorf("Prompt names mode %s which does not parse: %v", mode, err)
			}
		}
		for _, mode := range []string{"avoid_steep", "shortest"} {
			if strings.Contains(prompt, mode) {
				t.Errorf("Prompt mentions unsupported mode %s", mode)
			}
		}
	})
}
