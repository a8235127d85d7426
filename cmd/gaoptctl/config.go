package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gaopt/internal/evo"
	gaoptapi "gaopt/pkg/gaopt"
)

// loadRunRequestFromConfig reads a YAML or JSON run config. Unknown keys are
// ignored and a missing seed means evo.DefaultSeed.
func loadRunRequestFromConfig(path string) (gaoptapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gaoptapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return gaoptapi.RunRequest{}, err
	}

	req := gaoptapi.RunRequest{Seed: evo.DefaultSeed}
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["continue_from"]); ok {
		req.ContinueFrom = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.PopulationSize = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asFloat64(raw["mutation_magnitude"]); ok {
		req.MutationMagnitude = v
		req.MutationMagnitudeSet = true
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asBool(raw["clamp_mutation"]); ok {
		req.ClampMutation = v
	}
	if v, ok := asBool(raw["skip_plot"]); ok {
		req.SkipPlot = v
	}

	if mutation, ok := raw["mutation"].(map[string]any); ok {
		if v, ok := asFloat64(mutation["magnitude"]); ok {
			req.MutationMagnitude = v
			req.MutationMagnitudeSet = true
		}
		if v, ok := asBool(mutation["clamp"]); ok {
			req.ClampMutation = v
		}
	}
	return req, nil
}

func loadOrDefaultRunRequest(configPath string) (gaoptapi.RunRequest, error) {
	if configPath == "" {
		return gaoptapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return gaoptapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies explicitly set flags on top of a config file.
func overrideFromFlags(req *gaoptapi.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "continue-from":
			req.ContinueFrom = v.(string)
		case "pop":
			req.PopulationSize = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "mutation":
			req.MutationMagnitude = v.(float64)
			req.MutationMagnitudeSet = true
		case "seed":
			req.Seed = v.(int64)
		case "clamp":
			req.ClampMutation = v.(bool)
		case "no-plot":
			req.SkipPlot = v.(bool)
		}
	}
}
