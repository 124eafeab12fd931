package model

import (
	"encoding/json"
	"strings"
)

// ChartType identifies a divisional chart (or a chart-image variant).
type ChartType string

const (
	ChartD1  ChartType = "D1"
	ChartD2  ChartType = "D2"
	ChartD3  ChartType = "D3"
	ChartD4  ChartType = "D4"
	ChartD5  ChartType = "D5"
	ChartD6  ChartType = "D6"
	ChartD7  ChartType = "D7"
	ChartD8  ChartType = "D8"
	ChartD9  ChartType = "D9"
	ChartD10 ChartType = "D10"
	ChartD11 ChartType = "D11"
	ChartD12 ChartType = "D12"
	ChartD16 ChartType = "D16"
	ChartD20 ChartType = "D20"
	ChartD24 ChartType = "D24"
	ChartD27 ChartType = "D27"
	ChartD30 ChartType = "D30"
	ChartD40 ChartType = "D40"
	ChartD45 ChartType = "D45"
	ChartD60 ChartType = "D60"

	// Hosted SVG variants.
	ChartD1Image ChartType = "D1-IMG"
	ChartD9Image ChartType = "D9-IMG"
)

// ParseChartType upper-cases and trims a raw code. It does not validate.
func ParseChartType(raw string) ChartType {
	return ChartType(strings.ToUpper(strings.TrimSpace(raw)))
}

func (t ChartType) String() string {
	return string(t)
}

// ResponseShape describes what an endpoint family returns.
type ResponseShape int

const (
	// ShapePlanetList is a JSON list of planet objects (base chart).
	ShapePlanetList ResponseShape = iota
	// ShapePositions is a JSON mapping of house/planet positions.
	ShapePositions
	// ShapeURL is a bare URL string pointing at a hosted chart image.
	ShapeURL
)

func (s ResponseShape) String() string {
	switch s {
	case ShapePlanetList:
		return "planet_list"
	case ShapePositions:
		return "positions"
	case ShapeURL:
		return "url"
	default:
		return "unknown"
	}
}

// ChartResponse is what chart tools hand back to the agent. Exactly one of
// ChartData or Error is populated.
type ChartResponse struct {
	ChartType  ChartType       `json:"chart_type,omitempty"`
	ChartData  json.RawMessage `json:"chart_data,omitempty"`
	Error      string          `json:"error,omitempty"`
	Details    string          `json:"details,omitempty"`
	ValidCodes []string        `json:"valid_codes,omitempty"`
}

// IsError reports whether the response encodes a failure.
func (r ChartResponse) IsError() bool {
	return r.Error != ""
}

// IsEmpty reports whether nothing was fetched.
func (r ChartResponse) IsEmpty() bool {
	return !r.IsError() && len(r.ChartData) == 0
}

// ToolError is a data-shaped failure returned as tool output, never raised.
type ToolError struct {
	Message    string   `json:"error"`
	Details    string   `json:"details,omitempty"`
	ValidCodes []string `json:"valid_codes,omitempty"`
}

// Response converts the failure into the chart tool output shape.
func (e ToolError) Response() ChartResponse {
	return ChartResponse{Error: e.Message, Details: e.Details, ValidCodes: e.ValidCodes}
}

// ChartRequest is a validated tool call: canonical birth query plus chart type.
type ChartRequest struct {
	Query BirthQuery
	Type  ChartType
	City  string
}
