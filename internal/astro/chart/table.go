package chart

import (
	"github.com/jyotish-ai/server/internal/agent/model"
)

// Endpoint describes how one chart code is fetched.
type Endpoint struct {
	Path  string
	Shape model.ResponseShape
	// Language adds the configured language to the request body.
	Language bool
}

// order fixes the listing order reported back for unsupported codes.
var order = []model.ChartType{
	model.ChartD1, model.ChartD2, model.ChartD3, model.ChartD4, model.ChartD5,
	model.ChartD6, model.ChartD7, model.ChartD8, model.ChartD9, model.ChartD10,
	model.ChartD11, model.ChartD12, model.ChartD16, model.ChartD20, model.ChartD24,
	model.ChartD27, model.ChartD30, model.ChartD40, model.ChartD45, model.ChartD60,
	model.ChartD1Image, model.ChartD9Image,
}

var endpoints = map[model.ChartType]Endpoint{
	model.ChartD1:  {Path: "/planets", Shape: model.ShapePlanetList},
	model.ChartD2:  {Path: "/d2-chart-info", Shape: model.ShapePositions},
	model.ChartD3:  {Path: "/d3-chart-info", Shape: model.ShapePositions},
	model.ChartD4:  {Path: "/d4-chart-info", Shape: model.ShapePositions},
	model.ChartD5:  {Path: "/d5-chart-info", Shape: model.ShapePositions},
	model.ChartD6:  {Path: "/d6-chart-info", Shape: model.ShapePositions},
	model.ChartD7:  {Path: "/d7-chart-info", Shape: model.ShapePositions},
	model.ChartD8:  {Path: "/d8-chart-info", Shape: model.ShapePositions},
	model.ChartD9:  {Path: "/navamsa-chart-info", Shape: model.ShapePositions},
	model.ChartD10: {Path: "/d10-chart-info", Shape: model.ShapePositions},
	model.ChartD11: {Path: "/d11-chart-info", Shape: model.ShapePositions},
	model.ChartD12: {Path: "/d12-chart-info", Shape: model.ShapePositions},
	model.ChartD16: {Path: "/d16-chart-info", Shape: model.ShapePositions},
	model.ChartD20: {Path: "/d20-chart-info", Shape: model.ShapePositions},
	model.ChartD24: {Path: "/d24-chart-info", Shape: model.ShapePositions},
	model.ChartD27: {Path: "/d27-chart-info", Shape: model.ShapePositions},
	model.ChartD30: {Path: "/d30-chart-info", Shape: model.ShapePositions},
	model.ChartD40: {Path: "/d40-chart-info", Shape: model.ShapePositions},
	model.ChartD45: {Path: "/d45-chart-info", Shape: model.ShapePositions},
	model.ChartD60: {Path: "/d60-chart-info", Shape: model.ShapePositions},

	model.ChartD1Image: {Path: "/horoscope-chart-url", Shape: model.ShapeURL, Language: true},
	model.ChartD9Image: {Path: "/navamsa-chart-url", Shape: model.ShapeURL, Language: true},
}

// Table is the read-only chart dispatch table.
type Table struct {
	endpoints map[model.ChartType]Endpoint
	order     []model.ChartType
}

// DefaultTable returns the FreeAstrologyAPI routing.
func DefaultTable() *Table {
	return &Table{endpoints: endpoints, order: order}
}

func (t *Table) Lookup(ct model.ChartType) (Endpoint, bool) {
	e, ok := t.endpoints[ct]
	return e, ok
}

func (t *Table) Supports(ct model.ChartType) bool {
	_, ok := t.endpoints[ct]
	return ok
}

// Codes lists every supported code in display order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.order))
	for _, ct := range t.order {
		codes = append(codes, string(ct))
	}
	return codes
}
