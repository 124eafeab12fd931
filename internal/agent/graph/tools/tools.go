package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const (
	ToolD10Chart        = "get_d10_chart"
	ToolD9Chart         = "get_d9_chart"
	ToolD1Chart         = "get_d1_chart"
	ToolD2Chart         = "get_d2_chart"
	ToolD3Chart         = "get_d3_chart"
	ToolD4Chart         = "get_d4_chart"
	ToolD7Chart         = "get_d7_chart"
	ToolD12Chart        = "get_d12_chart"
	ToolD16Chart        = "get_d16_chart"
	ToolD20Chart        = "get_d20_chart"
	ToolD24Chart        = "get_d24_chart"
	ToolD30Chart        = "get_d30_chart"
	ToolD60Chart        = "get_d60_chart"
	ToolDivisionalChart = "get_divisional_chart"
	ToolSearchBPHS      = "search_bphs"
)

// IsChartTool reports whether name takes birth-detail arguments.
func IsChartTool(name string) bool {
	if name == ToolDivisionalChart {
		return true
	}
	for _, c := range fixedCharts {
		if c.name == name {
			return true
		}
	}
	return false
}

// GetAgentTools returns every tool exposed to the agent.
func GetAgentTools(charts ChartService, searcher Searcher, topK int) []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(fixedCharts)+2)
	for _, fc := range fixedCharts {
		out = append(out, createFixedChartTool(charts, fc))
	}
	out = append(out, createDivisionalChartTool(charts), createSearchTool(searcher, topK))
	return out
}

// GetToolInfos collects ToolInfo for model binding.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
