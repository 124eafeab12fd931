package tools

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/jyotish-ai/server/internal/agent/model"
)

// ChartService answers chart requests; satisfied by *astro.Service.
type ChartService interface {
	Chart(ctx context.Context, dob, tob, city, code string) model.ChartResponse
	Codes() []string
}

type ChartInput struct {
	DOB  string `json:"dob"`
	TOB  string `json:"tob"`
	City string `json:"city"`
}

type DivisionalChartInput struct {
	ChartInput
	ChartType string `json:"chart_type"`
}

// fixedChart is one single-purpose chart tool.
type fixedChart struct {
	name string
	code model.ChartType
	desc string
}

var fixedCharts = []fixedChart{
	{ToolD10Chart, model.ChartD10, "Fetches the Dasamsa (D10) chart. Use ONLY for CAREER and profession questions."},
	{ToolD9Chart, model.ChartD9, "Fetches the Navamsa (D9) chart. Use ONLY for MARRIAGE and relationship questions."},
	{ToolD1Chart, model.ChartD1, "Fetches the Rasi (D1) birth chart as a list of planets. Use for GENERAL health, body and personality questions."},
	{ToolD2Chart, model.ChartD2, "Fetches the Hora (D2) chart. Use for WEALTH questions."},
	{ToolD3Chart, model.ChartD3, "Fetches the Drekkana (D3) chart. Use for SIBLINGS and courage questions."},
	{ToolD4Chart, model.ChartD4, "Fetches the Chaturthamsa (D4) chart. Use for PROPERTY, home and fortune questions."},
	{ToolD7Chart, model.ChartD7, "Fetches the Saptamsa (D7) chart. Use for CHILDREN and progeny questions."},
	{ToolD12Chart, model.ChartD12, "Fetches the Dwadasamsa (D12) chart. Use for PARENTS questions."},
	{ToolD16Chart, model.ChartD16, "Fetches the Shodasamsa (D16) chart. Use for VEHICLES and comforts questions."},
	{ToolD20Chart, model.ChartD20, "Fetches the Vimsamsa (D20) chart. Use for SPIRITUAL practice questions."},
	{ToolD24Chart, model.ChartD24, "Fetches the Chaturvimsamsa (D24) chart. Use for EDUCATION and learning questions."},
	{ToolD30Chart, model.ChartD30, "Fetches the Trimsamsa (D30) chart. Use for MISFORTUNES and evils."},
	{ToolD60Chart, model.ChartD60, "Fetches the Shashtiamsa (D60) chart. Use for PAST KARMA and overall confirmation."},
}

func birthParams() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"dob": {
			Type:     schema.String,
			Desc:     "Date of birth in YYYY-MM-DD format, e.g. 1990-01-01.",
			Required: true,
		},
		"tob": {
			Type:     schema.String,
			Desc:     "Time of birth in 24-hour HH:MM or HH:MM:SS format, e.g. 06:00.",
			Required: true,
		},
		"city": {
			Type:     schema.String,
			Desc:     "City of birth including country, e.g. Kathmandu, Nepal.",
			Required: true,
		},
	}
}

// InvalidArgumentsMessage is the tool error returned when the model's
// arguments are not a JSON object.
const InvalidArgumentsMessage = "invalid tool arguments"

// chartTool decodes its own arguments so malformed JSON from the model comes
// back as a data-shaped error instead of aborting the turn.
type chartTool struct {
	info *schema.ToolInfo
	// code is empty for the divisional tool, which reads chart_type.
	code model.ChartType
	svc  ChartService
}

func createFixedChartTool(svc ChartService, fc fixedChart) tool.InvokableTool {
	return &chartTool{
		info: &schema.ToolInfo{
			Name:        fc.name,
			Desc:        fc.desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(birthParams()),
		},
		code: fc.code,
		svc:  svc,
	}
}

func createDivisionalChartTool(svc ChartService) tool.InvokableTool {
	params := birthParams()
	params["chart_type"] = &schema.ParameterInfo{
		Type:     schema.String,
		Desc:     "Divisional chart code.",
		Enum:     svc.Codes(),
		Required: true,
	}
	return &chartTool{
		info: &schema.ToolInfo{
			Name: ToolDivisionalChart,
			Desc: "Fetches any divisional chart by code (D1 to D60, plus D1-IMG and D9-IMG for hosted chart image URLs). " +
				"Use when the user asks for a chart without a dedicated tool, such as D5, D6, D8, D11, D27, D40 or D45.",
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		},
		svc: svc,
	}
}

func (t *chartTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *chartTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in DivisionalChartInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return encodeChartResponse(model.ToolError{Message: InvalidArgumentsMessage, Details: err.Error()}.Response()), nil
	}
	code := string(t.code)
	if code == "" {
		code = in.ChartType
	}
	return encodeChartResponse(t.svc.Chart(ctx, in.DOB, in.TOB, in.City, code)), nil
}

func encodeChartResponse(resp model.ChartResponse) string {
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(model.ToolError{Message: "unreadable chart response", Details: err.Error()})
	}
	return string(out)
}
