package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
)

const (
	APIRequestFailedMessage = "API request failed"
	UnsupportedChartMessage = "unsupported chart type"

	maxResponseBytes = 4 << 20
)

// Client calls FreeAstrologyAPI through the dispatch table.
type Client struct {
	baseURL    string
	cfg        model.AstroConfig
	table      *Table
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg model.AstroConfig, table *Table) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		table:      table,
		httpClient: &http.Client{Timeout: timeout},
		log:        logx.Component("chart"),
	}
}

type requestConfig struct {
	ObservationPoint string `json:"observation_point"`
	Ayanamsha        string `json:"ayanamsha"`
}

type requestBody struct {
	Year      int           `json:"year"`
	Month     int           `json:"month"`
	Date      int           `json:"date"`
	Hours     int           `json:"hours"`
	Minutes   int           `json:"minutes"`
	Seconds   int           `json:"seconds"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Timezone  float64       `json:"timezone"`
	Config    requestConfig `json:"config"`
	Language  string        `json:"language,omitempty"`
}

func (c *Client) buildBody(q model.BirthQuery, e Endpoint) requestBody {
	body := requestBody{
		Year:      q.Date.Year,
		Month:     q.Date.Month,
		Date:      q.Date.Day,
		Hours:     q.Time.Hour,
		Minutes:   q.Time.Minute,
		Seconds:   q.Time.Second,
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Timezone:  q.Offset,
		Config: requestConfig{
			ObservationPoint: c.cfg.ObservationPoint,
			Ayanamsha:        c.cfg.Ayanamsha,
		},
	}
	if e.Language {
		body.Language = c.cfg.Language
	}
	return body
}

// Fetch issues a single call for the chart. Every failure is reported inside
// the returned ChartResponse.
func (c *Client) Fetch(ctx context.Context, ct model.ChartType, q model.BirthQuery) model.ChartResponse {
	endpoint, ok := c.table.Lookup(ct)
	if !ok {
		return model.ChartResponse{
			Error:      UnsupportedChartMessage,
			Details:    fmt.Sprintf("chart type %q is not supported", ct),
			ValidCodes: c.table.Codes(),
		}
	}

	payload, err := json.Marshal(c.buildBody(q, endpoint))
	if err != nil {
		return failed(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint.Path, bytes.NewReader(payload))
	if err != nil {
		return failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("chart_type", string(ct)).Msg("chart request failed")
		return failed(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failed(fmt.Sprintf("read response: %v", err))
	}
	c.log.Debug().Str("chart_type", string(ct)).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("chart response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Str("chart_type", string(ct)).Msg("chart api returned non-success status")
		return failed(fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(raw)), 300)))
	}

	var data json.RawMessage
	switch endpoint.Shape {
	case model.ShapeURL:
		data, err = json.Marshal(map[string]string{"url": extractURL(raw)})
		if err != nil {
			return failed(err.Error())
		}
	default:
		if !json.Valid(raw) {
			return failed("malformed JSON response")
		}
		data = json.RawMessage(raw)
	}

	return model.ChartResponse{ChartType: ct, ChartData: data}
}

func failed(details string) model.ChartResponse {
	return model.ChartResponse{Error: APIRequestFailedMessage, Details: details}
}

// extractURL accepts a bare URL, a JSON string, or an {"output": url} envelope.
func extractURL(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s
	}
	var envelope struct {
		Output string `json:"output"`
		URL    string `json:"url"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil {
		if envelope.Output != "" {
			return envelope.Output
		}
		if envelope.URL != "" {
			return envelope.URL
		}
	}
	return text
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
