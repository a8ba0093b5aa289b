package pipeline

import (
	"encoding/json"
	"strings"

	"finrag/internal/domain"
)

const fence = "```"

// SplitChartData scans a raw model response for a fenced JSON block carrying
// chart data. When the first fenced block parses and holds a chart_data key,
// the answer is the text before the block and the parsed points are returned.
// Anything else (no block, malformed JSON, missing key) degrades silently:
// the full raw text becomes the answer and the chart data is empty.
// Only the first fenced block is considered; later blocks are ignored.
func SplitChartData(raw string) (string, []domain.ChartPoint) {
	idx := strings.Index(raw, fence+"json")
	if idx < 0 {
		return raw, []domain.ChartPoint{}
	}
	rest := raw[idx+len(fence+"json"):]
	blob := rest
	if end := strings.Index(rest, fence); end >= 0 {
		blob = rest[:end]
	}
	var decoded struct {
		ChartData []domain.ChartPoint `json:"chart_data"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(blob)), &decoded); err != nil || decoded.ChartData == nil {
		return raw, []domain.ChartPoint{}
	}
	return strings.TrimSpace(raw[:idx]), decoded.ChartData
}
