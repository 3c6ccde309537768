package quota

import (
	"encoding/json"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// envelope is the wrapper every monitor endpoint returns.
type envelope struct {
	Success *bool           `json:"success"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
	Code    int             `json:"code"`
}

type modelUsageData struct {
	XTime          []string `json:"x_time"`
	ModelCallCount []*int64 `json:"modelCallCount"`
	TokensUsage    []*int64 `json:"tokensUsage"`
	TotalUsage     struct {
		TotalModelCallCount int64 `json:"totalModelCallCount"`
		TotalTokensUsage    int64 `json:"totalTokensUsage"`
	} `json:"totalUsage"`
}

// items reports the totals as a single aggregate row; the endpoint has no per-model split.
func (d modelUsageData) items() []models.ModelUsageItem {
	return []models.ModelUsageItem{{
		Model:        "All Models",
		TokenCount:   d.TotalUsage.TotalTokensUsage,
		RequestCount: d.TotalUsage.TotalModelCallCount,
	}}
}

func (d modelUsageData) timeSeries() *models.ModelUsageTimeSeries {
	return &models.ModelUsageTimeSeries{
		XTime:          d.XTime,
		ModelCallCount: d.ModelCallCount,
		TokensUsage:    d.TokensUsage,
	}
}

type toolUsageData struct {
	TotalUsage struct {
		ToolDetails []struct {
			ModelName       string `json:"modelName"`
			TotalUsageCount int64  `json:"totalUsageCount"`
		} `json:"toolDetails"`
		TotalNetworkSearchCount int64 `json:"totalNetworkSearchCount"`
		TotalWebReadMcpCount    int64 `json:"totalWebReadMcpCount"`
		TotalZreadMcpCount      int64 `json:"totalZreadMcpCount"`
		TotalSearchMcpCount     int64 `json:"totalSearchMcpCount"`
	} `json:"totalUsage"`
}

func (d toolUsageData) items() []models.ToolUsageItem {
	out := make([]models.ToolUsageItem, 0, len(d.TotalUsage.ToolDetails))
	for _, td := range d.TotalUsage.ToolDetails {
		out = append(out, models.ToolUsageItem{ToolName: td.ModelName, UsageCount: td.TotalUsageCount})
	}
	return out
}

type quotaLimitData struct {
	Limits []struct {
		Usage         *int64 `json:"usage"`
		CurrentValue  *int64 `json:"currentValue"`
		Remaining     *int64 `json:"remaining"`
		NextResetTime *int64 `json:"nextResetTime"`
		Type          string `json:"type"`
		UsageDetails  []struct {
			ModelCode string `json:"modelCode"`
			Usage     int64  `json:"usage"`
		} `json:"usageDetails"`
		Unit       int64   `json:"unit"`
		Number     int64   `json:"number"`
		Percentage float64 `json:"percentage"`
	} `json:"limits"`
}

// limitKinds maps raw limit types onto display names.
var limitKinds = map[string]string{
	"TOKENS_LIMIT": models.TokenLimitKind,
	"TIME_LIMIT":   models.MCPLimitKind,
}

func (d quotaLimitData) limits() []models.QuotaLimit {
	out := make([]models.QuotaLimit, 0, len(d.Limits))
	for _, l := range d.Limits {
		kind := l.Type
		if mapped, ok := limitKinds[kind]; ok {
			kind = mapped
		}
		unit, number := l.Unit, l.Number
		q := models.QuotaLimit{
			Kind:         kind,
			Percentage:   l.Percentage,
			Usage:        l.Usage,
			CurrentValue: l.CurrentValue,
			Remaining:    l.Remaining,
			Unit:         &unit,
			Count:        &number,
		}
		if l.NextResetTime != nil {
			t := time.UnixMilli(*l.NextResetTime)
			q.NextResetTime = &t
		}
		for _, ud := range l.UsageDetails {
			q.UsageDetails = append(q.UsageDetails, models.UsageDetail{ToolName: ud.ModelCode, Usage: ud.Usage})
		}
		out = append(out, q)
	}
	return out
}
