// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"
)

// Display names the provider's raw limit types are mapped to.
const (
	TokenLimitKind = "Token usage(5 Hour)"
	MCPLimitKind   = "MCP usage(1 Month)"
)

// UsageDetail is a per-tool breakdown attached to a quota limit.
type UsageDetail struct {
	ToolName string `json:"tool_name"`
	Usage    int64  `json:"usage"`
}

// QuotaLimit is one limit reported by the provider. Percentage is stored as
// received and may exceed 100.
type QuotaLimit struct {
	NextResetTime *time.Time    `json:"next_reset_time,omitempty"`
	CurrentValue  *int64        `json:"current_value,omitempty"`
	Usage         *int64        `json:"usage,omitempty"`
	Remaining     *int64        `json:"remaining,omitempty"`
	Unit          *int64        `json:"unit,omitempty"`
	Count         *int64        `json:"count,omitempty"`
	Kind          string        `json:"kind"`
	UsageDetails  []UsageDetail `json:"usage_details,omitempty"`
	Percentage    float64       `json:"percentage"`
}

// IsTokenLimit reports whether the limit belongs to the token category.
func (q QuotaLimit) IsTokenLimit() bool {
	return strings.Contains(strings.ToUpper(q.Kind), "TOKEN")
}

// IsMCPLimit reports whether the limit belongs to the MCP category.
func (q QuotaLimit) IsMCPLimit() bool {
	return strings.Contains(strings.ToUpper(q.Kind), "MCP")
}

// DisplayPercent clamps the percentage to [0, 100] for bars and gauges.
func (q QuotaLimit) DisplayPercent() float64 {
	switch {
	case q.Percentage < 0:
		return 0
	case q.Percentage > 100:
		return 100
	default:
		return q.Percentage
	}
}
