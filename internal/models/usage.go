// Package models defines data structures and domain types.
package models

import (
	"slices"
	"time"
)

// ModelUsageItem aggregates calls and tokens for one model.
type ModelUsageItem struct {
	Model        string `json:"model"`
	TokenCount   int64  `json:"token_count"`
	RequestCount int64  `json:"request_count"`
}

// ToolUsageItem counts invocations of one MCP tool.
type ToolUsageItem struct {
	ToolName   string `json:"tool_name"`
	UsageCount int64  `json:"usage_count"`
}

// ModelUsageTimeSeries holds per-bucket values; index i across all three slices
// describes one bucket. Nil entries mean no data for that bucket.
type ModelUsageTimeSeries struct {
	XTime          []string `json:"x_time"`
	ModelCallCount []*int64 `json:"model_call_count"`
	TokensUsage    []*int64 `json:"tokens_usage"`
}

// Len returns the number of buckets.
func (ts ModelUsageTimeSeries) Len() int {
	return len(ts.XTime)
}

// Snapshot is the result of one successful fetch. It is replaced wholesale,
// never merged.
type Snapshot struct {
	ModelUsageTimeSeries *ModelUsageTimeSeries `json:"model_usage_timeseries,omitempty"`
	ModelUsage           []ModelUsageItem      `json:"model_usage"`
	ToolUsage            []ToolUsageItem       `json:"tool_usage"`
	QuotaLimits          []QuotaLimit          `json:"quota_limits"`
	Timestamp            int64                 `json:"timestamp"`
}

// UpdatedAt returns the snapshot timestamp as local time.
func (s *Snapshot) UpdatedAt() time.Time {
	if s == nil || s.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(s.Timestamp, 0)
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		ModelUsage: slices.Clone(s.ModelUsage),
		ToolUsage:  slices.Clone(s.ToolUsage),
		Timestamp:  s.Timestamp,
	}
	if s.QuotaLimits != nil {
		c.QuotaLimits = make([]QuotaLimit, len(s.QuotaLimits))
		for i, q := range s.QuotaLimits {
			q.UsageDetails = slices.Clone(q.UsageDetails)
			q.NextResetTime = clonePtr(q.NextResetTime)
			q.CurrentValue = clonePtr(q.CurrentValue)
			q.Usage = clonePtr(q.Usage)
			q.Remaining = clonePtr(q.Remaining)
			q.Unit = clonePtr(q.Unit)
			q.Count = clonePtr(q.Count)
			c.QuotaLimits[i] = q
		}
	}
	if ts := s.ModelUsageTimeSeries; ts != nil {
		c.ModelUsageTimeSeries = &ModelUsageTimeSeries{
			XTime:          slices.Clone(ts.XTime),
			ModelCallCount: clonePtrs(ts.ModelCallCount),
			TokensUsage:    clonePtrs(ts.TokensUsage),
		}
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clonePtrs(in []*int64) []*int64 {
	if in == nil {
		return nil
	}
	out := make([]*int64, len(in))
	for i, p := range in {
		out[i] = clonePtr(p)
	}
	return out
}
