package models

import (
	"reflect"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestQuotaLimitCategories(t *testing.T) {
	tests := []struct {
		kind      string
		wantToken bool
		wantMCP   bool
	}{
		{TokenLimitKind, true, false},
		{MCPLimitKind, false, true},
		{"tokens_limit", true, false},
		{"mcp-token-pool", true, true},
		{"TIME_LIMIT", false, false},
	}
	for _, tt := range tests {
		q := QuotaLimit{Kind: tt.kind}
		if q.IsTokenLimit() != tt.wantToken {
			t.Errorf("%q IsTokenLimit() = %v", tt.kind, q.IsTokenLimit())
		}
		if q.IsMCPLimit() != tt.wantMCP {
			t.Errorf("%q IsMCPLimit() = %v", tt.kind, q.IsMCPLimit())
		}
	}
}

func TestDisplayPercent(t *testing.T) {
	tests := map[float64]float64{-3: 0, 0: 0, 42.5: 42.5, 100: 100, 135.2: 100}
	for in, want := range tests {
		q := QuotaLimit{Percentage: in}
		if got := q.DisplayPercent(); got != want {
			t.Errorf("DisplayPercent(%v) = %v, want %v", in, got, want)
		}
		if q.Percentage != in {
			t.Errorf("DisplayPercent mutated Percentage to %v", q.Percentage)
		}
	}
}

func TestUsageAlertText(t *testing.T) {
	crit := UsageAlert{Kind: TokenLimitKind, Percentage: 91.25, Severity: SeverityCritical}
	if crit.Title() != "Critical Usage Alert" {
		t.Errorf("Title() = %q", crit.Title())
	}
	if crit.Body() != "Token usage(5 Hour): 91.2% used" && crit.Body() != "Token usage(5 Hour): 91.3% used" {
		t.Errorf("Body() = %q", crit.Body())
	}

	warn := UsageAlert{Kind: MCPLimitKind, Percentage: 70, Severity: SeverityWarning}
	if warn.Title() != "Usage Warning" {
		t.Errorf("Title() = %q", warn.Title())
	}
	if warn.Body() != "MCP usage(1 Month): 70.0% used" {
		t.Errorf("Body() = %q", warn.Body())
	}
}

func TestFetchModeString(t *testing.T) {
	tests := map[FetchMode]string{
		ModeIdle:        "idle",
		ModeLoading:     "loading",
		ModeReady:       "ready",
		ModeNeedsConfig: "needs-config",
		FetchMode(42):   "unknown",
	}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("FetchMode(%d).String() = %q, want %q", m, got, want)
		}
	}
}

func TestSnapshotClone(t *testing.T) {
	reset := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	orig := &Snapshot{
		ModelUsage: []ModelUsageItem{{Model: "All Models", TokenCount: 10, RequestCount: 2}},
		ToolUsage:  []ToolUsageItem{{ToolName: "search", UsageCount: 3}},
		QuotaLimits: []QuotaLimit{{
			Kind:          TokenLimitKind,
			Percentage:    50,
			Usage:         ptr(int64(5)),
			NextResetTime: &reset,
			UsageDetails:  []UsageDetail{{ToolName: "search", Usage: 1}},
		}},
		ModelUsageTimeSeries: &ModelUsageTimeSeries{
			XTime:          []string{"t0"},
			ModelCallCount: []*int64{ptr(int64(1))},
			TokensUsage:    []*int64{nil},
		},
		Timestamp: 1700000000,
	}

	c := orig.Clone()
	if !reflect.DeepEqual(orig, c) {
		t.Fatalf("Clone() differs from original")
	}

	*c.QuotaLimits[0].Usage = 99
	c.QuotaLimits[0].UsageDetails[0].Usage = 99
	*c.ModelUsageTimeSeries.ModelCallCount[0] = 99
	c.ModelUsage[0].TokenCount = 99

	if *orig.QuotaLimits[0].Usage != 5 || orig.QuotaLimits[0].UsageDetails[0].Usage != 1 {
		t.Error("Clone() shares quota limit storage")
	}
	if *orig.ModelUsageTimeSeries.ModelCallCount[0] != 1 || orig.ModelUsage[0].TokenCount != 10 {
		t.Error("Clone() shares usage storage")
	}

	var nilSnap *Snapshot
	if nilSnap.Clone() != nil {
		t.Error("nil Clone() should be nil")
	}
	if !nilSnap.UpdatedAt().IsZero() {
		t.Error("nil UpdatedAt() should be zero")
	}
	if got := orig.UpdatedAt().Unix(); got != 1700000000 {
		t.Errorf("UpdatedAt() = %d", got)
	}
}

func TestFetchStatsSuccessRate(t *testing.T) {
	if (FetchStats{}).SuccessRate() != 0 {
		t.Error("empty stats should report 0")
	}
	s := FetchStats{Total: 4, Succeeded: 3}
	if s.SuccessRate() != 75 {
		t.Errorf("SuccessRate() = %v, want 75", s.SuccessRate())
	}
}
