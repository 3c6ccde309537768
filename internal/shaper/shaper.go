// Package shaper turns usage snapshots into display-ready sequences.
// Every function is pure: inputs are never mutated.
package shaper

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// ModelSort selects the key for SortModels.
type ModelSort int

const (
	ByTokens ModelSort = iota
	ByRequests
)

func (s ModelSort) String() string {
	if s == ByRequests {
		return "requests"
	}
	return "tokens"
}

// ToolSort selects the key for SortTools.
type ToolSort int

const (
	ByCount ToolSort = iota
	ByName
)

func (s ToolSort) String() string {
	if s == ByName {
		return "name"
	}
	return "count"
}

// SortModels returns a copy sorted descending by token or request count.
// Equal keys keep their input order.
func SortModels(items []models.ModelUsageItem, by ModelSort) []models.ModelUsageItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b models.ModelUsageItem) int {
		if by == ByRequests {
			return cmp.Compare(b.RequestCount, a.RequestCount)
		}
		return cmp.Compare(b.TokenCount, a.TokenCount)
	})
	return out
}

// SortTools returns a copy sorted descending by usage count, or ascending by
// tool name using the collation rules of the user's locale.
func SortTools(items []models.ToolUsageItem, by ToolSort) []models.ToolUsageItem {
	out := slices.Clone(items)
	if by == ByName {
		col := collate.New(Locale())
		slices.SortStableFunc(out, func(a, b models.ToolUsageItem) int {
			return col.CompareString(a.ToolName, b.ToolName)
		})
		return out
	}
	slices.SortStableFunc(out, func(a, b models.ToolUsageItem) int {
		return cmp.Compare(b.UsageCount, a.UsageCount)
	})
	return out
}

// Locale derives a language tag from LC_ALL, LC_COLLATE or LANG, defaulting to English.
func Locale() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_COLLATE", "LANG"} {
		v, _, _ := strings.Cut(os.Getenv(key), ".")
		v, _, _ = strings.Cut(v, "@")
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if tag, err := language.Parse(strings.ReplaceAll(v, "_", "-")); err == nil {
			return tag
		}
	}
	return language.English
}

// FormatCompactNumber renders n as "999", "1.0K" or "1.5M".
func FormatCompactNumber(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// TimePoint is one chart bucket.
type TimePoint struct {
	Time   string
	Calls  int64
	Tokens int64
}

var bucketLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"15:04",
}

// BuildTimeSeriesPoints emits one point per bucket. Missing or null values
// become 0; times are shown as HH:MM, or verbatim when they cannot be parsed.
func BuildTimeSeriesPoints(ts *models.ModelUsageTimeSeries) []TimePoint {
	if ts == nil {
		return nil
	}
	return lo.Map(ts.XTime, func(x string, i int) TimePoint {
		return TimePoint{
			Time:   bucketLabel(x),
			Calls:  valueAt(ts.ModelCallCount, i),
			Tokens: valueAt(ts.TokensUsage, i),
		}
	})
}

func valueAt(vals []*int64, i int) int64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func bucketLabel(raw string) string {
	s := strings.TrimSpace(raw)
	for _, layout := range bucketLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format("15:04")
		}
	}
	return raw
}

// CallsSeries extracts the call counts as chart values.
func CallsSeries(points []TimePoint) []float64 {
	return lo.Map(points, func(p TimePoint, _ int) float64 { return float64(p.Calls) })
}

// TokensSeries extracts the token counts as chart values.
func TokensSeries(points []TimePoint) []float64 {
	return lo.Map(points, func(p TimePoint, _ int) float64 { return float64(p.Tokens) })
}

// SummaryLimits holds at most one limit per summary category.
type SummaryLimits struct {
	Token *models.QuotaLimit
	MCP   *models.QuotaLimit
}

// SelectSummaryLimits picks the first token limit and the first MCP limit.
func SelectSummaryLimits(limits []models.QuotaLimit) SummaryLimits {
	var out SummaryLimits
	if q, ok := lo.Find(limits, models.QuotaLimit.IsTokenLimit); ok {
		out.Token = &q
	}
	if q, ok := lo.Find(limits, models.QuotaLimit.IsMCPLimit); ok {
		out.MCP = &q
	}
	return out
}
