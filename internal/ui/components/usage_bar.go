package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/j-veylop/zai-usage-tui/internal/ui/styles"
)

// Gradient endpoints for consumption bars: empty is green, full is red.
const (
	gradientLow  = "#51cf66"
	gradientHigh = "#ff6b6b"
)

// AnimationTickMsg advances bar animations.
type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// UsageBar is an animated progress bar for one quota limit. The displayed
// value eases toward the last value set.
type UsageBar struct {
	progress  progress.Model
	label     string
	current   float64
	target    float64
	animating bool
}

// NewUsageBar creates a usage bar with the consumption gradient.
func NewUsageBar(label string) UsageBar {
	return UsageBar{
		progress: progress.New(
			progress.WithScaledGradient(gradientLow, gradientHigh),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		label: label,
	}
}

// Update steps the animation.
func (u UsageBar) Update(msg tea.Msg) (UsageBar, tea.Cmd) {
	if _, ok := msg.(AnimationTickMsg); !ok || !u.animating {
		return u, nil
	}

	diff := u.target - u.current
	if diff >= -0.5 && diff <= 0.5 {
		u.current = u.target
		u.animating = false
		return u, nil
	}
	step := diff / 10
	switch {
	case diff > 0:
		step = max(step, 0.5)
	default:
		step = min(step, -0.5)
	}
	u.current += step
	return u, animationTick()
}

// SetPercent sets the target percentage, clamped to [0, 100], and starts
// easing toward it.
func (u *UsageBar) SetPercent(percent float64) tea.Cmd {
	u.target = clampPercent(percent)
	if u.animating || u.current == u.target {
		return nil
	}
	u.animating = true
	return animationTick()
}

// Percent returns the value currently displayed.
func (u UsageBar) Percent() float64 {
	return u.current
}

// Target returns the value the bar is easing toward.
func (u UsageBar) Target() float64 {
	return u.target
}

// Label returns the bar label.
func (u UsageBar) Label() string {
	return u.label
}

// View renders label, bar and the raw percentage. The raw value may exceed 100.
func (u UsageBar) View(raw float64, width int) string {
	labelWidth := min(lipgloss.Width(u.label)+1, 24)
	barWidth := max(width-labelWidth-10, 10)
	u.progress.Width = barWidth

	labelStr := styles.LabelStyle.Width(labelWidth).Render(u.label)
	pctStr := styles.UsageStyle(raw).Width(8).Align(lipgloss.Right).Render(fmt.Sprintf("%.1f%%", raw))

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, u.progress.ViewAs(u.current/100), pctStr)
}

func clampPercent(p float64) float64 {
	return max(0, min(100, p))
}

// RenderGradientBar renders width cells, filling percent of them with the
// consumption gradient.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * clampPercent(percent) / 100)
	empty := lipgloss.NewStyle().Foreground(styles.Subtle)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			c := lipgloss.Color(blend(gradientLow, gradientHigh, t))
			b.WriteString(lipgloss.NewStyle().Foreground(c).Render("█"))
		} else {
			b.WriteString(empty.Render("░"))
		}
	}
	return b.String()
}

// SimpleUsageBar renders "label [bar] 42.0%" in a single line.
func SimpleUsageBar(percent float64, label string, width int) string {
	const pctWidth = 7
	barWidth := max(width-lipgloss.Width(label)-pctWidth-4, 5)

	pct := styles.UsageStyle(percent).Width(pctWidth).Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", percent))

	return fmt.Sprintf("%s [%s] %s", styles.LabelStyle.Render(label), RenderGradientBar(percent, barWidth), pct)
}

// blend mixes two hex colors in Lab space.
func blend(fromHex, toHex string, t float64) string {
	switch {
	case t <= 0:
		return fromHex
	case t >= 1:
		return toHex
	}
	from, err1 := colorful.Hex(fromHex)
	to, err2 := colorful.Hex(toHex)
	if err1 != nil || err2 != nil {
		return fromHex
	}
	return from.BlendLab(to, t).Clamped().Hex()
}

var loadingDots = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// UsageBarLoading renders a shimmering placeholder bar for frame.
func UsageBarLoading(label string, width, frame int) string {
	const (
		cycle    = 120
		pctWidth = 7
	)
	barWidth := max(width-lipgloss.Width(label)-pctWidth-4, 10)

	t := float64(frame%cycle) / cycle
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	pos := int(eased * float64(barWidth))

	hot := lipgloss.NewStyle().Foreground(styles.Primary)
	warm := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	cold := lipgloss.NewStyle().Foreground(styles.BgLight)

	var b strings.Builder
	for i := range barWidth {
		dist := pos - i
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < 3:
			b.WriteString(hot.Render("▓"))
		case dist < 5:
			b.WriteString(warm.Render("▒"))
		default:
			b.WriteString(cold.Render("░"))
		}
	}

	dot := hot.Width(pctWidth).Align(lipgloss.Right).Render(loadingDots[(frame/2)%len(loadingDots)])
	return fmt.Sprintf("%s [%s] %s", styles.LabelStyle.Render(label), b.String(), dot)
}
