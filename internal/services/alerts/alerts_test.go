package alerts

import (
	"errors"
	"testing"

	"github.com/j-veylop/zai-usage-tui/internal/models"
)

type fakeNotifier struct {
	perm      Permission
	grantTo   Permission
	requests  int
	shown     []string
	showError error
}

func (f *fakeNotifier) Permission() Permission { return f.perm }

func (f *fakeNotifier) RequestPermission() Permission {
	f.requests++
	f.perm = f.grantTo
	return f.perm
}

func (f *fakeNotifier) Show(title, body string) error {
	if f.showError != nil {
		return f.showError
	}
	f.shown = append(f.shown, title+"|"+body)
	return nil
}

func TestEvaluate(t *testing.T) {
	snap := &models.Snapshot{QuotaLimits: []models.QuotaLimit{
		{Kind: models.TokenLimitKind, Percentage: 95.2},
		{Kind: models.MCPLimitKind, Percentage: 70},
		{Kind: "other", Percentage: 69.9},
	}}
	got := Evaluate(snap, DefaultThresholds())
	if len(got) != 2 {
		t.Fatalf("Evaluate() returned %d alerts, want 2", len(got))
	}
	if got[0].Severity != models.SeverityCritical || got[0].Kind != models.TokenLimitKind {
		t.Errorf("alert[0] = %+v", got[0])
	}
	if got[1].Severity != models.SeverityWarning || got[1].Kind != models.MCPLimitKind {
		t.Errorf("alert[1] = %+v", got[1])
	}
	if Evaluate(nil, DefaultThresholds()) != nil {
		t.Error("nil snapshot should yield no alerts")
	}
}

func TestRouter_StartRequestsOnce(t *testing.T) {
	tests := []struct {
		name         string
		initial      Permission
		wantRequests int
		want         Permission
	}{
		{"default prompts", PermissionDefault, 1, PermissionGranted},
		{"granted never prompts", PermissionGranted, 0, PermissionGranted},
		{"denied never prompts", PermissionDenied, 0, PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{perm: tt.initial, grantTo: PermissionGranted}
			r := NewRouter(n)
			if got := r.Start(); got != tt.want {
				t.Errorf("Start() = %v, want %v", got, tt.want)
			}
			r.Start()
			if n.requests != tt.wantRequests {
				t.Errorf("requests = %d, want %d", n.requests, tt.wantRequests)
			}
		})
	}
}

func TestRouter_Handle(t *testing.T) {
	n := &fakeNotifier{perm: PermissionGranted}
	r := NewRouter(n)

	crit := models.UsageAlert{Kind: "Token usage(5 Hour)", Percentage: 91.46, Severity: models.SeverityCritical}
	warn := models.UsageAlert{Kind: "MCP usage(1 Month)", Percentage: 72, Severity: models.SeverityWarning}
	r.Handle(crit)
	r.Handle(warn)
	r.Handle(crit)

	want := []string{
		"Critical Usage Alert|Token usage(5 Hour): 91.5% used",
		"Usage Warning|MCP usage(1 Month): 72.0% used",
		"Critical Usage Alert|Token usage(5 Hour): 91.5% used",
	}
	if len(n.shown) != len(want) {
		t.Fatalf("shown %d notifications, want %d", len(n.shown), len(want))
	}
	for i := range want {
		if n.shown[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, n.shown[i], want[i])
		}
	}
	if shown, dropped := r.Counts(); shown != 3 || dropped != 0 {
		t.Errorf("Counts() = %d, %d", shown, dropped)
	}
}

func TestRouter_DropsWithoutPermission(t *testing.T) {
	for _, perm := range []Permission{PermissionDefault, PermissionDenied} {
		n := &fakeNotifier{perm: perm}
		r := NewRouter(n)
		r.Handle(models.UsageAlert{Kind: "x", Percentage: 99, Severity: models.SeverityCritical})
		if len(n.shown) != 0 {
			t.Errorf("%v: alert should be dropped", perm)
		}
		if _, dropped := r.Counts(); dropped != 1 {
			t.Errorf("%v: dropped = %d, want 1", perm, dropped)
		}
	}
}

func TestRouter_ShowError(t *testing.T) {
	n := &fakeNotifier{perm: PermissionGranted, showError: errors.New("dbus unavailable")}
	r := NewRouter(n)
	r.Handle(models.UsageAlert{Kind: "x", Percentage: 80, Severity: models.SeverityWarning})
	if shown, _ := r.Counts(); shown != 0 {
		t.Errorf("shown = %d, want 0", shown)
	}
}

func TestDesktopNotifier(t *testing.T) {
	var got []string
	d := NewDesktopNotifier(true)
	d.notify = func(title, message string, _ any) error {
		got = append(got, title+"|"+message)
		return nil
	}

	if d.Permission() != PermissionDefault {
		t.Error("permission should start undecided")
	}
	if d.RequestPermission() != PermissionGranted {
		t.Error("enabled notifier should grant")
	}
	if err := d.Show("t", "b"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if len(got) != 1 || got[0] != "t|b" {
		t.Errorf("notify calls = %v", got)
	}

	off := NewDesktopNotifier(false)
	if off.RequestPermission() != PermissionDenied {
		t.Error("disabled notifier should deny")
	}
}
