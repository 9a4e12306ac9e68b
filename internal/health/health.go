// Package health runs the doctor checks for tasknotify.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/tasknotify/internal/notify"
	"golang.org/x/sync/errgroup"
)

// maxParallelChecks bounds concurrently running checks
const maxParallelChecks = 4

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Warning marks a failed check that does not fail the report
	Warning bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Pinger is the task API reachability probe; api.Client implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Inputs are the resources the checks inspect. Nil fields are reported as
// failed checks rather than skipped.
type Inputs struct {
	ConfigErr   error
	EmployeeID  string
	IdentityErr error
	StateDir    string
	API         Pinger
	Sender      notify.Sender
	Permission  notify.Permission
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed && !c.Warning {
		r.Passed = false
	}
}

// RunHealthChecks runs all health checks and returns a report
func RunHealthChecks(ctx context.Context, in Inputs) *HealthReport {
	checks := []func(context.Context) CheckResult{
		func(context.Context) CheckResult { return CheckConfig(in.ConfigErr) },
		func(context.Context) CheckResult { return CheckIdentity(in.EmployeeID, in.IdentityErr) },
		func(context.Context) CheckResult { return CheckStateDir(in.StateDir) },
		func(ctx context.Context) CheckResult { return CheckAPI(ctx, in.API) },
		func(context.Context) CheckResult { return CheckNotifications(in.Sender) },
		func(context.Context) CheckResult { return CheckSound(in.Sender) },
		func(context.Context) CheckResult { return CheckPermission(in.Permission) },
	}

	// Checks run concurrently; results keep declaration order.
	results := make([]CheckResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check(gctx)
			return nil
		})
	}
	_ = g.Wait()

	report := &HealthReport{
		Checks: make([]CheckResult, 0, len(results)),
		Passed: true,
	}
	for _, r := range results {
		report.add(r)
	}
	return report
}

// CheckConfig reports whether the configuration loaded
func CheckConfig(err error) CheckResult {
	if err != nil {
		return CheckResult{Name: "Config", Message: fmt.Sprintf("configuration invalid: %v", err)}
	}
	return CheckResult{Name: "Config", Passed: true, Message: "configuration loaded"}
}

// CheckIdentity reports whether an employee ID resolved
func CheckIdentity(employeeID string, err error) CheckResult {
	if employeeID == "" {
		msg := "no employee ID; run 'tasknotify login <employee-id>'"
		if err != nil {
			msg = fmt.Sprintf("%s (%v)", msg, err)
		}
		return CheckResult{Name: "Identity", Message: msg}
	}
	return CheckResult{Name: "Identity", Passed: true, Message: fmt.Sprintf("employee %s", employeeID)}
}

// CheckStateDir verifies the state directory can be created and written
func CheckStateDir(dir string) CheckResult {
	if dir == "" {
		return CheckResult{Name: "State directory", Message: "state directory not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: "State directory", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	if err := writable(dir); err != nil {
		return CheckResult{Name: "State directory", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	return CheckResult{Name: "State directory", Passed: true, Message: filepath.Clean(dir)}
}

// CheckAPI pings the task API
func CheckAPI(ctx context.Context, api Pinger) CheckResult {
	if api == nil {
		return CheckResult{Name: "Task API", Message: "task API client not configured"}
	}
	if err := api.Ping(ctx); err != nil {
		return CheckResult{Name: "Task API", Message: fmt.Sprintf("task API unreachable: %v", err)}
	}
	return CheckResult{Name: "Task API", Passed: true, Message: "task API reachable"}
}

// CheckNotifications reports whether desktop notifications can be shown
func CheckNotifications(s notify.Sender) CheckResult {
	if s == nil || !s.VisualAvailable() {
		return CheckResult{Name: "Desktop notifications", Message: "no desktop notification tool available"}
	}
	return CheckResult{Name: "Desktop notifications", Passed: true, Message: "desktop notifications available"}
}

// CheckSound reports whether the chime can be played. A missing player only
// warns; notifications still work without it.
func CheckSound(s notify.Sender) CheckResult {
	if s == nil || !s.SoundAvailable() {
		return CheckResult{Name: "Sound", Warning: true, Message: "no audio player found; chimes will be skipped"}
	}
	return CheckResult{Name: "Sound", Passed: true, Message: "audio player available"}
}

// CheckPermission reports the stored notification permission
func CheckPermission(p notify.Permission) CheckResult {
	switch p {
	case notify.PermissionGranted:
		return CheckResult{Name: "Permission", Passed: true, Message: "notifications granted"}
	case notify.PermissionDenied:
		return CheckResult{Name: "Permission", Message: "notifications denied; run 'tasknotify notify-test --reset-permission'"}
	default:
		return CheckResult{Name: "Permission", Passed: true, Message: "not yet requested; asked on first watch"}
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		switch {
		case check.Passed:
			fmt.Fprintf(&b, "✓ %s: %s\n", check.Name, check.Message)
		case check.Warning:
			fmt.Fprintf(&b, "! Warning: %s: %s\n", check.Name, check.Message)
		default:
			fmt.Fprintf(&b, "✗ Error: %s: %s\n", check.Name, check.Message)
		}
	}
	return b.String()
}
