// Package doctor checks the health of a device workspace.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/safechecks/safechecks/internal/journal"
	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/internal/workspace"
	"github.com/safechecks/safechecks/pkg/config"
)

// Severities, in increasing order.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// StalePullAge is how old the last pull may be before it is reported.
const StalePullAge = 24 * time.Hour

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == SeverityCritical || f.Severity == SeverityError {
		r.Healthy = false
	}
}

// Doctor performs workspace health checks.
type Doctor struct {
	ws      *workspace.Workspace
	cfg     *config.Config
	store   *store.Local
	journal *journal.Journal
	now     func() time.Time
}

// NewDoctor creates a doctor. store and journal may be nil when they could
// not be opened; the checks that need them are then reported as failing.
func NewDoctor(ws *workspace.Workspace, cfg *config.Config, st *store.Local, j *journal.Journal) *Doctor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Doctor{ws: ws, cfg: cfg, store: st, journal: j, now: time.Now}
}

// SetClock overrides time.Now.
func (d *Doctor) SetClock(now func() time.Time) { d.now = now }

// Check runs all diagnostic checks. strict also verifies the journal chain.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	d.checkFormatVersion(result)
	if d.checkStore(result) {
		d.checkDevice(result)
		d.checkQueue(result)
		d.checkDrafts(result)
		d.checkEndpoint(result)
		d.checkLastPull(result)
		d.checkSettings(result)
	}
	if strict {
		d.checkJournal(result)
	}
	d.checkOrphanTmp(result)

	return result, nil
}

func (d *Doctor) checkFormatVersion(result *Result) {
	versionPath := filepath.Join(d.ws.Dir(), workspace.FormatVersionFile)
	data, err := os.ReadFile(versionPath)
	if err != nil {
		result.add(Finding{
			Category:    "format",
			Description: "format_version file missing or unreadable",
			Severity:    SeverityCritical,
			Path:        versionPath,
		})
		return
	}

	var version int
	fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &version)
	if version > workspace.FormatVersion {
		result.add(Finding{
			Category:    "format",
			Description: fmt.Sprintf("format version %d > supported %d", version, workspace.FormatVersion),
			Severity:    SeverityCritical,
		})
	}
}

func (d *Doctor) checkStore(result *Result) bool {
	if d.store == nil {
		result.add(Finding{
			Category:    "store",
			Description: "local store could not be opened",
			Severity:    SeverityCritical,
			Path:        d.ws.StorePath(d.cfg),
		})
		return false
	}
	if _, err := d.store.Records(); err != nil {
		result.add(Finding{
			Category:    "store",
			Description: fmt.Sprintf("records unreadable: %v", err),
			Severity:    SeverityCritical,
		})
		return false
	}
	return true
}

func (d *Doctor) checkDevice(result *Result) {
	dev, found, err := d.store.Device()
	switch {
	case err != nil:
		result.add(Finding{Category: "device", Description: fmt.Sprintf("device identity unreadable: %v", err), Severity: SeverityError})
	case !found || dev.ID == "":
		result.add(Finding{Category: "device", Description: "no device identity (run 'safechecks init')", Severity: SeverityError})
	case !dev.Dept.Valid():
		result.add(Finding{Category: "device", Description: fmt.Sprintf("device department %q is unknown", dev.Dept), Severity: SeverityError})
	}
}

func (d *Doctor) checkQueue(result *Result) {
	q, err := d.store.Queue()
	if err != nil {
		result.add(Finding{Category: "queue", Description: fmt.Sprintf("queue unreadable: %v", err), Severity: SeverityError})
		return
	}
	if len(q) > 0 {
		result.add(Finding{
			Category:    "queue",
			Description: fmt.Sprintf("%d record(s) waiting to be pushed (run 'safechecks sync retry')", len(q)),
			Severity:    SeverityWarning,
		})
	}
}

func (d *Doctor) checkDrafts(result *Result) {
	keys, err := d.store.DraftKeys()
	if err != nil {
		result.add(Finding{Category: "drafts", Description: fmt.Sprintf("drafts unreadable: %v", err), Severity: SeverityError})
		return
	}
	pending := 0
	for _, k := range keys {
		dr, found, err := d.store.Draft(k)
		if err != nil {
			result.add(Finding{Category: "drafts", Description: fmt.Sprintf("draft %s unreadable: %v", k, err), Severity: SeverityError})
			continue
		}
		if found && dr.Pending {
			pending++
		}
	}
	if pending > 0 {
		result.add(Finding{
			Category:    "drafts",
			Description: fmt.Sprintf("%d draft(s) not yet shared with other devices", pending),
			Severity:    SeverityInfo,
		})
	}
}

func (d *Doctor) checkEndpoint(result *Result) {
	switch d.cfg.Remote.Driver {
	case "none":
		result.add(Finding{Category: "remote", Description: "remote disabled; records stay on this device", Severity: SeverityInfo})
		return
	case "xlsx":
		if d.cfg.Remote.Workbook == "" {
			result.add(Finding{Category: "remote", Description: "xlsx remote has no workbook path", Severity: SeverityError})
		}
		return
	case "memory":
		return
	}
	url, err := d.store.Endpoint()
	if err == nil && url == "" {
		url = d.cfg.Remote.URL
	}
	if url == "" {
		result.add(Finding{
			Category:    "remote",
			Description: "no endpoint configured (run 'safechecks connect <url>')",
			Severity:    SeverityWarning,
		})
	}
}

func (d *Doctor) checkLastPull(result *Result) {
	if d.cfg.Remote.Driver == "none" {
		return
	}
	last, err := d.store.LastPull()
	if err != nil {
		return
	}
	if last.IsZero() {
		result.add(Finding{Category: "sync", Description: "never pulled from the remote", Severity: SeverityInfo})
		return
	}
	if age := d.now().Sub(last); age > StalePullAge {
		result.add(Finding{
			Category:    "sync",
			Description: fmt.Sprintf("last pull was %s ago", age.Round(time.Minute)),
			Severity:    SeverityWarning,
		})
	}
}

func (d *Doctor) checkSettings(result *Result) {
	s := settings.Defaults()
	if saved, found, err := d.store.Settings(); err != nil {
		result.add(Finding{Category: "settings", Description: fmt.Sprintf("settings unreadable: %v", err), Severity: SeverityError})
		return
	} else if found {
		s = settings.Merge(s, saved)
	}
	for _, p := range settings.Check(s) {
		result.add(Finding{Category: "settings", Description: p.Where + ": " + p.Message, Severity: SeverityWarning})
	}
}

func (d *Doctor) checkJournal(result *Result) {
	if d.journal == nil {
		return
	}
	if _, err := d.journal.Verify(); err != nil {
		result.add(Finding{
			Category:    "journal",
			Description: err.Error(),
			Severity:    SeverityCritical,
			Path:        d.journal.Path(),
		})
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	filepath.Walk(d.ws.Dir(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".safechecks-tmp-") {
			result.add(Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan temp file: %s", info.Name()),
				Severity:    SeverityInfo,
				Path:        path,
			})
		}
		return nil
	})
}

