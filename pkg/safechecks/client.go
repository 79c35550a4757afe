package safechecks

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/safechecks/safechecks/internal/draft"
	"github.com/safechecks/safechecks/internal/gateway"
	"github.com/safechecks/safechecks/internal/journal"
	"github.com/safechecks/safechecks/internal/record"
	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/internal/syncer"
	"github.com/safechecks/safechecks/internal/tasks"
	"github.com/safechecks/safechecks/internal/workspace"
	"github.com/safechecks/safechecks/pkg/config"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/metrics"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/progress"
	"github.com/safechecks/safechecks/pkg/textutil"
)

// Remote drivers.
const (
	RemoteHTTP   = "http"
	RemoteXLSX   = "xlsx"
	RemoteMemory = "memory"
	RemoteNone   = "none"
)

// Client provides high-level operations on one device workspace.
type Client struct {
	ws      *workspace.Workspace
	cfg     *config.Config
	store   *store.Local
	remote  sheets.RowStore
	closer  io.Closer
	device  model.Device
	builder *record.Builder
	drafts  *draft.Engine
	tasks   *tasks.Scheduler
	sync    *syncer.Engine
	journal *journal.Journal
	metrics *metrics.Registry
	log     *logging.Logger
	now     func() time.Time
}

// InitOptions configures workspace initialization.
type InitOptions struct {
	Dept    model.Department // required
	StaffID string           // optional; resolved against settings staff
	Config  *config.Config   // nil uses config.Default()
}

type options struct {
	remote   sheets.RowStore
	now      func() time.Time
	progress progress.Callback
	metrics  *metrics.Registry
}

// Option tunes Open.
type Option func(*options)

// WithRemote replaces the configured remote row store.
func WithRemote(r sheets.RowStore) Option {
	return func(o *options) { o.remote = r }
}

// WithClock overrides time.Now in every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithProgress receives retry progress.
func WithProgress(cb progress.Callback) Option {
	return func(o *options) { o.progress = cb }
}

// WithMetrics records sync metrics in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// Init creates a workspace at path and records this device's identity.
func Init(path string, opts InitOptions, extra ...Option) (*Client, error) {
	if !opts.Dept.Valid() {
		return nil, errclass.ErrValidation.WithMessagef("unknown department %q", opts.Dept)
	}
	ws, err := workspace.Init(path, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("safechecks init: %w", err)
	}
	c, err := open(ws, extra...)
	if err != nil {
		return nil, err
	}
	c.device = model.Device{
		ID:      uuid.NewString(),
		Dept:    opts.Dept,
		StaffID: textutil.Clean(opts.StaffID),
	}
	if err := c.store.SaveDevice(c.device); err != nil {
		c.Close()
		return nil, err
	}
	c.rewire()
	return c, nil
}

// Open opens the workspace at or above path.
func Open(path string, extra ...Option) (*Client, error) {
	ws, err := workspace.Discover(path)
	if err != nil {
		return nil, fmt.Errorf("safechecks open: %w", err)
	}
	return open(ws, extra...)
}

func open(ws *workspace.Workspace, extra ...Option) (*Client, error) {
	o := options{now: time.Now, progress: progress.Noop}
	for _, fn := range extra {
		fn(&o)
	}

	cfg, err := config.Load(ws.Root)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.Driver, ws.StorePath(cfg))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	c := &Client{
		ws:      ws,
		cfg:     cfg,
		store:   st,
		journal: journal.New(ws.JournalPath()),
		metrics: o.metrics,
		log:     logging.Global().WithFields(map[string]any{"workspace": ws.Root}),
		now:     o.now,
	}
	if dev, found, err := st.Device(); err != nil {
		st.Close()
		return nil, err
	} else if found {
		c.device = dev
	}

	c.remote = o.remote
	if c.remote == nil {
		if c.remote, c.closer, err = c.openRemote(); err != nil {
			st.Close()
			return nil, err
		}
	}

	c.builder = record.NewBuilder(record.WithClock(c.now))
	c.tasks = tasks.NewScheduler(st)
	c.tasks.SetClock(c.now)
	c.drafts = draft.NewEngine(st, c.device.ID, nil)
	c.drafts.SetClock(c.now)
	c.sync = syncer.New(st, c.remote, c.drafts, c.tasks, syncer.Options{
		MinPullInterval: cfg.Sync.MinPullInterval,
		RetryDelay:      cfg.Sync.RetryDelay,
		DispatchQueue:   cfg.Sync.DispatchQueue,
		PushTimeout:     cfg.Remote.Timeout,
		Logger:          c.log,
		Metrics:         o.metrics,
		Journal:         c.journal,
		Progress:        o.progress,
		Clock:           c.now,
	})
	return c, nil
}

// rewire rebuilds the draft engine after the device identity changed.
func (c *Client) rewire() {
	c.drafts = draft.NewEngine(c.store, c.device.ID, c.sync)
	c.drafts.SetClock(c.now)
	c.sync.SetDrafts(c.drafts)
}

// openRemote builds the configured row store. A nil store with no error
// means sync is not configured.
func (c *Client) openRemote() (sheets.RowStore, io.Closer, error) {
	switch c.cfg.Remote.Driver {
	case RemoteHTTP, "":
		endpoint, err := c.store.Endpoint()
		if err != nil {
			return nil, nil, err
		}
		if endpoint == "" {
			endpoint = c.cfg.Remote.URL
		}
		if endpoint == "" {
			return nil, nil, nil
		}
		return sheets.NewClient(endpoint, c.cfg.Remote.Secret, c.cfg.Remote.Timeout), nil, nil
	case RemoteXLSX:
		if c.cfg.Remote.Workbook == "" {
			return nil, nil, errclass.ErrValidation.WithMessage("remote.workbook is required for the xlsx driver")
		}
		wb, err := gateway.OpenWorkbook(c.ws.ResolvePath(c.cfg.Remote.Workbook))
		if err != nil {
			return nil, nil, err
		}
		return wb, wb, nil
	case RemoteMemory:
		return sheets.NewMemory(), nil, nil
	case RemoteNone:
		return nil, nil, nil
	}
	return nil, nil, errclass.ErrValidation.WithMessagef("unknown remote driver %q", c.cfg.Remote.Driver)
}

// Close drains background pushes and releases the store.
func (c *Client) Close() error {
	var errs []error
	if c.sync != nil {
		errs = append(errs, c.sync.Close())
	}
	if c.closer != nil {
		errs = append(errs, c.closer.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}

// Root returns the workspace root directory.
func (c *Client) Root() string { return c.ws.Root }

// Workspace returns the opened workspace.
func (c *Client) Workspace() *workspace.Workspace { return c.ws }

// Config returns the loaded configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Store returns the local store.
func (c *Client) Store() *store.Local { return c.store }

// Sync returns the sync engine.
func (c *Client) Sync() *syncer.Engine { return c.sync }

// Journal returns the sync journal.
func (c *Client) Journal() *journal.Journal { return c.journal }

// Metrics returns the metrics registry, or nil when metrics are off.
func (c *Client) Metrics() *metrics.Registry { return c.metrics }

// Device returns this device's identity.
func (c *Client) Device() model.Device { return c.device }

// Configured reports whether a remote row store is available.
func (c *Client) Configured() bool { return c.remote != nil }

func (c *Client) requireDevice() error {
	if c.device.ID == "" || !c.device.Dept.Valid() {
		return errclass.ErrValidation.WithMessage("device not initialized (run 'safechecks init')")
	}
	return nil
}

// SetDevice changes the department or staff of this device.
func (c *Client) SetDevice(dept model.Department, staffID string) (model.Device, error) {
	if !dept.Valid() {
		return c.device, errclass.ErrValidation.WithMessagef("unknown department %q", dept)
	}
	dev := c.device
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	dev.Dept = dept
	dev.StaffID = textutil.Clean(staffID)
	if err := c.store.SaveDevice(dev); err != nil {
		return c.device, err
	}
	changed := dev.ID != c.device.ID
	c.device = dev
	if changed {
		c.rewire()
	}
	return dev, nil
}

// StaffName resolves the current staff member's display name.
func (c *Client) StaffName() (string, error) {
	s, err := c.Settings()
	if err != nil {
		return "", err
	}
	return settings.StaffName(s, c.device), nil
}

// Connect saves an endpoint override. It takes effect the next time the
// workspace is opened.
func (c *Client) Connect(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errclass.ErrValidation.WithMessagef("invalid endpoint %q", endpoint)
	}
	return c.store.SetEndpoint(u.String())
}

// Disconnect removes the endpoint override. Local records are kept.
func (c *Client) Disconnect() error {
	return c.store.SetEndpoint("")
}

// Endpoint returns the effective HTTP endpoint, if any.
func (c *Client) Endpoint() (string, error) {
	e, err := c.store.Endpoint()
	if err != nil || e != "" {
		return e, err
	}
	return c.cfg.Remote.URL, nil
}
