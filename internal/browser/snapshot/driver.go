package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/api/schemas"
)

// Interaction is one recorded driver action.
type Interaction struct {
	Page   string `json:"page"`
	Action string `json:"action"`
	Handle string `json:"handle,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Driver replays saved pages in file name order. Clicking a submit control moves to the next page;
// choices and fields update the in-memory document so later reads see them.
type Driver struct {
	mu     sync.Mutex
	files  []string
	pages  []*Page
	cur    int
	closed bool
	log    []Interaction
	logger *zap.Logger
}

var _ schemas.Driver = (*Driver)(nil)

// Open lists the *.html files of dir. Pages are parsed lazily, once per LoadPage.
func Open(dir string, logger *zap.Logger) (*Driver, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".html" || ext == ".htm" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .html pages in %s", dir)
	}
	sort.Strings(files)
	return &Driver{files: files, logger: logger.Named("snapshot")}, nil
}

// NewFromPages builds a driver over already parsed pages.
func NewFromPages(logger *zap.Logger, pages ...*Page) *Driver {
	return &Driver{pages: pages, logger: logger.Named("snapshot")}
}

// LoadPage restarts the sequence at the first page, re-reading the files when the driver has a
// directory source. The url is only recorded.
func (d *Driver) LoadPage(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return schemas.ErrDriverClosed
	}

	if len(d.files) > 0 {
		pages := make([]*Page, 0, len(d.files))
		for _, f := range d.files {
			p, err := ParseFile(f)
			if err != nil {
				return fmt.Errorf("%w: %v", schemas.ErrNavigation, err)
			}
			pages = append(pages, p)
		}
		d.pages = pages
	}
	if len(d.pages) == 0 {
		return fmt.Errorf("%w: no pages", schemas.ErrNavigation)
	}
	d.cur = 0
	d.record("load", "", url)
	d.logger.Debug("Loaded snapshot sequence.", zap.String("url", url), zap.Int("pages", len(d.pages)))
	return nil
}

// VisibleText returns the rendered text of the current page.
func (d *Driver) VisibleText(ctx context.Context) (string, error) {
	p, err := d.current(ctx)
	if err != nil {
		return "", err
	}
	defer d.mu.Unlock()
	return p.VisibleText(), nil
}

// FindControls lists the current page's controls of kind.
func (d *Driver) FindControls(ctx context.Context, kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	p, err := d.current(ctx)
	if err != nil {
		return nil, err
	}
	defer d.mu.Unlock()
	return p.controls(kind)
}

// Label returns the text around the control.
func (d *Driver) Label(ctx context.Context, h schemas.ControlHandle) (string, error) {
	p, err := d.current(ctx)
	if err != nil {
		return "", err
	}
	defer d.mu.Unlock()
	label, ok := p.label(h.ID)
	if !ok {
		return "", fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	return label, nil
}

// Click checks choices and advances on submit controls. The last page stays current once reached.
func (d *Driver) Click(ctx context.Context, h schemas.ControlHandle) error {
	p, err := d.current(ctx)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()

	el := p.find(h.ID)
	if el.Length() == 0 {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	d.record("click", h.ID, "")
	if advances(el) {
		if d.cur < len(d.pages)-1 {
			d.cur++
		}
		return nil
	}
	p.check(el)
	return nil
}

// SetText replaces the field's value.
func (d *Driver) SetText(ctx context.Context, h schemas.ControlHandle, value string) error {
	p, err := d.current(ctx)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()

	el := p.find(h.ID)
	if el.Length() == 0 {
		return fmt.Errorf("%w: %s", schemas.ErrStaleHandle, h.ID)
	}
	if _, disabled := el.Attr("disabled"); disabled {
		return fmt.Errorf("%w: %s is disabled", schemas.ErrStaleHandle, h.ID)
	}
	p.setValue(el, value)
	d.record("type", h.ID, value)
	return nil
}

// Close marks the driver closed.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Interactions returns a copy of the recorded actions.
func (d *Driver) Interactions() []Interaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Interaction(nil), d.log...)
}

// Current returns the page currently shown.
func (d *Driver) Current() *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pages) == 0 {
		return nil
	}
	return d.pages[d.cur]
}

// current locks the driver and returns the current page. On success the caller must unlock.
func (d *Driver) current(ctx context.Context) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, schemas.ErrDriverClosed
	}
	if len(d.pages) == 0 {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: no page loaded", schemas.ErrNavigation)
	}
	return d.pages[d.cur], nil
}

func (d *Driver) record(action, handle, value string) {
	name := ""
	if len(d.pages) > 0 {
		name = filepath.Base(d.pages[d.cur].Name)
	}
	d.log = append(d.log, Interaction{Page: name, Action: action, Handle: handle, Value: value})
}
