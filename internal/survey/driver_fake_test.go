package survey

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/surveypilot/api/schemas"
	"go.uber.org/zap/zaptest"
)

// -- Scripted Driver --

type fakeControl struct {
	handle schemas.ControlHandle
	label  string
}

type fakePage struct {
	text     string
	controls map[schemas.ControlKind][]fakeControl
}

func newPage(text string) fakePage {
	return fakePage{text: text, controls: map[schemas.ControlKind][]fakeControl{}}
}

// with adds controls of kind, one per label.
func (p fakePage) with(kind schemas.ControlKind, labels ...string) fakePage {
	for _, l := range labels {
		n := len(p.controls[kind])
		p.controls[kind] = append(p.controls[kind], fakeControl{
			handle: schemas.ControlHandle{ID: fmt.Sprintf("%s-%d", kind, n), Kind: kind},
			label:  l,
		})
	}
	return p
}

// withField adds a text field with explicit attributes.
func (p fakePage) withField(inputType, placeholder, label string) fakePage {
	n := len(p.controls[schemas.ControlTextField])
	p.controls[schemas.ControlTextField] = append(p.controls[schemas.ControlTextField], fakeControl{
		handle: schemas.ControlHandle{
			ID:          fmt.Sprintf("%s-%d", schemas.ControlTextField, n),
			Kind:        schemas.ControlTextField,
			InputType:   inputType,
			Placeholder: placeholder,
		},
		label: label,
	})
	return p
}

// withNext adds the "Suivant" button.
func (p fakePage) withNext() fakePage {
	n := len(p.controls[schemas.ControlButton])
	p.controls[schemas.ControlButton] = append(p.controls[schemas.ControlButton], fakeControl{
		handle: schemas.ControlHandle{ID: fmt.Sprintf("button-%d", n), Kind: schemas.ControlButton, Text: "Suivant"},
	})
	return p
}

// scriptedDriver walks a fixed list of pages. Clicking a "next" button moves to the following page.
type scriptedDriver struct {
	mu       sync.Mutex
	pages    []fakePage
	current  int
	loads    int
	clicks   []string
	texts    map[string]string
	loadErr  error
	textErr  error
	clickErr error
}

func newScriptedDriver(pages ...fakePage) *scriptedDriver {
	return &scriptedDriver{pages: pages, texts: map[string]string{}}
}

func (d *scriptedDriver) LoadPage(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return fmt.Errorf("%w: %v", schemas.ErrNavigation, d.loadErr)
	}
	d.loads++
	d.current = 0
	return nil
}

func (d *scriptedDriver) VisibleText(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.textErr != nil {
		return "", d.textErr
	}
	return d.pages[d.current].text, nil
}

func (d *scriptedDriver) FindControls(ctx context.Context, kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []schemas.ControlHandle
	for _, c := range d.pages[d.current].controls[kind] {
		out = append(out, c.handle)
	}
	return out, nil
}

func (d *scriptedDriver) lookup(h schemas.ControlHandle) (fakeControl, error) {
	for _, c := range d.pages[d.current].controls[h.Kind] {
		if c.handle.ID == h.ID {
			return c, nil
		}
	}
	return fakeControl{}, schemas.ErrStaleHandle
}

func (d *scriptedDriver) Label(ctx context.Context, h schemas.ControlHandle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.lookup(h)
	return c.label, err
}

func (d *scriptedDriver) Click(ctx context.Context, h schemas.ControlHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clickErr != nil {
		return d.clickErr
	}
	if _, err := d.lookup(h); err != nil {
		return err
	}
	d.clicks = append(d.clicks, h.ID)
	if h.Kind == schemas.ControlButton && containsAny(h.Text, "suivant", "next") && d.current < len(d.pages)-1 {
		d.current++
	}
	return nil
}

func (d *scriptedDriver) SetText(ctx context.Context, h schemas.ControlHandle, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.lookup(h); err != nil {
		return err
	}
	d.texts[h.ID] = value
	return nil
}

func (d *scriptedDriver) Close(ctx context.Context) error { return nil }

func (d *scriptedDriver) clicked() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

// -- Mock Driver --

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) LoadPage(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) VisibleText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) FindControls(ctx context.Context, kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	args := m.Called(ctx, kind)
	handles, _ := args.Get(0).([]schemas.ControlHandle)
	return handles, args.Error(1)
}

func (m *MockDriver) Label(ctx context.Context, h schemas.ControlHandle) (string, error) {
	args := m.Called(ctx, h)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Click(ctx context.Context, h schemas.ControlHandle) error {
	return m.Called(ctx, h).Error(0)
}

func (m *MockDriver) SetText(ctx context.Context, h schemas.ControlHandle, value string) error {
	return m.Called(ctx, h, value).Error(0)
}

func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Pausers --

type recordingPauser struct {
	mu     sync.Mutex
	pauses []time.Duration
	onCall func()
}

func (p *recordingPauser) Pause(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.pauses = append(p.pauses, d)
	hook := p.onCall
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ctx.Err()
}

func (p *recordingPauser) recorded() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.pauses...)
}

// -- Fixtures --

var (
	// fixedNow is a mid-day clock, two days after the test campaign window.
	fixedNow      = time.Date(2026, time.March, 12, 14, 30, 0, 0, time.UTC)
	defaultAges   = [5]int{0, 10, 30, 20, 40}
	fixedClock    = func() time.Time { return fixedNow }
	testStartDate = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
)

func testCampaign() CampaignConfig {
	return CampaignConfig{
		TargetURL:       "https://survey.example/start",
		SiteID:          "0610",
		DateStart:       testStartDate,
		DateEnd:         testStartDate,
		HourStart:       ClockTime(8 * 60),
		HourEnd:         ClockTime(22 * 60),
		Comment:         "Très bonne expérience",
		SurveyCount:     1,
		DelayBetween:    5 * time.Second,
		MaxAttempts:     30,
		DateFormat:      "02/01/2006",
		AgeDistribution: defaultAges,
	}
}

func testSampler(ages [5]int) *Sampler {
	return NewSampler(rand.New(rand.NewSource(42)), fixedClock, ages)
}

func newTestDispatcher(t *testing.T, cfg CampaignConfig) *Dispatcher {
	t.Helper()
	return NewDispatcher(cfg, testSampler(cfg.AgeDistribution), zaptest.NewLogger(t))
}
