package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/surveypilot/api/schemas"
)

func mustParse(t *testing.T, name, content string) *Page {
	t.Helper()
	p, err := ParseString(name, content)
	require.NoError(t, err)
	return p
}

func writePages(t *testing.T, pages map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestPage_VisibleText(t *testing.T) {
	p := mustParse(t, "text", `<html><head><title>ignored</title></head><body>
		<h1>Titre</h1>
		<script>var hidden = "script";</script>
		<style>p { color: red; }</style>
		<p style="display: none">caché</p>
		<div hidden>aussi caché</div>
		<p>Visible <b>gras</b>
		   et suite</p>
	</body></html>`)

	assert.Equal(t, "Titre\nVisible gras et suite", p.VisibleText())
}

func TestPage_ControlsAreStable(t *testing.T) {
	p := mustParse(t, "controls", `<body>
		<input type="radio" name="q" value="1"><input type="radio" name="q" value="2">
		<input type="text" placeholder="HH"><input type="hidden" name="token">
		<button>Suivant</button><input type="submit" value="Envoyer">
	</body>`)

	radios, err := p.controls(schemas.ControlExclusiveChoice)
	require.NoError(t, err)
	require.Len(t, radios, 2)
	again, err := p.controls(schemas.ControlExclusiveChoice)
	require.NoError(t, err)
	assert.Equal(t, radios, again)
	assert.NotEqual(t, radios[0].ID, radios[1].ID)

	fields, err := p.controls(schemas.ControlTextField)
	require.NoError(t, err)
	require.Len(t, fields, 1, "hidden inputs are not fields")
	assert.Equal(t, "text", fields[0].InputType)
	assert.Equal(t, "HH", fields[0].Placeholder)

	buttons, err := p.controls(schemas.ControlButton)
	require.NoError(t, err)
	require.Len(t, buttons, 2)
	assert.Equal(t, "Suivant", buttons[0].Text)
	assert.Equal(t, "Envoyer", buttons[1].Text)

	_, err = p.controls(schemas.ControlKind("slider"))
	assert.Error(t, err)
}

func TestPage_Label(t *testing.T) {
	p := mustParse(t, "labels", `<body>
		<div><input type="radio" name="a" id="oui"><label for="oui">Oui</label></div>
		<span><input type="radio" name="b" id="non"></span><label for="non">Non</label>
		<span><input type="checkbox" aria-label="Aucune"></span>
	</body>`)

	radios, err := p.controls(schemas.ControlExclusiveChoice)
	require.NoError(t, err)
	require.Len(t, radios, 2)

	label, ok := p.label(radios[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Oui", label, "parent text comes first")

	label, ok = p.label(radios[1].ID)
	require.True(t, ok)
	assert.Equal(t, "Non", label, "label[for] when the parent has no text")

	boxes, err := p.controls(schemas.ControlMultiChoice)
	require.NoError(t, err)
	label, ok = p.label(boxes[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Aucune", label)

	_, ok = p.label("sp-999")
	assert.False(t, ok)
}

func TestDriver_ClickAndType(t *testing.T) {
	ctx := context.Background()
	first := mustParse(t, "01.html", `<body>
		<input type="radio" name="q"><input type="radio" name="q">
		<input type="checkbox" name="c">
		<button type="button">Smiley</button>
		<input type="text" name="hour"><input type="text" name="locked" disabled>
		<textarea name="comment"></textarea>
		<button>Suivant</button>
	</body>`)
	second := mustParse(t, "02.html", `<body><p>Merci pour votre participation</p><button>Suivant</button></body>`)
	d := NewFromPages(zaptest.NewLogger(t), first, second)
	require.NoError(t, d.LoadPage(ctx, "https://survey.example"))

	radios, err := d.FindControls(ctx, schemas.ControlExclusiveChoice)
	require.NoError(t, err)
	require.NoError(t, d.Click(ctx, radios[0]))
	require.NoError(t, d.Click(ctx, radios[1]))
	assert.False(t, first.Checked(radios[0].ID), "radios in a group are exclusive")
	assert.True(t, first.Checked(radios[1].ID))

	boxes, err := d.FindControls(ctx, schemas.ControlMultiChoice)
	require.NoError(t, err)
	require.NoError(t, d.Click(ctx, boxes[0]))
	assert.True(t, first.Checked(boxes[0].ID))
	require.NoError(t, d.Click(ctx, boxes[0]))
	assert.False(t, first.Checked(boxes[0].ID))

	fields, err := d.FindControls(ctx, schemas.ControlTextField)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.NoError(t, d.SetText(ctx, fields[0], "12"))
	assert.Equal(t, "12", first.Value(fields[0].ID))
	assert.ErrorIs(t, d.SetText(ctx, fields[1], "x"), schemas.ErrStaleHandle)

	areas, err := d.FindControls(ctx, schemas.ControlFreeText)
	require.NoError(t, err)
	require.NoError(t, d.SetText(ctx, areas[0], "Très bien"))
	assert.Equal(t, "Très bien", first.Value(areas[0].ID))

	buttons, err := d.FindControls(ctx, schemas.ControlButton)
	require.NoError(t, err)
	require.Len(t, buttons, 2)
	require.NoError(t, d.Click(ctx, buttons[0]))
	assert.Same(t, first, d.Current(), "type=button does not submit")
	require.NoError(t, d.Click(ctx, buttons[1]))
	assert.Same(t, second, d.Current())

	last, err := d.FindControls(ctx, schemas.ControlButton)
	require.NoError(t, err)
	require.NoError(t, d.Click(ctx, last[0]))
	assert.Same(t, second, d.Current(), "the last page stays current")

	assert.ErrorIs(t, d.Click(ctx, schemas.ControlHandle{ID: "sp-404"}), schemas.ErrStaleHandle)

	log := d.Interactions()
	require.NotEmpty(t, log)
	assert.Equal(t, Interaction{Page: "01.html", Action: "load", Value: "https://survey.example"}, log[0])
	assert.Contains(t, log, Interaction{Page: "01.html", Action: "type", Handle: fields[0].ID, Value: "12"})
}

func TestDriver_Lifecycle(t *testing.T) {
	ctx := context.Background()
	d := NewFromPages(zaptest.NewLogger(t))
	_, err := d.VisibleText(ctx)
	assert.ErrorIs(t, err, schemas.ErrNavigation)
	assert.ErrorIs(t, d.LoadPage(ctx, "x"), schemas.ErrNavigation)

	d = NewFromPages(zaptest.NewLogger(t), mustParse(t, "p", "<p>x</p>"))
	require.NoError(t, d.LoadPage(ctx, "x"))
	require.NoError(t, d.Close(ctx))
	_, err = d.VisibleText(ctx)
	assert.ErrorIs(t, err, schemas.ErrDriverClosed)
	assert.ErrorIs(t, d.LoadPage(ctx, "x"), schemas.ErrDriverClosed)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewFromPages(zaptest.NewLogger(t)).FindControls(canceled, schemas.ControlButton)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	dir := writePages(t, map[string]string{
		"02_second.html": "<p>deux</p>",
		"01_first.html":  "<p>un</p>",
		"notes.txt":      "ignored",
	})
	d, err := Open(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, d.LoadPage(context.Background(), "file://"+dir))

	text, err := d.VisibleText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "un", text)

	_, err = Open(t.TempDir(), zaptest.NewLogger(t))
	assert.Error(t, err)
	_, err = Open(filepath.Join(dir, "missing"), zaptest.NewLogger(t))
	assert.Error(t, err)
}
