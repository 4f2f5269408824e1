// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/surveypilot/internal/observability"
)

// result captures one command execution.
type result struct {
	stdout string
	stderr string
	err    error
}

// executeCommand runs a pristine command tree in an empty working directory, so no stray
// ./config.yaml is picked up.
func executeCommand(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	return executeCommandWithInput(t, strings.NewReader(stdin), args...)
}

// executeCommandWithInput is executeCommand with a caller supplied stdin.
func executeCommandWithInput(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	chdir(t, t.TempDir())

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(stdin)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// chdir changes the working directory for the rest of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// writeFiles creates files under a fresh temporary directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// questionnairePages is a short questionnaire in the order the site might serve it.
var questionnairePages = map[string]string{
	"01_age.html": `<html><body><form>
		<h2>Quel est votre âge ?</h2>
		<div><input type="radio" name="age" id="a1"><label for="a1">Moins de 15 ans</label></div>
		<div><input type="radio" name="age" id="a2"><label for="a2">15 à 24 ans</label></div>
		<div><input type="radio" name="age" id="a3"><label for="a3">25 à 34 ans</label></div>
		<div><input type="radio" name="age" id="a4"><label for="a4">35 à 49 ans</label></div>
		<div><input type="radio" name="age" id="a5"><label for="a5">50 ans et plus</label></div>
		<button>Suivant</button>
	</form></body></html>`,
	"02_problem.html": `<html><body><form>
		<h2>Avez-vous rencontré un problème durant votre visite ?</h2>
		<div><input type="radio" name="p" id="p1"><label for="p1">Oui</label></div>
		<div><input type="radio" name="p" id="p2"><label for="p2">Non</label></div>
		<button>Suivant</button>
	</form></body></html>`,
	"03_done.html": `<html><body><h1>Merci pour votre participation !</h1></body></html>`,
}

// fastConfig removes every settle delay so snapshot campaigns finish immediately.
const fastConfig = `
logger:
  level: debug
timing:
  page_load_settle: 0s
  iteration_settle: 0s
  post_fill_settle: 0s
  post_advance_settle: 0s
  scroll_settle: 0s
`
