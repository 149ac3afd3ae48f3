package normalize

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/imdidiff/pkg/logging"
)

const session = `<?xml version="1.0" encoding="UTF-8"?>
<METATRANSCRIPT xmlns="http://www.mpi.nl/IMDI/Schema/IMDI" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://www.mpi.nl/IMDI/Schema/IMDI ./IMDI_3.0.xsd" Type="SESSION" Version="0">
  <!-- exported -->
  <Session>
    <Name>kleve-route</Name>
    <MDGroup>
      <Actors>
        <Actor><Name>Zoe</Name><Role>Speaker</Role></Actor>
        <Actor><Name>Anna</Name><Role>Interviewer</Role></Actor>
      </Actors>
      <Keys>
        <Key Name="b">2</Key>
        <Key Name="a">1</Key>
      </Keys>
    </MDGroup>
  </Session>
</METATRANSCRIPT>`

func TestNormalizeIdempotent(t *testing.T) {
	n := New(DefaultOptions(), BuiltinIMDIRules(), nil)
	ctx := context.Background()

	_, first, err := n.Normalize(ctx, "session.imdi", []byte(session))
	require.NoError(t, err)

	_, second, err := n.Normalize(ctx, "session.imdi", first)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestNormalizeDeterministicAcrossOrderings(t *testing.T) {
	reordered := strings.NewReplacer(
		`<Actor><Name>Zoe</Name><Role>Speaker</Role></Actor>`, `<Actor><Name>Anna</Name><Role>Interviewer</Role></Actor>`,
		`<Actor><Name>Anna</Name><Role>Interviewer</Role></Actor>`, `<Actor><Name>Zoe</Name><Role>Speaker</Role></Actor>`,
		`Type="SESSION" Version="0"`, `Version="0" Type="SESSION"`,
	).Replace(session)
	require.NotEqual(t, session, reordered)

	n := New(DefaultOptions(), BuiltinIMDIRules(), nil)
	_, a, err := n.Normalize(context.Background(), "a.imdi", []byte(session))
	require.NoError(t, err)
	_, b, err := n.Normalize(context.Background(), "b.imdi", []byte(reordered))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestNormalizeBuiltinRules(t *testing.T) {
	n := New(DefaultOptions(), BuiltinIMDIRules(), nil)
	doc, out, err := n.Normalize(context.Background(), "session.imdi", []byte(session))
	require.NoError(t, err)

	_, ok := doc.Root.Attr("schemaLocation")
	assert.False(t, ok, "schemaLocation is dropped")
	assert.NotContains(t, string(out), "exported", "comments are dropped")

	actors := doc.Root.Child("Session").Child("MDGroup").Child("Actors").Children
	require.Len(t, actors, 2)
	assert.Equal(t, "Anna", actors[0].Child("Name").Text)
	assert.Equal(t, "Zoe", actors[1].Child("Name").Text)

	keys := doc.Root.Child("Session").Child("MDGroup").Child("Keys").Children
	require.Len(t, keys, 2)
	assert.Equal(t, "1", keys[0].Text)
}

func TestNormalizeWithoutRulesKeepsOrder(t *testing.T) {
	n := New(DefaultOptions(), nil, nil)
	doc, _, err := n.Normalize(context.Background(), "session.imdi", []byte(session))
	require.NoError(t, err)

	actors := doc.Root.Child("Session").Child("MDGroup").Child("Actors").Children
	assert.Equal(t, "Zoe", actors[0].Child("Name").Text)
	_, ok := doc.Root.Attr("schemaLocation")
	assert.True(t, ok)
}

func TestNormalizeParseError(t *testing.T) {
	n := New(DefaultOptions(), nil, nil)
	_, _, err := n.Normalize(context.Background(), "broken.imdi", []byte("<ROOT>\n<X>\n</ROOT>"))
	require.Error(t, err)

	var nerr *Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "broken.imdi", nerr.File)
	assert.Equal(t, StageParse, nerr.Stage)
	assert.Equal(t, 3, nerr.Line)
	assert.Contains(t, nerr.Error(), "line 3")
}

func TestParseRules(t *testing.T) {
	t.Run("SortByAttributeAndDrop", func(t *testing.T) {
		rs, err := ParseRules([]byte(`
rules:
  - path: /R/*
    drop_elements: [Tmp]
    sort_children:
      - element: I
        key: "@k"
`))
		require.NoError(t, err)

		n := New(DefaultOptions(), rs, nil)
		_, out, err := n.Normalize(context.Background(), "r.xml",
			[]byte(`<R><G><I k="b"/><Tmp/><X/><I k="a"/><I/></G></R>`))
		require.NoError(t, err)

		want := `<?xml version="1.0" encoding="UTF-8"?>
<R>
  <G>
    <I k="a"/>
    <X/>
    <I k="b"/>
    <I/>
  </G>
</R>
`
		assert.Equal(t, want, string(out))
	})

	t.Run("RelativePath", func(t *testing.T) {
		_, err := ParseRules([]byte("rules:\n  - path: R/X\n"))
		assert.Error(t, err)
	})

	t.Run("SortWithoutElement", func(t *testing.T) {
		_, err := ParseRules([]byte("rules:\n  - path: /R\n    sort_children:\n      - key: Name\n"))
		assert.Error(t, err)
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		_, err := ParseRules([]byte("rules: ["))
		assert.Error(t, err)
	})

	t.Run("LoadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - path: /R\n    drop_attributes: [x]\n"), 0644))
		rs, err := LoadRules(path)
		require.NoError(t, err)
		require.Len(t, rs.Rules, 1)
		assert.Equal(t, []string{"x"}, rs.Rules[0].DropAttributes)

		_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

type recordingLogger struct {
	logging.NullLogger
	mu    sync.Mutex
	warns []string
}

func (r *recordingLogger) Warn(_ context.Context, _ string, fields logging.Fields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, fields["message"].(string))
}

func (r *recordingLogger) WithFields(logging.Fields) logging.Logger { return r }

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "xform.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestCommandTransform(t *testing.T) {
	t.Run("StdinToStdout", func(t *testing.T) {
		script := writeScript(t, "echo 'stylesheet warning' >&2\nsed 's/OLD/NEW/'")
		logger := &recordingLogger{}

		cmd, err := NewCommand(script+" {stylesheet}", "style.xsl", logger)
		require.NoError(t, err)
		assert.Equal(t, []string{script, "style.xsl"}, cmd.Args())

		n := New(DefaultOptions(), nil, cmd)
		doc, _, err := n.Normalize(context.Background(), "a.imdi", []byte("<R>OLD</R>"))
		require.NoError(t, err)
		assert.Equal(t, "NEW", doc.Root.Text)
		assert.Equal(t, []string{"stylesheet warning"}, logger.warns)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		script := writeScript(t, "echo 'fatal: no template' >&2\nexit 3")
		cmd, err := NewCommand(script, "", nil)
		require.NoError(t, err)

		n := New(DefaultOptions(), nil, cmd)
		_, _, err = n.Normalize(context.Background(), "a.imdi", []byte("<R/>"))
		var nerr *Error
		require.True(t, errors.As(err, &nerr))
		assert.Equal(t, StageTransform, nerr.Stage)
		assert.Contains(t, err.Error(), "fatal: no template")
	})

	t.Run("Timeout", func(t *testing.T) {
		script := writeScript(t, "exec sleep 5")
		cmd, err := NewCommand(script, "", nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = cmd.Transform(ctx, "a.imdi", []byte("<R/>"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("MissingStylesheet", func(t *testing.T) {
		_, err := NewCommand(DefaultCommandTemplate, "", nil)
		assert.Error(t, err)
	})
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{File: "x.imdi", Stage: StageTransform, Err: errors.New("boom")}
	assert.Equal(t, "x.imdi: transform failed: boom", err.Error())
	assert.True(t, bytes.Contains([]byte(err.Error()), []byte("boom")))
}
