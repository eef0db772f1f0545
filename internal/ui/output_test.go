package ui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/launchpad/internal/ui"
)

func TestWriter_StatusGoesToStderr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(w *ui.Writer)
		prefix string
		msg    string
	}{
		{name: "success", write: func(w *ui.Writer) { w.Success("cached") }, prefix: "✓", msg: "cached"},
		{name: "warning", write: func(w *ui.Writer) { w.Warning("caution") }, prefix: "warning:", msg: "caution"},
		{name: "error", write: func(w *ui.Writer) { w.Error("broke") }, prefix: "error:", msg: "broke"},
		{name: "info", write: func(w *ui.Writer) { w.Infof("resolved %s", "v0.3.2") }, prefix: "info:", msg: "resolved v0.3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out, errOut bytes.Buffer
			w := ui.NewWriterWithOutputs(&out, &errOut, true)

			tt.write(w)

			assert.Empty(t, out.String())
			assert.Equal(t, tt.prefix+" "+tt.msg+"\n", errOut.String())
		})
	}
}

func TestWriter_Color(t *testing.T) {
	t.Parallel()

	var errOut bytes.Buffer
	w := ui.NewWriterWithOutputs(&bytes.Buffer{}, &errOut, false)

	w.Success("done")

	assert.Contains(t, errOut.String(), "\033[32m")
	assert.Contains(t, errOut.String(), "done")
}

func TestWriter_NoColor(t *testing.T) {
	t.Parallel()

	var errOut bytes.Buffer
	w := ui.NewWriterWithOutputs(&bytes.Buffer{}, &errOut, true)

	w.Errorf("code %d", 1)

	assert.NotContains(t, errOut.String(), "\033[")
}

func TestWriter_JSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w := ui.NewWriterWithOutputs(&out, &bytes.Buffer{}, true)

	err := w.JSON(map[string]any{"command": "/bin/tool", "args": []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"/bin/tool","args":[]}`, out.String())
}

func TestWriter_Table(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w := ui.NewWriterWithOutputs(&out, &bytes.Buffer{}, true)

	err := w.Table([]string{"SERVER", "VERSION"}, [][]string{
		{"mcp-k8s", "v0.3.2"},
		{"other-server", "v1.0.0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "SERVER        VERSION\nmcp-k8s       v0.3.2\nother-server  v1.0.0\n", out.String())
}

func TestWriter_Println(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w := ui.NewWriterWithOutputs(&out, &bytes.Buffer{}, true)

	w.Println("/bin/tool")
	assert.Equal(t, "/bin/tool\n", out.String())
}
