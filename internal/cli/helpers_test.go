package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const copyKernel = `name: copy
domains:
  - "[n] -> { [i] : 0 <= i < n }"
assumptions: "[n] -> { : n >= 1 }"
instructions:
  - id: S
    inames: [i]
slab_increments:
  i: [1, 1]
`

const unrollKernel = `name: unroll_n
domains:
  - "[n] -> { [i] : 0 <= i < n }"
instructions:
  - id: S
    inames: [i]
tags:
  i: unr
`

const peeledCode = `// bulk slab for 'i'
for (int i = 1; i <= n - 2; ++i) {
    S(i);
}
// initial slab for 'i'
{
    int const i = 0;
    S(i);
}
// final slab for 'i'
{
    int const i = n - 1;
    if (i >= 1) {
        S(i);
    }
}
`

// response mirrors CLIResponse with the payload left undecoded.
type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string, data any) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}
