package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Len(t, c.Banks, 4)

	bank, err := c.Bank("bL")
	require.NoError(t, err)
	assert.Equal(t, "Bank of Baroda", bank.Name)

	_, err = c.Bank("bl")
	assert.ErrorIs(t, err, ErrUnknownBank, "codes are case-sensitive")

	vt, err := c.ValuationType("plot")
	require.NoError(t, err)
	assert.Equal(t, "Plot Valuation", vt.Name)

	c, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.ValuationTypes, 2)
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
banks:
  - code: AXIS
    name: Axis Bank
    color: "#97144d"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Banks, 1)
	assert.Equal(t, "AXIS", c.Banks[0].Code)
	assert.Len(t, c.ValuationTypes, 2, "omitted section keeps defaults")

	_, err = c.Bank("HDFC")
	assert.ErrorIs(t, err, ErrUnknownBank)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("banks: [unterminated"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	noCode := filepath.Join(dir, "nocode.yaml")
	require.NoError(t, os.WriteFile(noCode, []byte("banks:\n  - name: Nameless\n"), 0o644))
	_, err = Load(noCode)
	assert.Error(t, err)
}
