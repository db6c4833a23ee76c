package thermal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZone(t *testing.T, root, name, typ, temp string) {
	t.Helper()
	dir := filepath.Join(root, "class", "thermal", "thermal_zone"+name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for f, v := range map[string]string{"type": typ, "policy": "step_wise", "temp": temp} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(v+"\n"), 0o644))
	}
}

func TestCelsius(t *testing.T) {
	root := t.TempDir()
	writeZone(t, root, "0", "gpu-thermal", "48200")
	writeZone(t, root, "1", "cpu-thermal", "61500")

	r, err := New(root, DefaultZone)
	require.NoError(t, err)
	c, err := r.Celsius()
	require.NoError(t, err)
	assert.InDelta(t, 61.5, c, 1e-9)

	r, err = New(root, "")
	require.NoError(t, err)
	c, err = r.Celsius()
	require.NoError(t, err)
	assert.InDelta(t, 48.2, c, 1e-9, "first zone without a preference")

}

func TestCelsius_UnknownZone(t *testing.T) {
	root := t.TempDir()
	writeZone(t, root, "2", "gpu-thermal", "48200")
	writeZone(t, root, "10", "soc-thermal", "61500")

	r, err := New(root, DefaultZone)
	require.NoError(t, err)
	_, err = r.Celsius()
	require.ErrorIs(t, err, ErrNoZone)
	assert.Contains(t, err.Error(), `"cpu-thermal"`)
	assert.Contains(t, err.Error(), "gpu-thermal")
	assert.Contains(t, err.Error(), "soc-thermal")

	r, err = New(root, "soc-thermal")
	require.NoError(t, err)
	c, err := r.Celsius()
	require.NoError(t, err)
	assert.InDelta(t, 61.5, c, 1e-9)
}

func TestCelsius_NoZones(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "thermal"), 0o755))

	r, err := New(root, DefaultZone)
	require.NoError(t, err)
	_, err = r.Celsius()
	assert.ErrorIs(t, err, ErrNoZone)
}

func TestNew_BadMount(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)
}
