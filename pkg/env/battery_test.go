package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/crsf.go/pkg/crsf"
)

func writeAttrs(t *testing.T, attrs map[string]string) string {
	dir := t.TempDir()
	for name, val := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(val+"\n"), 0644))
	}
	return dir
}

func TestPowerSupplyRead(t *testing.T) {
	dir := writeAttrs(t, map[string]string{
		"voltage_now": "12600000",
		"current_now": "-1500000",
		"charge_full": "2200000",
		"capacity":    "87",
	})
	b, err := PowerSupply{Dir: dir}.Read()
	require.NoError(t, err)
	assert.Equal(t, &crsf.Battery{Voltage: 12.6, Current: 1500, Capacity: 2200, Remaining: 87}, b)
}

func TestPowerSupplyVoltageOnly(t *testing.T) {
	dir := writeAttrs(t, map[string]string{"voltage_now": "3700000"})
	b, err := PowerSupply{Dir: dir}.Read()
	require.NoError(t, err)
	assert.Equal(t, &crsf.Battery{Voltage: 3.7}, b)
}

func TestPowerSupplyErrors(t *testing.T) {
	_, err := PowerSupply{Dir: writeAttrs(t, nil)}.Read()
	assert.Error(t, err)

	_, err = PowerSupply{Dir: writeAttrs(t, map[string]string{"voltage_now": "x"})}.Read()
	assert.Error(t, err)

	b, err := PowerSupply{Dir: writeAttrs(t, map[string]string{"voltage_now": "1000000", "capacity": "250"})}.Read()
	require.NoError(t, err)
	assert.Equal(t, uint8(100), b.Remaining)
}
