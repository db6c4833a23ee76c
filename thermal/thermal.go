// Package thermal reads the SoC temperature from the kernel's thermal zones.
package thermal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/procfs/sysfs"
)

const (
	DefaultMount = sysfs.DefaultMountPoint
	// DefaultZone is the zone type the Raspberry Pi kernel reports for the SoC.
	DefaultZone = "cpu-thermal"
)

var ErrNoZone = errors.New("thermal: no thermal zone")

type Reader struct {
	fs   sysfs.FS
	zone string
}

// New opens the sysfs tree at mount. zone picks a zone by its type; when it is
// empty the first zone is used.
func New(mount, zone string) (*Reader, error) {
	if mount == "" {
		mount = DefaultMount
	}
	fs, err := sysfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("thermal: open %s: %w", mount, err)
	}
	return &Reader{fs: fs, zone: zone}, nil
}

// Celsius returns the current temperature of the selected zone.
func (r *Reader) Celsius() (float64, error) {
	zones, err := r.fs.ClassThermalZoneStats()
	if err != nil {
		return 0, fmt.Errorf("thermal: read zones: %w", err)
	}
	if len(zones) == 0 {
		return 0, ErrNoZone
	}
	if r.zone == "" {
		return float64(zones[0].Temp) / 1000, nil
	}
	types := make([]string, 0, len(zones))
	for _, z := range zones {
		if z.Type == r.zone {
			return float64(z.Temp) / 1000, nil
		}
		types = append(types, z.Type)
	}
	return 0, fmt.Errorf("%w of type %q (have %s)", ErrNoZone, r.zone, strings.Join(types, ", "))
}
