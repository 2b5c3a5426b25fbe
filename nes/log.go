package nes

import "github.com/golang/glog"

// zone is one of the logging categories named by the -l flag: main, misc,
// 6502, c64, mem, nes, mapper, ppu, apu, display, or "*" for all of them.
type zone string

const (
	zoneMain    zone = "main"
	zoneMisc    zone = "misc"
	zone6502    zone = "6502"
	zoneC64     zone = "c64"
	zoneMem     zone = "mem"
	zoneNes     zone = "nes"
	zoneMapper  zone = "mapper"
	zonePpu     zone = "ppu"
	zoneApu     zone = "apu"
	zoneDisplay zone = "display"
)

// enabledZones holds the set turned on by -l; nil means nothing is enabled,
// which matches glog's own default of "log nothing unless asked".
var enabledZones map[zone]bool

// enableZones is called once at startup by cmd/nesgo after parsing -l.
func enableZones(zones ...zone) {
	enabledZones = make(map[zone]bool, len(zones))
	for _, z := range zones {
		enabledZones[z] = true
	}
}

// EnableLogging turns on the named zones (main, misc, 6502, c64, mem, nes,
// mapper, ppu, apu, display, or "*"), matching -l's accepted values.
// Unrecognized names are still recorded verbatim (harmless: they just never
// match zoneEnabled) rather than rejected, since -l is meant to be cheap to
// use while chasing down a bug.
func EnableLogging(names ...string) {
	zones := make([]zone, len(names))
	for i, n := range names {
		zones[i] = zone(n)
	}
	enableZones(zones...)
}

func zoneEnabled(z zone) bool {
	if enabledZones == nil {
		return false
	}
	return enabledZones["*"] || enabledZones[z]
}

// logf logs a soft anomaly (§7 kind 3: observed but not actionable) under z,
// if that zone is enabled. These never abort and never return an error.
func logf(z zone, format string, args ...interface{}) {
	if !zoneEnabled(z) {
		return
	}
	glog.Infof(string(z)+": "+format, args...)
}
