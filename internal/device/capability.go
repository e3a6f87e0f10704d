package device

import (
	"os"
	"runtime"
	"strings"
)

// Profile is a device capability profile.
type Profile uint8

const (
	// Generic is the portable profile.
	Generic Profile = iota
	// NEON is ARM64 ASIMD.
	NEON
	// SVE2 is ARM64 SVE2.
	SVE2
	// AVX2 is x86-64 AVX2 with FMA.
	AVX2
	// AVX512 is x86-64 AVX-512 (F+BW).
	AVX512
)

// EnvVar is the environment variable that overrides profile detection.
const EnvVar = "PHREDUCE_DEVICE"

func (p Profile) String() string {
	switch p {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case SVE2:
		return "sve2"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// ThreadgroupSize returns the default number of grid positions per threadgroup.
func (p Profile) ThreadgroupSize() uint32 {
	switch p {
	case AVX512:
		return 1024
	case AVX2, SVE2:
		return 512
	case NEON:
		return 256
	default:
		return 128
	}
}

// positionsPerProc is the number of grid positions the default threadgroup
// limit keeps in flight per processor.
const positionsPerProc = 1024

// Threadgroups returns the default limit of concurrently running
// threadgroups on procs processors. Narrow profiles get more, smaller groups
// per processor so that uneven columns still balance across workers.
func (p Profile) Threadgroups(procs int) int {
	procs = max(procs, 1)
	return procs * max(1, positionsPerProc/int(p.ThreadgroupSize()))
}

// ParseProfile parses a string into a Profile value.
func ParseProfile(s string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "sve2":
		return SVE2, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

// Package-level state, initialized once by the platform init.
var (
	activeProfile Profile
	disabled      bool
	hasOverride   bool

	hasASIMD    bool
	hasSVE2     bool
	hasAVX2     bool
	hasAVX512F  bool
	hasAVX512BW bool
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	activeProfile, disabled, hasOverride = selectProfile(os.Getenv(EnvVar))
}

func selectProfile(override string) (profile Profile, off, overridden bool) {
	if override != "" {
		if strings.EqualFold(strings.TrimSpace(override), "none") {
			return Generic, true, true
		}
		if p, ok := ParseProfile(override); ok && isAvailable(p) {
			return p, false, true
		}
		// Unknown or unsupported override falls through to auto-detection.
	}
	return selectBest(), false, false
}

func isAvailable(p Profile) bool {
	switch p {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case SVE2:
		return hasSVE2
	case AVX2:
		return hasAVX2
	case AVX512:
		return hasAVX512F && hasAVX512BW
	default:
		return false
	}
}

func selectBest() Profile {
	switch runtime.GOARCH {
	case "arm64":
		if hasSVE2 && runtime.GOOS != "darwin" {
			return SVE2
		}
		if hasASIMD {
			return NEON
		}
	case "amd64":
		if hasAVX512F && hasAVX512BW {
			return AVX512
		}
		if hasAVX2 {
			return AVX2
		}
	}
	return Generic
}

// ActiveProfile returns the detected (or overridden) profile.
func ActiveProfile() Profile {
	return activeProfile
}

// Disabled reports whether PHREDUCE_DEVICE=none disabled the device.
func Disabled() bool {
	return disabled
}

// IsOverridden returns true if PHREDUCE_DEVICE was honoured.
func IsOverridden() bool {
	return hasOverride
}
