package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrymomot/noteauth/pkg/useragent"
)

// Source produces a stable digest of the current environment.
// Calling Fingerprint twice on an unchanged device must return the same value.
type Source interface {
	Fingerprint(ctx context.Context) (string, error)
}

// Namer is implemented by sources that can describe the device to a human.
type Namer interface {
	DeviceName(ctx context.Context) string
}

// Signals is the set of environment characteristics folded into a fingerprint.
// Zero values are skipped, so sources fill in whatever they can detect.
type Signals struct {
	UserAgent           string
	Platform            string
	Renderer            string // graphics renderer / rendering capability descriptor
	ScreenWidth         int
	ScreenHeight        int
	ColorDepth          int
	PixelRatio          float64
	Language            string
	Timezone            string
	TouchPoints         int
	HardwareConcurrency int
	Hostname            string
	MachineID           string
	HeaderOrder         string
}

// pairs returns the non-empty signals as sorted key=value strings.
func (s Signals) pairs() []string {
	var out []string
	add := func(k, v string) {
		if v != "" {
			out = append(out, k+"="+v)
		}
	}
	addInt := func(k string, v int) {
		if v != 0 {
			add(k, strconv.Itoa(v))
		}
	}

	add("ua", s.UserAgent)
	add("platform", s.Platform)
	add("renderer", s.Renderer)
	addInt("screen_w", s.ScreenWidth)
	addInt("screen_h", s.ScreenHeight)
	addInt("color_depth", s.ColorDepth)
	if s.PixelRatio != 0 {
		add("pixel_ratio", strconv.FormatFloat(s.PixelRatio, 'f', 2, 64))
	}
	add("lang", strings.ToLower(s.Language))
	add("tz", s.Timezone)
	addInt("touch", s.TouchPoints)
	addInt("cpus", s.HardwareConcurrency)
	add("host", s.Hostname)
	add("machine", s.MachineID)
	add("headers", s.HeaderOrder)

	sort.Strings(out)
	return out
}

// Empty reports whether no signal is set.
func (s Signals) Empty() bool {
	return len(s.pairs()) == 0
}

// Hash returns the SHA-256 digest of the signals as a 64-character hex string.
func (s Signals) Hash() string {
	sum := sha256.Sum256([]byte(strings.Join(s.pairs(), "|")))
	return hex.EncodeToString(sum[:])
}

// DisplayName derives a human readable device name from the signals.
func (s Signals) DisplayName() string {
	if s.UserAgent != "" {
		if name := useragent.Parse(s.UserAgent).DisplayName(); name != "Unknown device" {
			return name
		}
	}
	switch {
	case s.Hostname != "" && s.Platform != "":
		return s.Hostname + " (" + s.Platform + ")"
	case s.Hostname != "":
		return s.Hostname
	case s.Platform != "":
		return s.Platform + " device"
	}
	return "Unknown device"
}

// StaticSource serves a fixed set of signals, typically reported by a client.
type StaticSource Signals

// Fingerprint hashes the signals.
func (s StaticSource) Fingerprint(context.Context) (string, error) {
	if Signals(s).Empty() {
		return "", ErrNoSignals
	}
	return Signals(s).Hash(), nil
}

// DeviceName describes the device.
func (s StaticSource) DeviceName(context.Context) string {
	return Signals(s).DisplayName()
}
