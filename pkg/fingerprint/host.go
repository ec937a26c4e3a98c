package fingerprint

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"
)

// machineIDPaths are read in order on Linux-like systems.
var machineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
	"/sys/class/dmi/id/product_uuid",
}

// HostSource collects signals from the operating system the process runs on.
// It is meant for native and command line clients.
type HostSource struct {
	readFile func(string) ([]byte, error)
	hostname func() (string, error)
	getenv   func(string) string
}

// NewHostSource creates a source reading from the real host.
func NewHostSource() *HostSource {
	return &HostSource{
		readFile: os.ReadFile,
		hostname: os.Hostname,
		getenv:   os.Getenv,
	}
}

// Signals inspects the host. Signals that cannot be read are left empty.
func (h *HostSource) Signals() Signals {
	s := Signals{
		Platform:            runtime.GOOS + "/" + runtime.GOARCH,
		HardwareConcurrency: runtime.NumCPU(),
		Timezone:            time.Local.String(),
		Language:            h.locale(),
	}
	if name, err := h.hostname(); err == nil {
		s.Hostname = strings.TrimSpace(name)
	}
	for _, p := range machineIDPaths {
		if b, err := h.readFile(p); err == nil {
			if id := strings.TrimSpace(string(b)); id != "" {
				s.MachineID = id
				break
			}
		}
	}
	return s
}

func (h *HostSource) locale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := h.getenv(key); v != "" {
			// Strip the encoding: en_US.UTF-8 -> en_US
			if i := strings.IndexByte(v, '.'); i > 0 {
				v = v[:i]
			}
			return v
		}
	}
	return ""
}

// Fingerprint hashes the host signals.
func (h *HostSource) Fingerprint(context.Context) (string, error) {
	s := h.Signals()
	if s.Empty() {
		return "", ErrNoSignals
	}
	return s.Hash(), nil
}

// DeviceName returns "hostname (os/arch)".
func (h *HostSource) DeviceName(context.Context) string {
	return h.Signals().DisplayName()
}
