package config

import (
	"os"
	"strings"
)

var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// InContainer reports whether loopback addresses should be rewritten to the
// bridge host.
func (c ContainerConfig) InContainer() bool {
	switch strings.ToLower(c.Mode) {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}
	return detectContainer(containerMarkers)
}

func detectContainer(markers []string) bool {
	for _, m := range markers {
		if _, err := os.Stat(m); err == nil {
			return true
		}
	}
	return false
}
