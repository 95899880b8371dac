package model

import (
	"fmt"
	"strings"
)

// Platform selects the role vocabulary of the target runtime.
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformNative Platform = "native"
)

// ParsePlatform validates a platform tag.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformWeb:
		return PlatformWeb, nil
	case PlatformNative:
		return PlatformNative, nil
	default:
		return "", fmt.Errorf("unknown platform %q (use web or native)", s)
	}
}

// NormalizeRole adapts a role to the platform. Native runtimes have no
// hyperlink concept, so links are reported as buttons there.
func (p Platform) NormalizeRole(r Role) Role {
	if p == PlatformNative && r == RoleLink {
		return RoleButton
	}
	return r
}
