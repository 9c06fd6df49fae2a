package models

import "strings"

// Architecture identifies the CPU architecture an installer targets
type Architecture string

const (
	ArchAny   Architecture = "any"
	ArchX86   Architecture = "x86"
	ArchX64   Architecture = "x64"
	ArchARM64 Architecture = "arm64"
)

// NormalizeArch maps platform spellings onto the manifest vocabulary.
// An empty value means the artifact is architecture-agnostic.
func NormalizeArch(s string) Architecture {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "neutral", "noarch":
		return ArchAny
	case "amd64", "x86_64", "x64":
		return ArchX64
	case "386", "i386", "i686", "x86":
		return ArchX86
	case "arm64", "aarch64":
		return ArchARM64
	default:
		return Architecture(strings.ToLower(s))
	}
}

// Normalized returns the canonical spelling of a
func (a Architecture) Normalized() Architecture {
	return NormalizeArch(string(a))
}

// IsAny reports whether the architecture is agnostic
func (a Architecture) IsAny() bool {
	return a.Normalized() == ArchAny
}

// Is64 reports whether the architecture is a 64-bit one
func (a Architecture) Is64() bool {
	switch a.Normalized() {
	case ArchX64, ArchARM64:
		return true
	}
	return false
}

// Runs reports whether a host of architecture a can execute an installer built
// for target without being architecture-agnostic. x64 hosts run x86 (WOW64),
// arm64 hosts run x64 and x86 through emulation.
func (a Architecture) Runs(target Architecture) bool {
	host, t := a.Normalized(), target.Normalized()
	if host == t {
		return true
	}
	switch host {
	case ArchX64:
		return t == ArchX86
	case ArchARM64:
		return t == ArchX64 || t == ArchX86
	}
	return false
}
