package models

import (
	"fmt"
	"strings"
)

// LatestTag is the user-facing literal for "use the latest available version".
// It is never stored in a manifest; VersionTag is nil instead.
const LatestTag = "latest"

// InstallMethod selects the installation strategy for a manifest
type InstallMethod string

const (
	MethodMSI            InstallMethod = "msi"
	MethodWix            InstallMethod = "wix"
	MethodInno           InstallMethod = "inno"
	MethodNSIS           InstallMethod = "nsis"
	MethodInstallBuilder InstallMethod = "installbuilder"
	MethodSquirrel       InstallMethod = "squirrel"
	MethodCustom         InstallMethod = "custom"
	MethodZip            InstallMethod = "zip"
	MethodRPM            InstallMethod = "rpm"
)

// KnownMethods lists every install method understood by the manifest loader
var KnownMethods = []InstallMethod{
	MethodMSI,
	MethodWix,
	MethodInno,
	MethodNSIS,
	MethodInstallBuilder,
	MethodSquirrel,
	MethodCustom,
	MethodZip,
	MethodRPM,
}

// ParseInstallMethod normalizes a method name and checks it is known
func ParseInstallMethod(s string) (InstallMethod, error) {
	m := InstallMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown install method %q", s)
}

// InstallerArtifact is one downloadable installer candidate of a manifest
type InstallerArtifact struct {
	Location     string       `yaml:"location" json:"location"`
	Sha256       string       `yaml:"sha256,omitempty" json:"sha256,omitempty"`
	Architecture Architecture `yaml:"architecture,omitempty" json:"architecture,omitempty"`
	Signature    string       `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// InstallerArgs overrides the silent/interactive arguments of exe-style installers
type InstallerArgs struct {
	Silent      []string `yaml:"silent,omitempty" json:"silent,omitempty"`
	Interactive []string `yaml:"interactive,omitempty" json:"interactive,omitempty"`
}

// PackageManifest describes a package and its installer candidates
type PackageManifest struct {
	ID            string              `yaml:"id" json:"id"`
	Name          string              `yaml:"name,omitempty" json:"name,omitempty"`
	VersionTag    *string             `yaml:"versionTag,omitempty" json:"versionTag,omitempty"`
	Version       string              `yaml:"version,omitempty" json:"version,omitempty"`
	Home          string              `yaml:"home,omitempty" json:"home,omitempty"`
	InstallMethod InstallMethod       `yaml:"installMethod" json:"installMethod"`
	Installers    []InstallerArtifact `yaml:"installers" json:"installers"`
	Args          InstallerArgs       `yaml:"args,omitempty" json:"args,omitempty"`
}

// DisplayName returns Name, falling back to ID
func (m *PackageManifest) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Validate checks the invariants of an installable manifest
func (m *PackageManifest) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return &AppGetError{Type: ErrInvalidManifest, Err: fmt.Errorf("manifest id is required")}
	}
	if len(m.Installers) == 0 {
		return &AppGetError{Type: ErrInvalidManifest, Package: m.ID, Err: fmt.Errorf("manifest has no installers")}
	}
	if _, err := ParseInstallMethod(string(m.InstallMethod)); err != nil {
		return &AppGetError{Type: ErrInvalidManifest, Package: m.ID, Err: err}
	}
	if m.VersionTag != nil && strings.EqualFold(*m.VersionTag, LatestTag) {
		return &AppGetError{Type: ErrInvalidManifest, Package: m.ID, Err: fmt.Errorf("version tag %q must be stored as empty", *m.VersionTag)}
	}
	for i, inst := range m.Installers {
		if strings.TrimSpace(inst.Location) == "" {
			return &AppGetError{Type: ErrInvalidManifest, Package: m.ID, Err: fmt.Errorf("installer %d has no location", i)}
		}
	}
	return nil
}

// NormalizeVersionTag collapses the "latest" literal (any case) and blanks to nil
func NormalizeVersionTag(tag string) *string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == LatestTag {
		return nil
	}
	return &tag
}

// InstallOptions controls install-time behavior of a single invocation
type InstallOptions struct {
	Interactive bool
	TargetDir   string
	// Architecture of the artifact being installed, filled in by the coordinator
	Architecture Architecture
}

// PackageInfo is a package record returned by the remote catalog
type PackageInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Tag          string `json:"tag,omitempty"`
	ManifestPath string `json:"manifestPath"`
}
