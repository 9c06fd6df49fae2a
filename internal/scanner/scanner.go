package scanner

import "context"

// InstallerKind represents the file technology of an installer artifact
type InstallerKind int

const (
	KindUnknown InstallerKind = iota
	KindMSI
	KindExe
	KindZip
	KindTarGz
	KindTarXz
	KindTarZst
	KindRPM
	KindELF
	KindScript
)

// String returns the string representation of InstallerKind
func (k InstallerKind) String() string {
	switch k {
	case KindMSI:
		return "msi"
	case KindExe:
		return "exe"
	case KindZip:
		return "zip"
	case KindTarGz:
		return "tar.gz"
	case KindTarXz:
		return "tar.xz"
	case KindTarZst:
		return "tar.zst"
	case KindRPM:
		return "rpm"
	case KindELF:
		return "elf"
	case KindScript:
		return "script"
	default:
		return "unknown"
	}
}

// IsArchive reports whether the kind is extracted rather than executed
func (k InstallerKind) IsArchive() bool {
	switch k {
	case KindZip, KindTarGz, KindTarXz, KindTarZst:
		return true
	}
	return false
}

// IsExecutable reports whether the kind can be launched directly
func (k InstallerKind) IsExecutable() bool {
	switch k {
	case KindExe, KindELF, KindScript:
		return true
	}
	return false
}

// ScannedFile represents a file found during scanning
type ScannedFile struct {
	Path string
	Kind InstallerKind
	Size int64
}

// Scanner interface for detecting and scanning installer files
type Scanner interface {
	// Scan recursively scans a directory for files of a known kind
	Scan(ctx context.Context, dir string) ([]ScannedFile, error)

	// DetectKind determines the kind of a file
	DetectKind(path string) (InstallerKind, error)
}
