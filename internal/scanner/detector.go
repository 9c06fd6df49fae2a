package scanner

import (
	"bytes"
	"net/url"
	"os"
	"path"
	"strings"
)

// Magic bytes for installer detection
var (
	// MSI packages are OLE compound documents
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	// PE executables start with the DOS header "MZ"
	peMagic = []byte("MZ")

	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

	// RPM packages start with 0xED 0xAB 0xEE 0xDB
	rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

	gzipMagic = []byte{0x1F, 0x8B}

	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

	xzMagic = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	elfMagic = []byte{0x7F, 0x45, 0x4C, 0x46}

	shebang = []byte("#!")
)

// KindFromName determines the installer kind from a file name or URL
// without touching the file. Query strings and fragments are ignored.
func KindFromName(name string) InstallerKind {
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		name = u.Path
	}
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, `\`, "/")))

	switch {
	case strings.HasSuffix(base, ".msi"):
		return KindMSI
	case strings.HasSuffix(base, ".exe"):
		return KindExe
	case strings.HasSuffix(base, ".zip"):
		return KindZip
	case strings.HasSuffix(base, ".tar.gz"), strings.HasSuffix(base, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(base, ".tar.xz"), strings.HasSuffix(base, ".txz"):
		return KindTarXz
	case strings.HasSuffix(base, ".tar.zst"), strings.HasSuffix(base, ".tzst"):
		return KindTarZst
	case strings.HasSuffix(base, ".rpm"):
		return KindRPM
	case strings.HasSuffix(base, ".sh"):
		return KindScript
	}
	return KindUnknown
}

// DetectKind determines the installer kind based on magic bytes, falling
// back to the file extension
func DetectKind(p string) (InstallerKind, error) {
	f, err := os.Open(p)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	// Read first 512 bytes for magic byte detection
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		// empty files still get an extension-based answer
		return KindFromName(p), nil
	}
	header = header[:n]

	byName := KindFromName(p)

	switch {
	case bytes.HasPrefix(header, oleMagic):
		return KindMSI, nil
	case bytes.HasPrefix(header, rpmMagic):
		return KindRPM, nil
	case bytes.HasPrefix(header, zipMagic):
		return KindZip, nil
	case bytes.HasPrefix(header, peMagic):
		return KindExe, nil
	case bytes.HasPrefix(header, elfMagic):
		return KindELF, nil
	case bytes.HasPrefix(header, zstdMagic):
		return KindTarZst, nil
	case bytes.HasPrefix(header, xzMagic):
		return KindTarXz, nil
	case bytes.HasPrefix(header, gzipMagic):
		return KindTarGz, nil
	case bytes.HasPrefix(header, shebang):
		return KindScript, nil
	}

	return byName, nil
}
