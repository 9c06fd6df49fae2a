//go:build windows

package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"
)

const uninstallPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`

// Uninstall key locations scanned for installed products
var uninstallRoots = []struct {
	root   registry.Key
	path   string
	access uint32
	hive   string
	is64   bool
}{
	{registry.LOCAL_MACHINE, uninstallPath, registry.WOW64_64KEY, HiveMachine, true},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`, 0, HiveMachine, false},
	{registry.CURRENT_USER, uninstallPath, 0, HiveUser, false},
}

// UninstallKeySource reads products from the Windows uninstall keys
type UninstallKeySource struct{}

func (UninstallKeySource) Name() string {
	return "windows-uninstall"
}

func (UninstallKeySource) Records(ctx context.Context) ([]Record, error) {
	var records []Record
	for _, loc := range uninstallRoots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readUninstallKey(loc.root, loc.path, loc.access, loc.hive, loc.is64)
		if err != nil {
			// some locations do not exist on every host
			logrus.Debugf("Skipping %s\\%s: %v", loc.hive, loc.path, err)
			continue
		}
		records = append(records, recs...)
	}
	return records, nil
}

func readUninstallKey(root registry.Key, path string, access uint32, hive string, is64 bool) ([]Record, error) {
	key, err := registry.OpenKey(root, path, registry.READ|access)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	subkeys, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, name := range subkeys {
		subkey, err := registry.OpenKey(key, name, registry.READ|access)
		if err != nil {
			continue
		}
		values := readValues(subkey)
		subkey.Close()

		_, hasParent := values["ParentKeyName"]
		records = append(records, Record{
			ID:            name,
			Is64:          is64,
			IsUpgradeNode: hasParent,
			Hive:          hive,
			Values:        values,
		})
	}
	return records, nil
}

func readValues(key registry.Key) map[string]any {
	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil
	}

	values := make(map[string]any, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		_, valType, err := key.GetValue(name, nil)
		if err != nil {
			continue
		}
		switch valType {
		case registry.SZ, registry.EXPAND_SZ:
			if s, _, err := key.GetStringValue(name); err == nil {
				values[name] = strings.TrimSpace(s)
			}
		case registry.DWORD, registry.QWORD:
			if n, _, err := key.GetIntegerValue(name); err == nil {
				values[name] = n
			}
		case registry.MULTI_SZ:
			if s, _, err := key.GetStringsValue(name); err == nil {
				values[name] = s
			}
		case registry.BINARY:
			if b, _, err := key.GetBinaryValue(name); err == nil {
				values[name] = fmt.Sprintf("%x", b)
			}
		}
	}
	return values
}

// HostSources returns the product sources available on this platform
func HostSources(ledger *Ledger) []Source {
	return []Source{UninstallKeySource{}, ledger}
}
