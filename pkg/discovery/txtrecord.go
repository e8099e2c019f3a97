package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap represents TXT records as a key-value map.
type TXTRecordMap map[string]string

// EncodeServiceTXT builds the sensor's TXT records.
func EncodeServiceTXT(info *ServiceInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyFirmware: info.FirmwareVersion,
		TXTKeyChip:     info.ChipFamily,
	}
	if info.Path != "" {
		txt[TXTKeyPath] = info.Path
	}
	return txt
}

// DecodeServiceTXT parses the sensor's TXT records.
func DecodeServiceTXT(txt TXTRecordMap) (*ServiceInfo, error) {
	fw, ok := txt[TXTKeyFirmware]
	if !ok || fw == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyFirmware)
	}
	chip, ok := txt[TXTKeyChip]
	if !ok || chip == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyChip)
	}
	return &ServiceInfo{
		FirmwareVersion: fw,
		ChipFamily:      chip,
		Path:            txt[TXTKeyPath],
	}, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// InstanceNameFromMAC derives the default instance name "OFS-XXXX" from the
// last two octets of a MAC address. Unparsable input yields "OFS".
func InstanceNameFromMAC(mac string) string {
	hex := strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(mac))
	if len(hex) < 4 {
		return "OFS"
	}
	return "OFS-" + hex[len(hex)-4:]
}
