// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
)

// Configuration Table GUIDs
var (
	ACPI_20_TABLE_GUID = MustParseGUID("8868e871-e4f1-11d3-bc22-0080c73c8881")
	SMBIOS3_TABLE_GUID = MustParseGUID("f2fd1544-9794-4a2c-992e-e5bbcf20e394")
)

// ConfigurationTable represents an EFI Configuration Table.
type ConfigurationTable struct {
	GUID        GUID
	VendorTable uint64
}

// ConfigurationTables returns the EFI Configuration Tables.
func (d *SystemTable) ConfigurationTables() (c []*ConfigurationTable, err error) {
	if d.NumberOfTableEntries == 0 || d.ConfigurationTable == 0 {
		return nil, errors.New("EFI Configuration Table is invalid")
	}

	entrySize := 24
	buf, err := (&Memory{}).Bytes(d.ConfigurationTable, entrySize*int(d.NumberOfTableEntries))

	if err != nil {
		return
	}

	return parseConfigurationTables(buf)
}

func parseConfigurationTables(buf []byte) (c []*ConfigurationTable, err error) {
	entrySize := 24

	for i := 0; i+entrySize <= len(buf); i += entrySize {
		t := &ConfigurationTable{}

		if err = unmarshalBinary(buf[i:i+entrySize], t); err != nil {
			return
		}

		c = append(c, t)
	}

	return
}

// LocateConfiguration locates an EFI Configuration Table.
func (d *SystemTable) LocateConfiguration(guid GUID) (t *ConfigurationTable, err error) {
	var c []*ConfigurationTable

	if c, err = d.ConfigurationTables(); err != nil {
		return
	}

	for _, t := range c {
		if t.GUID == guid {
			return t, nil
		}
	}

	return nil, errors.New("could not find configuration table")
}
