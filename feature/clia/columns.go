package clia

import (
	"strings"

	"clia-tracker/core/tabular"
)

// KeyColumn is the CLIA certificate number column.
const KeyColumn = tabular.DefaultKeyColumn

// PresetName selects Columns on the command line (--columns clia).
const PresetName = "clia"

// Columns is the layout of CDC lab search captures, which are saved without
// a header row.
var Columns = []string{
	"CLIA",
	"FACILITY_TYPE",
	"CERTIFICATE_TYPE",
	"LAB_NAME",
	"STREET",
	"CITY",
	"STATE",
	"ZIP",
	"PHONE",
	"Contact",
	"Touch 1",
	"Touch 2",
	"Touch 3",
	"Touch 4",
	"Call Tag 1",
	"Call Tag 2",
}

// InputConfig resolves the preset name in cfg. "--columns clia" means a
// headerless capture in the CLIA layout.
func InputConfig(cfg tabular.Config) tabular.Config {
	if strings.EqualFold(strings.TrimSpace(cfg.Columns), PresetName) {
		cfg.Columns = ""
		cfg.Headerless = true
	}
	return cfg
}
