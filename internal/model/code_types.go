package model

// CodeType is one of the canonical billing code families used for scope
// matching. Source files use many labels (MS-DRG, APR-DRG, HCPCS, ...);
// they all collapse into this fixed vocabulary before comparison.
type CodeType string

const (
	CodeTypeCPT CodeType = "CPT"
	CodeTypeDRG CodeType = "DRG"
)

// AllCodeTypes lists the canonical code types in stable order.
var AllCodeTypes = []CodeType{CodeTypeCPT, CodeTypeDRG}

// Setting is the billing context a price applies to.
type Setting string

const (
	SettingInpatient  Setting = "inpatient"
	SettingOutpatient Setting = "outpatient"
	SettingUnknown    Setting = "unknown"
)

// ParseSetting maps a raw setting string onto the fixed vocabulary.
func ParseSetting(s string) Setting {
	switch s {
	case "inpatient":
		return SettingInpatient
	case "outpatient":
		return SettingOutpatient
	default:
		return SettingUnknown
	}
}
