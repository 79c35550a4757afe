// Package model holds the data types shared by every SafeChecks component:
// records and their typed field sets, drafts, tasks and settings.
package model

import (
	"github.com/safechecks/safechecks/pkg/errclass"
)

// RecordType identifies what a record describes. It also selects the
// remote tab the record is written to.
type RecordType string

const (
	TypeOpening        RecordType = "opening"
	TypeClosing        RecordType = "closing"
	TypeCleaning       RecordType = "cleaning"
	TypeWeekly         RecordType = "weekly"
	TypeTemperature    RecordType = "temperature"
	TypeFoodProbe      RecordType = "food_probe"
	TypeTaskCompletion RecordType = "task_completion"
)

// RecordTypes lists every record type in tab order.
func RecordTypes() []RecordType {
	return []RecordType{
		TypeOpening, TypeClosing, TypeTemperature, TypeFoodProbe,
		TypeCleaning, TypeWeekly, TypeTaskCompletion,
	}
}

// ChecklistTypes lists the record types backed by a tickable checklist.
func ChecklistTypes() []RecordType {
	return []RecordType{TypeOpening, TypeClosing, TypeCleaning, TypeWeekly}
}

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	for _, k := range RecordTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// IsChecklist reports whether records of this type carry tick fields.
func (t RecordType) IsChecklist() bool {
	switch t {
	case TypeOpening, TypeClosing, TypeCleaning, TypeWeekly:
		return true
	}
	return false
}

// ParseRecordType validates a user-supplied record type.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(s)
	if !t.Valid() {
		return "", errclass.ErrValidation.WithMessagef("unknown record type %q", s)
	}
	return t, nil
}

// Department partitions checks, equipment and staff.
type Department string

const (
	DeptKitchen Department = "kitchen"
	DeptFOH     Department = "foh"
	DeptMgmt    Department = "mgmt"

	// DeptShared tags configuration items visible to every department.
	// Records with no department carry the empty string instead.
	DeptShared Department = "shared"
)

// Departments lists the operational departments.
func Departments() []Department {
	return []Department{DeptKitchen, DeptFOH, DeptMgmt}
}

// Valid reports whether d is one of kitchen, foh or mgmt.
func (d Department) Valid() bool {
	switch d {
	case DeptKitchen, DeptFOH, DeptMgmt:
		return true
	}
	return false
}

// Label returns the display name.
func (d Department) Label() string {
	switch d {
	case DeptKitchen:
		return "Kitchen"
	case DeptFOH:
		return "Front of House"
	case DeptMgmt:
		return "Management"
	case DeptShared, "":
		return "Shared"
	}
	return string(d)
}

// SeesAll reports whether the department has the management view over
// every other department.
func (d Department) SeesAll() bool {
	return d == DeptMgmt
}

// ParseDepartment validates a user-supplied department.
func ParseDepartment(s string) (Department, error) {
	d := Department(s)
	if !d.Valid() {
		return "", errclass.ErrValidation.WithMessagef("unknown department %q (want kitchen, foh or mgmt)", s)
	}
	return d, nil
}

// Source records where a record was hydrated from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Status is the outcome code computed for a temperature or probe reading.
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusFail    Status = "FAIL"
	StatusPass    Status = "PASS"
)

// Breach reports whether the status is a failed reading.
func (s Status) Breach() bool {
	return s == StatusFail
}

// HashValue is a SHA-256 hash stored as hex string.
type HashValue string

// Device identifies this installation and who is using it.
type Device struct {
	ID      string     `json:"id"`
	Dept    Department `json:"dept"`
	StaffID string     `json:"staffId"`
}

// GuestStaffID is the placeholder staff id for a department without
// configured staff.
func GuestStaffID(d Department) string {
	return "guest_" + string(d)
}
