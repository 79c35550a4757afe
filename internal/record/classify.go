package record

import (
	"github.com/shopspring/decimal"

	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/textutil"
)

// Class selects the temperature thresholds applied to a reading.
type Class string

const (
	ClassRefrigerated Class = "refrigerated"
	ClassFrozen       Class = "frozen"
	ClassHotHold      Class = "hot-hold"
	ClassCooked       Class = "cooked"
	ClassUnclassified Class = "unclassified"
)

var (
	fridgeMax      = decimal.NewFromInt(5)
	fridgeWarnMax  = decimal.NewFromInt(8)
	freezerMax     = decimal.NewFromInt(-18)
	freezerWarnMax = decimal.NewFromInt(-15)
	hotHoldMin     = decimal.NewFromInt(63)
	hotHoldWarnMin = decimal.NewFromInt(55)
	cookedMin      = decimal.NewFromInt(75)
	cookedWarnMin  = decimal.NewFromInt(65)
	plausibleMin   = decimal.NewFromInt(-30)
	plausibleMax   = decimal.NewFromInt(90)

	// ProbePassMin is the minimum core temperature of cooked food.
	ProbePassMin = decimal.NewFromInt(75)
)

// ClassForEquipment maps a configured equipment type to its class.
func ClassForEquipment(t model.EquipmentType) Class {
	switch t {
	case model.EquipFridge:
		return ClassRefrigerated
	case model.EquipFreezer:
		return ClassFrozen
	case model.EquipHotHold:
		return ClassHotHold
	case model.EquipOven:
		return ClassCooked
	}
	return ClassUnclassified
}

// ClassForLocation infers the class from keywords in a free-text location.
func ClassForLocation(location string) Class {
	switch {
	case textutil.ContainsFold(location, "fridge", "display", "chilled", "bar", "wine"):
		return ClassRefrigerated
	case textutil.ContainsFold(location, "freezer", "frozen"):
		return ClassFrozen
	case textutil.ContainsFold(location, "hot", "soup", "sauce"):
		return ClassHotHold
	case textutil.ContainsFold(location, "cooked", "oven", "grill", "fryer"):
		return ClassCooked
	}
	return ClassUnclassified
}

// ResolveClass prefers the equipment type when it is a known class and
// falls back to location keywords.
func ResolveClass(t model.EquipmentType, location string) Class {
	if c := ClassForEquipment(t); c != ClassUnclassified {
		return c
	}
	return ClassForLocation(location)
}

// Classify returns the status of a reading for the class. Boundaries are
// inclusive on the safe side: 5 is OK for a fridge, 5.1 is a warning.
func Classify(c Class, v decimal.Decimal) model.Status {
	switch c {
	case ClassRefrigerated:
		return atMost(v, fridgeMax, fridgeWarnMax)
	case ClassFrozen:
		return atMost(v, freezerMax, freezerWarnMax)
	case ClassHotHold:
		return atLeast(v, hotHoldMin, hotHoldWarnMin)
	case ClassCooked:
		return atLeast(v, cookedMin, cookedWarnMin)
	}
	if v.LessThan(plausibleMin) || v.GreaterThan(plausibleMax) {
		return model.StatusFail
	}
	return model.StatusOK
}

func atMost(v, ok, warn decimal.Decimal) model.Status {
	switch {
	case v.LessThanOrEqual(ok):
		return model.StatusOK
	case v.LessThanOrEqual(warn):
		return model.StatusWarning
	}
	return model.StatusFail
}

func atLeast(v, ok, warn decimal.Decimal) model.Status {
	switch {
	case v.GreaterThanOrEqual(ok):
		return model.StatusOK
	case v.GreaterThanOrEqual(warn):
		return model.StatusWarning
	}
	return model.StatusFail
}

// ClassifyProbe returns PASS when the core temperature reaches 75°C.
func ClassifyProbe(v decimal.Decimal) model.Status {
	if v.GreaterThanOrEqual(ProbePassMin) {
		return model.StatusPass
	}
	return model.StatusFail
}
