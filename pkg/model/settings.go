package model

// EquipmentType selects the temperature thresholds of a piece of equipment.
type EquipmentType string

const (
	EquipFridge  EquipmentType = "fridge"
	EquipFreezer EquipmentType = "freezer"
	EquipOven    EquipmentType = "oven"
	EquipHotHold EquipmentType = "hothold"
	EquipOther   EquipmentType = "other"
)

// StaffMember is a person who can sign checks.
type StaffMember struct {
	ID   string     `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Role string     `json:"role" yaml:"role"`
	Dept Department `json:"dept" yaml:"dept"`
}

// Equipment is a monitored fridge, freezer, oven or hot-hold unit.
type Equipment struct {
	ID   string        `json:"id" yaml:"id"`
	Name string        `json:"name" yaml:"name"`
	Type EquipmentType `json:"type" yaml:"type"`
	Dept Department    `json:"dept" yaml:"dept"`
}

// CheckItem is one configurable checklist line.
type CheckItem struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// ProbeProduct is a dish commonly probed for core temperature.
type ProbeProduct struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Settings is the venue-wide configuration shared by every device.
// JSON keys match the blob stored in the remote Settings tab.
type Settings struct {
	RestaurantName string                                    `json:"restaurantName" yaml:"restaurant_name"`
	OpeningTimes   map[Department]string                     `json:"openingTimes" yaml:"opening_times"`
	ClosingTimes   map[Department]string                     `json:"closingTimes" yaml:"closing_times"`
	Staff          []StaffMember                             `json:"staff" yaml:"staff"`
	Equipment      []Equipment                               `json:"equipment" yaml:"equipment"`
	SharedChecks   map[RecordType][]CheckItem                `json:"sharedChecks" yaml:"shared_checks"`
	Checks         map[Department]map[RecordType][]CheckItem `json:"checks" yaml:"checks"`
	ProbeProducts  []ProbeProduct                            `json:"probeProducts" yaml:"probe_products"`
	Tasks          []Task                                    `json:"tasks" yaml:"tasks"`
}
