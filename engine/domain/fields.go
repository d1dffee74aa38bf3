package domain

// Canonical attribute keys. Providers map their own field names onto these at
// the facade boundary; unmapped provider fields are dropped there.
const (
	AttrMake         = "make"
	AttrModel        = "model"
	AttrYear         = "year"
	AttrTrim         = "trim"
	AttrBodyClass    = "bodyClass"
	AttrEngine       = "engine"
	AttrCylinders    = "cylinders"
	AttrDisplacement = "displacement"
	AttrHorsepower   = "horsepower"
	AttrTorque       = "torque"
	AttrFuelType     = "fuelType"
	AttrTransmission = "transmission"
	AttrDrivetrain   = "drivetrain"
	AttrManufacturer = "manufacturer"
	AttrPlantCity    = "plantCity"
	AttrPlantCountry = "plantCountry"
	AttrSeries       = "series"
	AttrDoors        = "doors"
	AttrLength       = "length"
	AttrWidth        = "width"
	AttrHeight       = "height"
	AttrWheelbase    = "wheelbase"
	AttrCurbWeight   = "curbWeight"
	AttrTopSpeed     = "topSpeed"
	AttrMSRP         = "msrp"
	AttrFeatures     = "features"
	AttrColors       = "colors"
)

// Field groups used by the richness scorer and the complete-level renderer.
// Keep these in sync with what the formatter knows how to present.
var (
	// EssentialFields identify the vehicle.
	EssentialFields = []string{AttrYear, AttrMake, AttrModel, AttrTrim}

	// StandardFields describe engine and performance.
	StandardFields = []string{
		AttrEngine, AttrCylinders, AttrDisplacement, AttrHorsepower,
		AttrFuelType, AttrTransmission, AttrDrivetrain,
	}

	// DetailedFields cover manufacturing and dimensions.
	DetailedFields = []string{
		AttrManufacturer, AttrPlantCity, AttrPlantCountry, AttrSeries, AttrDoors,
		AttrLength, AttrWidth, AttrHeight, AttrWheelbase, AttrCurbWeight,
	}
)

// KnownFields is the union of the grouped scalar fields plus the list-valued
// extras. Anything outside this set lands in the complete-level catch-all.
func KnownFields() map[string]bool {
	known := make(map[string]bool)
	for _, group := range [][]string{EssentialFields, StandardFields, DetailedFields} {
		for _, f := range group {
			known[f] = true
		}
	}
	known[AttrBodyClass] = true
	known[AttrTorque] = true
	known[AttrTopSpeed] = true
	known[AttrMSRP] = true
	known[AttrFeatures] = true
	known[AttrColors] = true
	return known
}
