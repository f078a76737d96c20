package profiles

import "github.com/ternarybob/confero/internal/models"

// Built-in domain profiles, provisioned lazily on first use. Versions only
// move forward; editing a shipped version in place would silently change the
// meaning of stored extractions.

func builtinProfiles() []*models.DomainProfile {
	return []*models.DomainProfile{
		semiconductorsV1(),
		industrialComponentsV1(),
		fastenersV1(),
	}
}

func semiconductorsV1() *models.DomainProfile {
	return &models.DomainProfile{
		Domain:  "semiconductors",
		Version: 1,
		Label:   "Semiconductors",
		Fields: []models.FieldSpec{
			{
				ID:           "voltage_supply",
				Label:        "Supply Voltage",
				Type:         models.FieldTypeNumber,
				Required:     true,
				Unit:         "V",
				TargetUnit:   "V",
				Synonyms:     []string{"supply voltage", "vcc", "vdd", "operating voltage", "voltage supply"},
				Bounds:       &models.Bounds{Min: 0, Max: 1000},
				ReviewBounds: &models.Bounds{Min: 0.5, Max: 48},
				// No optimality direction: neither higher nor lower supply
				// voltage is inherently better.
				Direction: models.DirectionNone,
			},
			{
				ID:         "power_consumption",
				Label:      "Power Consumption",
				Type:       models.FieldTypeNumber,
				Unit:       "W",
				TargetUnit: "W",
				Synonyms:   []string{"power consumption", "power dissipation", "typical power", "pd"},
				Bounds:     &models.Bounds{Min: 0, Max: 10000},
				Direction:  models.DirectionDown,
			},
			{
				ID:         "clock_speed",
				Label:      "Clock Speed",
				Type:       models.FieldTypeNumber,
				Unit:       "MHz",
				TargetUnit: "MHz",
				Synonyms:   []string{"clock speed", "clock frequency", "operating frequency", "fmax"},
				Bounds:     &models.Bounds{Min: 0, Max: 100000},
				Direction:  models.DirectionUp,
			},
			{
				ID:         "operating_temp_max",
				Label:      "Max Operating Temperature",
				Type:       models.FieldTypeNumber,
				Unit:       "degC",
				TargetUnit: "degC",
				Synonyms:   []string{"operating temperature", "max operating temperature", "tj max", "temperature range"},
				Bounds:     &models.Bounds{Min: -273, Max: 500},
				Direction:  models.DirectionUp,
			},
			{
				ID:       "package_type",
				Label:    "Package",
				Type:     models.FieldTypeText,
				Synonyms: []string{"package", "package type", "case"},
			},
			{
				ID:       "rohs_compliant",
				Label:    "RoHS Compliant",
				Type:     models.FieldTypeBoolean,
				Synonyms: []string{"rohs", "rohs compliant", "lead free"},
			},
		},
	}
}

func industrialComponentsV1() *models.DomainProfile {
	return &models.DomainProfile{
		Domain:  "industrial_components",
		Version: 1,
		Label:   "Industrial Components",
		Fields: []models.FieldSpec{
			{
				ID:         "power_rating",
				Label:      "Power Rating",
				Type:       models.FieldTypeNumber,
				Required:   true,
				Unit:       "kW",
				TargetUnit: "kW",
				Synonyms:   []string{"power rating", "rated power", "motor power", "output power"},
				Bounds:     &models.Bounds{Min: 0, Max: 100000},
				Direction:  models.DirectionUp,
			},
			{
				ID:         "max_pressure",
				Label:      "Max Pressure",
				Type:       models.FieldTypeNumber,
				Unit:       "bar",
				TargetUnit: "bar",
				Synonyms:   []string{"max pressure", "maximum pressure", "rated pressure", "working pressure"},
				Bounds:     &models.Bounds{Min: 0, Max: 10000},
				Direction:  models.DirectionUp,
			},
			{
				ID:         "flow_rate",
				Label:      "Flow Rate",
				Type:       models.FieldTypeNumber,
				Unit:       "L/min",
				TargetUnit: "L/min",
				Synonyms:   []string{"flow rate", "nominal flow", "rated flow"},
				Bounds:     &models.Bounds{Min: 0, Max: 1000000},
				Direction:  models.DirectionUp,
			},
			{
				ID:         "weight",
				Label:      "Weight",
				Type:       models.FieldTypeNumber,
				Unit:       "kg",
				TargetUnit: "kg",
				Synonyms:   []string{"weight", "net weight", "mass"},
				Bounds:     &models.Bounds{Min: 0, Max: 100000},
				Direction:  models.DirectionDown,
			},
			{
				ID:       "ip_rating",
				Label:    "IP Rating",
				Type:     models.FieldTypeText,
				Synonyms: []string{"ip rating", "protection class", "ingress protection"},
			},
		},
	}
}

func fastenersV1() *models.DomainProfile {
	return &models.DomainProfile{
		Domain:  "fasteners",
		Version: 1,
		Label:   "Fasteners",
		Fields: []models.FieldSpec{
			{
				ID:       "thread_size",
				Label:    "Thread Size",
				Type:     models.FieldTypeText,
				Required: true,
				Synonyms: []string{"thread size", "thread", "nominal diameter"},
			},
			{
				ID:         "tensile_strength",
				Label:      "Tensile Strength",
				Type:       models.FieldTypeNumber,
				Unit:       "MPa",
				TargetUnit: "MPa",
				Synonyms:   []string{"tensile strength", "ultimate tensile strength", "uts"},
				Bounds:     &models.Bounds{Min: 0, Max: 5000},
				Direction:  models.DirectionUp,
			},
			{
				ID:         "length",
				Label:      "Length",
				Type:       models.FieldTypeNumber,
				Unit:       "mm",
				TargetUnit: "mm",
				Synonyms:   []string{"length", "overall length", "shank length"},
				Bounds:     &models.Bounds{Min: 0, Max: 10000},
			},
			{
				ID:       "material",
				Label:    "Material",
				Type:     models.FieldTypeText,
				Synonyms: []string{"material", "alloy", "grade"},
			},
			{
				ID:       "coating",
				Label:    "Coating",
				Type:     models.FieldTypeText,
				Synonyms: []string{"coating", "finish", "surface treatment"},
			},
		},
	}
}
