package quote

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AssetType is the category of the asset being financed.
type AssetType string

const (
	AssetVehicle      AssetType = "vehicle"
	AssetTruck        AssetType = "truck"
	AssetConstruction AssetType = "construction"
	AssetAgriculture  AssetType = "agriculture"
	AssetEquipment    AssetType = "equipment"
	AssetTechnology   AssetType = "technology"
)

// Condition is the age band of the asset.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionDemo      Condition = "demo"
	ConditionUsed0to3  Condition = "used_0_3"
	ConditionUsed4to7  Condition = "used_4_7"
	ConditionUsed8Plus Condition = "used_8_plus"
)

// RateTable holds base annual rates (percent) keyed by asset type and condition.
// Rates carry no markup.
type RateTable map[AssetType]map[Condition]float64

// DefaultRates returns a copy of the built-in pricing table.
func DefaultRates() RateTable {
	return RateTable{
		AssetVehicle: {
			ConditionNew:       6.29,
			ConditionDemo:      6.49,
			ConditionUsed0to3:  6.79,
			ConditionUsed4to7:  7.49,
			ConditionUsed8Plus: 8.99,
		},
		AssetTruck: {
			ConditionNew:       6.69,
			ConditionDemo:      6.89,
			ConditionUsed0to3:  7.19,
			ConditionUsed4to7:  7.99,
			ConditionUsed8Plus: 9.49,
		},
		AssetConstruction: {
			ConditionNew:       6.99,
			ConditionDemo:      7.19,
			ConditionUsed0to3:  7.49,
			ConditionUsed4to7:  8.29,
			ConditionUsed8Plus: 9.99,
		},
		AssetAgriculture: {
			ConditionNew:       6.49,
			ConditionDemo:      6.69,
			ConditionUsed0to3:  6.99,
			ConditionUsed4to7:  7.79,
			ConditionUsed8Plus: 9.29,
		},
		AssetEquipment: {
			ConditionNew:      7.49,
			ConditionDemo:     7.69,
			ConditionUsed0to3: 7.99,
			ConditionUsed4to7: 8.79,
		},
		AssetTechnology: {
			ConditionNew:      8.49,
			ConditionUsed0to3: 9.49,
		},
	}
}

// Lookup returns the base rate for the pair, if tabulated.
func (t RateTable) Lookup(assetType AssetType, condition Condition) (float64, bool) {
	conditions, ok := t[assetType]
	if !ok {
		return 0, false
	}
	rate, ok := conditions[condition]
	return rate, ok
}

// Conditions lists the condition bands priced for an asset type, in display order.
func (t RateTable) Conditions(assetType AssetType) []Condition {
	order := []Condition{ConditionNew, ConditionDemo, ConditionUsed0to3, ConditionUsed4to7, ConditionUsed8Plus}
	var out []Condition
	for _, c := range order {
		if _, ok := t.Lookup(assetType, c); ok {
			out = append(out, c)
		}
	}
	return out
}

func (t RateTable) clone() RateTable {
	out := make(RateTable, len(t))
	for assetType, conditions := range t {
		inner := make(map[Condition]float64, len(conditions))
		for c, r := range conditions {
			inner[c] = r
		}
		out[assetType] = inner
	}
	return out
}

// rateFile is the on-disk shape of a rate override file:
//
//	rates:
//	  vehicle:
//	    new: 6.19
type rateFile struct {
	Rates map[AssetType]map[Condition]float64 `yaml:"rates"`
}

// LoadRates reads a YAML override file and merges it over the default table.
// A missing file yields the defaults.
func LoadRates(path string) (RateTable, error) {
	table := DefaultRates()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	return ParseRates(data, table)
}

// ParseRates merges YAML overrides into base and returns the result. Base is not mutated.
func ParseRates(data []byte, base RateTable) (RateTable, error) {
	var file rateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rates file: %w", err)
	}

	table := base.clone()
	for assetType, conditions := range file.Rates {
		if table[assetType] == nil {
			table[assetType] = make(map[Condition]float64)
		}
		for c, r := range conditions {
			if r < 0 {
				return nil, fmt.Errorf("negative rate for %s/%s: %v", assetType, c, r)
			}
			table[assetType][c] = r
		}
	}
	return table, nil
}
