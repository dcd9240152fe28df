package ml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FeatureCount is the number of columns every feature vector must carry.
const FeatureCount = 7

var featureNames = [FeatureCount]string{
	"Global_active_power",
	"Global_reactive_power",
	"Voltage",
	"Global_intensity",
	"Sub_metering_1",
	"Sub_metering_2",
	"Sub_metering_3",
}

// FeatureNames returns the model columns in positional order.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

// FeatureIndex returns the position of the named column.
func FeatureIndex(name string) (int, bool) {
	for i, n := range featureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Column is one named value of a FeatureRecord.
type Column struct {
	Name  string
	Value float64
}

// FeatureRecord is a single row with the fixed named columns. It is
// comparable, so it can be used directly as a map or cache key.
type FeatureRecord struct {
	values [FeatureCount]float64
}

// MapFeatures assigns values to the feature columns by position.
func MapFeatures(values []float64) (FeatureRecord, error) {
	var record FeatureRecord
	if len(values) != FeatureCount {
		return record, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidInputShape, FeatureCount, len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return record, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInputType, featureNames[i])
		}
		record.values[i] = v
	}
	return record, nil
}

// ParseFeatureValues parses textual values, as given on a command line, and
// maps them onto the feature columns.
func ParseFeatureValues(args []string) (FeatureRecord, error) {
	if len(args) != FeatureCount {
		return FeatureRecord{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidInputShape, FeatureCount, len(args))
	}
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return FeatureRecord{}, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidInputType, featureNames[i], arg)
		}
		values[i] = v
	}
	return MapFeatures(values)
}

// Len is always FeatureCount.
func (r FeatureRecord) Len() int {
	return FeatureCount
}

// Names returns the column names in positional order.
func (r FeatureRecord) Names() []string {
	return FeatureNames()
}

// Values returns a copy of the row in column order.
func (r FeatureRecord) Values() []float64 {
	values := make([]float64, FeatureCount)
	copy(values, r.values[:])
	return values
}

// Get returns the value of the named column.
func (r FeatureRecord) Get(name string) (float64, bool) {
	idx, ok := FeatureIndex(name)
	if !ok {
		return 0, false
	}
	return r.values[idx], true
}

// Columns pairs each name with its value, in positional order.
func (r FeatureRecord) Columns() []Column {
	columns := make([]Column, FeatureCount)
	for i, name := range featureNames {
		columns[i] = Column{Name: name, Value: r.values[i]}
	}
	return columns
}

func (r FeatureRecord) at(idx int) float64 {
	return r.values[idx]
}
