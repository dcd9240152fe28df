package ml

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapFeatures(t *testing.T) {
	record, err := MapFeatures([]float64{0.5, 0.1, 240.0, 3.0, 0.0, 1.0, 2.0})
	require.NoError(t, err)

	assert.Equal(t, 7, record.Len())
	assert.Equal(t, []string{
		"Global_active_power",
		"Global_reactive_power",
		"Voltage",
		"Global_intensity",
		"Sub_metering_1",
		"Sub_metering_2",
		"Sub_metering_3",
	}, record.Names())
	assert.Equal(t, []float64{0.5, 0.1, 240.0, 3.0, 0.0, 1.0, 2.0}, record.Values())

	voltage, ok := record.Get("Voltage")
	require.True(t, ok)
	assert.Equal(t, 240.0, voltage)

	_, ok = record.Get("Frequency")
	assert.False(t, ok)
}

func TestMapFeaturesKeepsNamesForAnyMagnitude(t *testing.T) {
	inputs := [][]float64{
		{0, 0, 0, 0, 0, 0, 0},
		{-1, -2, -3, -4, -5, -6, -7},
		{1e300, -1e300, 1e-300, -1e-300, math.MaxFloat64, -math.MaxFloat64, math.SmallestNonzeroFloat64},
	}
	for _, input := range inputs {
		record, err := MapFeatures(input)
		require.NoError(t, err)
		columns := record.Columns()
		require.Len(t, columns, FeatureCount)
		for i, column := range columns {
			assert.Equal(t, FeatureNames()[i], column.Name)
			assert.Equal(t, input[i], column.Value)
		}
	}
}

func TestMapFeaturesRejectsWrongShape(t *testing.T) {
	for _, input := range [][]float64{nil, {}, {1, 2, 3}, {1, 2, 3, 4, 5, 6, 7, 8}} {
		_, err := MapFeatures(input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInputShape), "len=%d: %v", len(input), err)
	}
}

func TestMapFeaturesRejectsNonFinite(t *testing.T) {
	_, err := MapFeatures([]float64{1, 2, math.NaN(), 4, 5, 6, 7})
	assert.ErrorIs(t, err, ErrInvalidInputType)

	_, err = MapFeatures([]float64{1, 2, 3, 4, 5, 6, math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidInputType)
}

func TestMapFeaturesCopiesInput(t *testing.T) {
	input := []float64{1, 2, 3, 4, 5, 6, 7}
	record, err := MapFeatures(input)
	require.NoError(t, err)

	input[0] = 100
	values := record.Values()
	assert.Equal(t, 1.0, values[0])

	values[1] = 100
	assert.Equal(t, 2.0, record.Values()[1])
}

func TestParseFeatureValues(t *testing.T) {
	record, err := ParseFeatureValues([]string{"0.5", "0.1", "240", " 3.0 ", "0", "1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.1, 240, 3, 0, 1, 2}, record.Values())

	_, err = ParseFeatureValues([]string{"1", "2"})
	assert.ErrorIs(t, err, ErrInvalidInputShape)

	_, err = ParseFeatureValues([]string{"1", "2", "abc", "4", "5", "6", "7"})
	assert.ErrorIs(t, err, ErrInvalidInputType)

	_, err = ParseFeatureValues([]string{"1", "2", "NaN", "4", "5", "6", "7"})
	assert.ErrorIs(t, err, ErrInvalidInputType)
}

func TestFeatureNamesReturnsCopy(t *testing.T) {
	names := FeatureNames()
	names[0] = "changed"
	assert.Equal(t, "Global_active_power", FeatureNames()[0])

	idx, ok := FeatureIndex("Sub_metering_3")
	assert.True(t, ok)
	assert.Equal(t, 6, idx)
}

func TestErrorKind(t *testing.T) {
	cases := map[error]string{
		ErrMalformedBody:     "MalformedBody",
		ErrMissingField:      "MissingField",
		ErrInvalidInputShape: "InvalidInputShape",
		ErrInvalidInputType:  "InvalidInputType",
		ErrModelInference:    "ModelInferenceError",
		errors.New("boom"):   "InternalError",
	}
	for err, kind := range cases {
		assert.Equal(t, kind, ErrorKind(err))
	}
	assert.Equal(t, "", ErrorKind(nil))

	assert.True(t, IsClientError(ErrMissingField))
	assert.False(t, IsClientError(ErrModelInference))
}
