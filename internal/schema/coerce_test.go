package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func TestCoercer_Int64(t *testing.T) {
	c := NewCoercer(nil)

	tests := []struct {
		raw     string
		want    any
		wantErr bool
	}{
		{"1", int64(1), false},
		{" 42 ", int64(42), false},
		{"-7", int64(-7), false},
		{"1.0", int64(1), false},
		{"", nil, false},
		{"NaN", nil, false},
		{"NA", nil, false},
		{"1.5", nil, true},
		{"abc", nil, true},
		{"9223372036854775808", nil, true},
		{"-3.00", int64(-3), false},
		{"9007199254740993.0", int64(9007199254740993), false},
		{"9223372036854775808.0", nil, true},
		{"1e3", int64(1000), false},
		{"1e17", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := c.Coerce(pgingest.FieldInt64, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoercer_EmptyIntegerIsNullNotZero(t *testing.T) {
	got, err := NewCoercer(nil).Coerce(pgingest.FieldInt64, "")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NotEqual(t, int64(0), got)
}

func TestCoercer_Float64(t *testing.T) {
	c := NewCoercer(nil)

	got, err := c.Coerce(pgingest.FieldFloat64, "2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	got, err = c.Coerce(pgingest.FieldFloat64, "-0.3")
	require.NoError(t, err)
	assert.Equal(t, -0.3, got)

	got, err = c.Coerce(pgingest.FieldFloat64, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = c.Coerce(pgingest.FieldFloat64, "1,5")
	assert.Error(t, err)
}

func TestCoercer_Text(t *testing.T) {
	c := NewCoercer(nil)

	got, err := c.Coerce(pgingest.FieldText, "N")
	require.NoError(t, err)
	assert.Equal(t, "N", got)

	got, err = c.Coerce(pgingest.FieldText, "NA")
	require.NoError(t, err)
	assert.Equal(t, "NA", got, "text keeps null-looking tokens")

	got, err = c.Coerce(pgingest.FieldText, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCoercer_Timestamp(t *testing.T) {
	c := NewCoercer(nil)
	want := time.Date(2021, 1, 1, 0, 30, 10, 0, time.UTC)

	for _, raw := range []string{
		"2021-01-01 00:30:10",
		"2021-01-01T00:30:10",
		"2021-01-01T00:30:10Z",
		"01/01/2021 12:30:10 AM",
	} {
		got, err := c.Coerce(pgingest.FieldTimestamp, raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got.(time.Time)), "%s parsed as %v", raw, got)
	}

	got, err := c.Coerce(pgingest.FieldTimestamp, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = c.Coerce(pgingest.FieldTimestamp, "yesterday")
	assert.True(t, errors.Is(err, errNoLayout))
}

func TestCoercer_CustomLayouts(t *testing.T) {
	c := NewCoercer([]string{"02.01.2006 15:04"})

	got, err := c.Coerce(pgingest.FieldTimestamp, "31.12.2020 23:59")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 12, 31, 23, 59, 0, 0, time.UTC), got)

	_, err = c.Coerce(pgingest.FieldTimestamp, "2020-12-31 23:59:00")
	assert.Error(t, err, "custom layouts replace the defaults")
}

func TestCoercer_LayoutOrderWinsOverEarlierRows(t *testing.T) {
	c := NewCoercer([]string{"02/01/2006", "01/02/2006"})
	dayFirst := time.Date(2021, 4, 5, 0, 0, 0, 0, time.UTC)

	got, err := c.Coerce(pgingest.FieldTimestamp, "05/04/2021")
	require.NoError(t, err)
	assert.Equal(t, dayFirst, got)

	// Only the second layout accepts this one.
	got, err = c.Coerce(pgingest.FieldTimestamp, "04/25/2021")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 4, 25, 0, 0, 0, 0, time.UTC), got)

	got, err = c.Coerce(pgingest.FieldTimestamp, "05/04/2021")
	require.NoError(t, err)
	assert.Equal(t, dayFirst, got)
}
