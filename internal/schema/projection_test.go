package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func smallSchema() pgingest.Schema {
	return pgingest.Schema{Fields: []pgingest.Field{
		{Name: "VendorID", Type: pgingest.FieldInt64},
		{Name: "tpep_pickup_datetime", Type: pgingest.FieldTimestamp},
		{Name: "fare_amount", Type: pgingest.FieldFloat64},
	}}
}

func TestProject_ReordersAndDropsExtras(t *testing.T) {
	header := []string{"fare_amount", "extra_col", "tpep_pickup_datetime", "VendorID"}
	p, err := Project(header, smallSchema())
	require.NoError(t, err)

	assert.Equal(t, []string{"VendorID", "tpep_pickup_datetime", "fare_amount"}, p.Columns())

	row, err := p.Row([]string{"12.5", "ignored", "2021-01-01 00:30:10", "2"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), time.Date(2021, 1, 1, 0, 30, 10, 0, time.UTC), 12.5}, row)
}

func TestProject_MissingColumns(t *testing.T) {
	_, err := Project([]string{"VendorID"}, smallSchema())

	require.Error(t, err)
	assert.True(t, errors.Is(err, pgingest.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "tpep_pickup_datetime, fare_amount")
}

func TestProject_HeaderCleanup(t *testing.T) {
	header := []string{"\ufeffVendorID", " tpep_pickup_datetime ", "fare_amount"}
	_, err := Project(header, smallSchema())
	assert.NoError(t, err)
}

func TestProjection_RowCoercionError(t *testing.T) {
	p, err := Project([]string{"VendorID", "tpep_pickup_datetime", "fare_amount"}, smallSchema())
	require.NoError(t, err)

	_, err = p.Row([]string{"x", "2021-01-01 00:30:10", "1"}, 17)

	var ce *pgingest.CoercionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "VendorID", ce.Column)
	assert.Equal(t, int64(17), ce.Row)
	assert.Equal(t, "x", ce.Value)
	assert.True(t, errors.Is(err, pgingest.ErrSchemaCoercion))
}

func TestProjection_ShortAndWideRows(t *testing.T) {
	p, err := Project([]string{"VendorID", "tpep_pickup_datetime", "fare_amount"}, smallSchema())
	require.NoError(t, err)

	row, err := p.Row([]string{"1"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, nil}, row)

	_, err = p.Row([]string{"1", "", "", "surplus"}, 2)
	assert.True(t, errors.Is(err, pgingest.ErrSchemaMismatch))
}

func TestTaxiTrips(t *testing.T) {
	s := TaxiTrips()
	require.NoError(t, s.Validate())
	require.Len(t, s.Fields, 18)

	assert.Equal(t, []string{"tpep_pickup_datetime", "tpep_dropoff_datetime"}, s.TimestampFields())

	types := map[string]pgingest.FieldType{}
	for _, f := range s.Fields {
		types[f.Name] = f.Type
	}
	for _, name := range []string{"VendorID", "passenger_count", "RatecodeID", "PULocationID", "DOLocationID", "payment_type"} {
		assert.Equal(t, pgingest.FieldInt64, types[name], name)
	}
	for _, name := range []string{"trip_distance", "fare_amount", "extra", "mta_tax", "tip_amount", "tolls_amount", "improvement_surcharge", "total_amount", "congestion_surcharge"} {
		assert.Equal(t, pgingest.FieldFloat64, types[name], name)
	}
	assert.Equal(t, pgingest.FieldText, types["store_and_fwd_flag"])
}

func TestProjection_TimestampColumnsParseIndependently(t *testing.T) {
	s := pgingest.Schema{
		Fields: []pgingest.Field{
			{Name: "pickup", Type: pgingest.FieldTimestamp},
			{Name: "dropoff", Type: pgingest.FieldTimestamp},
		},
		TimestampLayouts: []string{"02/01/2006", "01/02/2006"},
	}
	p, err := Project([]string{"pickup", "dropoff"}, s)
	require.NoError(t, err)

	row, err := p.Row([]string{"04/25/2021", "05/04/2021"}, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 4, 25, 0, 0, 0, 0, time.UTC), row[0])
	assert.Equal(t, time.Date(2021, 4, 5, 0, 0, 0, 0, time.UTC), row[1])
}
