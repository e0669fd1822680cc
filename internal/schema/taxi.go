package schema

import "github.com/vvka-141/pgingest/pkg/pgingest"

// TaxiTrips returns the yellow-taxi trip schema in source header order.
// Downstream consumers depend on these names and types; do not reorder.
func TaxiTrips() pgingest.Schema {
	return pgingest.Schema{
		Fields: []pgingest.Field{
			{Name: "VendorID", Type: pgingest.FieldInt64},
			{Name: "tpep_pickup_datetime", Type: pgingest.FieldTimestamp},
			{Name: "tpep_dropoff_datetime", Type: pgingest.FieldTimestamp},
			{Name: "passenger_count", Type: pgingest.FieldInt64},
			{Name: "trip_distance", Type: pgingest.FieldFloat64},
			{Name: "RatecodeID", Type: pgingest.FieldInt64},
			{Name: "store_and_fwd_flag", Type: pgingest.FieldText},
			{Name: "PULocationID", Type: pgingest.FieldInt64},
			{Name: "DOLocationID", Type: pgingest.FieldInt64},
			{Name: "payment_type", Type: pgingest.FieldInt64},
			{Name: "fare_amount", Type: pgingest.FieldFloat64},
			{Name: "extra", Type: pgingest.FieldFloat64},
			{Name: "mta_tax", Type: pgingest.FieldFloat64},
			{Name: "tip_amount", Type: pgingest.FieldFloat64},
			{Name: "tolls_amount", Type: pgingest.FieldFloat64},
			{Name: "improvement_surcharge", Type: pgingest.FieldFloat64},
			{Name: "total_amount", Type: pgingest.FieldFloat64},
			{Name: "congestion_surcharge", Type: pgingest.FieldFloat64},
		},
	}
}
