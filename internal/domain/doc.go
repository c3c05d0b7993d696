// Package domain holds the energy-consumption dashboard model and the pure
// transformations that derive every view from it.
//
// # Assets
//
// The dashboard consumes files produced by an offline training job:
//
//	dataset CSV         one row per (IdEmpresa, Año, IdMes) with billed energy
//	                    ("Energía Facturada (MWh)") and covariates
//	                    temperatura, precipitacion, PIB_mensual_interpolado,
//	                    COSTO_CANASTA, INGRESO_FAMILIAR_MENSUAL
//	model metrics JSON  {"train": {mse, rmse, mae, r2}, "test": {...}}
//	results CSV         per-time-step actual vs predicted, v1 or v2 layout
//	entity metrics CSV  per-entity RMSE, MAE, R2 and relative error, v1 or v2
//	GeoJSON             areas keyed by IDSISDAT with opaque geometry
//
// The v1 and v2 layouts are kept as explicit variants ([ResultTable],
// [SchemaVersion]); neither is assumed to be authoritative.
//
// # Views
//
// Every view takes its [Filter] as an argument; there is no shared selection
// state. All functions are deterministic over the same input and never
// modify it:
//
//	FilterRows       entity/year equality filter, nil dimension = all
//	AverageBy        group-by mean in first-appearance order
//	TopEntities      per-entity mean energy, descending, first 15
//	MonthlySeries    "YYYY-MM" buckets, ascending, sparse
//	Seasonality      calendar-month means, ascending
//	JoinChoropleth   per-entity means joined onto features with a value domain
//	SortMetrics      stable column sort of the entity metrics table
//
// # Missing values
//
// Empty numeric cells are recorded in [Row.Missing]. Aggregations skip them,
// except the choropleth join which counts them as 0.
//
// # Prediction requests
//
// [PredictionInput.Validate] applies eight rules in a fixed order and reports
// only the first violation as a [*ValidationError].
package domain
