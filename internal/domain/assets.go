package domain

// Assets is the full immutable input of the dashboard, loaded once.
// Fit is nil when no train/test file was configured.
type Assets struct {
	Rows                 []Row
	Features             []Feature
	Model                ModelMetrics
	Results              ResultTable
	EntityMetrics        []EntityMetrics
	EntityMetricsVersion SchemaVersion
	Fit                  *FitData
}
