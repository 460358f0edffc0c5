package models

// InsightReport holds the computed analytics over one harvest run.
type InsightReport struct {
	TotalRecords      int
	WithPermalink     int
	WithContact       int
	AveragePrice      float64
	MinPrice          float64
	MaxPrice          float64
	MostViewed        *Record
	TopViewed         []*Record
	RecordsByCategory map[string]int
}
