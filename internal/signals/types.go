package signals

// Sample is one row of the input table after numeric cleaning.
type Sample struct {
	Time    float64
	Speed   float64
	Current float64
}

// Series holds the conditioned channels as parallel slices of equal length.
type Series struct {
	Time           []float64
	TorqueRaw      []float64
	TorqueSmoothed []float64
	SpeedRaw       []float64
	SpeedSmoothed  []float64

	// Window is the smoothing window actually applied; 0 means smoothing was skipped.
	Window int
}

func (s Series) Len() int {
	return len(s.Time)
}

// Segment is a half-open index range [Start, End) of the series where the motor is turning.
type Segment struct {
	Start     int
	End       int
	StartTime float64
	EndTime   float64
	Torque    []float64
	Speed     []float64
}

func (s Segment) Len() int {
	return s.End - s.Start
}

type SegmentStats struct {
	BreakawayTorque float64
	SteadyTorque    float64
	HasSteady       bool
}

type AnalyzedSegment struct {
	Segment
	Stats SegmentStats
}

type AggregateResult struct {
	MeanCurve    []float64
	AvgBreakaway float64
	AvgSteady    float64
	SegmentCount int
	SteadyCount  int
}

// SeriesSummary describes the whole raw torque channel, independent of segmentation.
type SeriesSummary struct {
	SampleCount int
	FirstTime   float64
	LastTime    float64
	MeanTorque  float64
	MaxTorque   float64
}

type Result struct {
	Series    Series
	Summary   SeriesSummary
	Threshold float64
	Segments  []AnalyzedSegment
	Aggregate AggregateResult
}
