package models

import "time"

// RunStats holds the counters and timing of one processing run
type RunStats struct {
	Total     int       `json:"total" example:"2"`
	Success   int       `json:"success" example:"1"`
	Errors    int       `json:"errors" example:"1"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns the measured run time, zero while the run is open
func (s RunStats) Duration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() || s.EndTime.Before(s.StartTime) {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Throughput returns processed CEPs per second, 0 when nothing was measured
func (s RunStats) Throughput() float64 {
	seconds := s.Duration().Seconds()
	if seconds <= 0 || s.Total == 0 {
		return 0
	}
	return float64(s.Success+s.Errors) / seconds
}

// SuccessRate returns the success percentage, 0 for an empty run
func (s RunStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total) * 100
}

// Resolved returns how many CEPs reached a final outcome
func (s RunStats) Resolved() int {
	return s.Success + s.Errors
}

// Run aggregates everything produced by one processing run
type Run struct {
	ID      string
	Stats   RunStats
	Results []*LookupResult
	Errors  []LookupError
}

// PreviewResults returns at most n results
func (r *Run) PreviewResults(n int) []*LookupResult {
	if n < 0 || n > len(r.Results) {
		n = len(r.Results)
	}
	return r.Results[:n]
}

// PreviewErrors returns at most n errors
func (r *Run) PreviewErrors(n int) []LookupError {
	if n < 0 || n > len(r.Errors) {
		n = len(r.Errors)
	}
	return r.Errors[:n]
}

// StatsSummary is the run statistics as rendered back to callers
type StatsSummary struct {
	RunStats
	DurationSeconds float64 `json:"duration_seconds" example:"1.52"`
	SuccessRate     float64 `json:"success_rate" example:"50"`
	PerSecond       float64 `json:"ceps_per_second" example:"1.31"`
}

// Summarize derives the rendered statistics
func (s RunStats) Summarize() StatsSummary {
	return StatsSummary{
		RunStats:        s,
		DurationSeconds: s.Duration().Seconds(),
		SuccessRate:     s.SuccessRate(),
		PerSecond:       s.Throughput(),
	}
}

// OutputFiles names the exports written by a run
type OutputFiles struct {
	JSON      string `json:"json" example:"enderecos.json"`
	XML       string `json:"xml" example:"enderecos.xml"`
	ErrorsCSV string `json:"errors_csv,omitempty" example:"errors.csv"`
}

// RunReport is returned to the caller once a run completes
// @Description Statistics and bounded previews of a finished processing run
type RunReport struct {
	Success        bool            `json:"success" example:"true"`
	RunID          string          `json:"run_id" example:"1f0c8a52-6f0e-4a8e-9d0f-8e0e8a2f6a11"`
	Stats          StatsSummary    `json:"stats"`
	PreviewResults []*LookupResult `json:"preview_results" swaggertype:"array,object"`
	PreviewErrors  []LookupError   `json:"preview_errors"`
	Files          OutputFiles     `json:"files"`
	SinkErrors     []string        `json:"sink_errors,omitempty"`
}
