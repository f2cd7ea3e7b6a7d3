package pipeline

// Status is the outcome of one file in a batch step.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result is the outcome of one input file.
type Result struct {
	Step   string
	Path   string
	Output string // Main file written, empty unless succeeded
	Status Status
	Err    error
}

// Report aggregates the results of one or more batch steps.
type Report struct {
	Succeeded int
	Failed    int
	Skipped   int
	Results   []Result
	// Empty lists the steps whose input directory was missing or empty.
	Empty []string
}

// OK reports whether no file failed.
func (r Report) OK() bool {
	return r.Failed == 0
}

func (r *Report) add(res Result) {
	switch res.Status {
	case StatusSucceeded:
		r.Succeeded++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
	r.Results = append(r.Results, res)
}

// Merge appends the results of o.
func (r *Report) Merge(o Report) {
	r.Succeeded += o.Succeeded
	r.Failed += o.Failed
	r.Skipped += o.Skipped
	r.Results = append(r.Results, o.Results...)
	r.Empty = append(r.Empty, o.Empty...)
}
