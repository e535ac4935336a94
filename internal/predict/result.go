package predict

// Label is the classification outcome for one blood-cell image.
type Label string

const (
	Parasitized Label = "Parasitized"
	Uninfected  Label = "Uninfected"
)

// Result is one entry of the /predict response.
type Result struct {
	Filename string `json:"filename"`
	Label    Label  `json:"label"`
	// Confidence is a percentage in [0, 100].
	Confidence float64 `json:"confidence"`
}

// Infected reports whether the cell was classified as parasitized. Any other
// label is treated as uninfected.
func (r Result) Infected() bool {
	return r.Label == Parasitized
}

// Explanation is the fixed sentence shown under a result.
func (r Result) Explanation() string {
	if r.Infected() {
		return "Malaria parasites detected in this cell."
	}
	return "Cell appears healthy without parasites."
}

// Fraction returns the confidence as a ratio clamped to [0, 1].
func (r Result) Fraction() float64 {
	f := r.Confidence / 100
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Counts is the per-label tally of a response.
type Counts struct {
	Parasitized int `json:"parasitized"`
	Uninfected  int `json:"uninfected"`
}

// Total returns the number of results counted.
func (c Counts) Total() int { return c.Parasitized + c.Uninfected }

// Tally folds results into per-label counts.
func Tally(results []Result) Counts {
	var c Counts
	for _, r := range results {
		if r.Infected() {
			c.Parasitized++
		} else {
			c.Uninfected++
		}
	}
	return c
}
