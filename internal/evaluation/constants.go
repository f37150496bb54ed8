package evaluation

const (
	// DefaultThreshold is the flat decision threshold used when no per-class
	// thresholds are available.
	DefaultThreshold = 0.5

	// DegenerateClassThreshold is assigned to classes without a single positive
	// ground-truth example, where the F1 surface is undefined.
	DegenerateClassThreshold = 0.5

	// F1Epsilon smooths the threshold search F1 so that precision = recall = 0
	// yields 0 instead of NaN.
	F1Epsilon = 1e-8
)
