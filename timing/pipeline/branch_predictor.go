package pipeline

// BranchPredictorConfig holds configuration for the branch predictor.
type BranchPredictorConfig struct {
	// BHTSize is the number of entries in the Branch History Table.
	// Rounded up to a power of 2, with a minimum of 16. Default is 1024.
	BHTSize uint32
}

// DefaultBranchPredictorConfig returns a default configuration.
func DefaultBranchPredictorConfig() BranchPredictorConfig {
	return BranchPredictorConfig{
		BHTSize: 1024,
	}
}

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of branch predictions made.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

const minBHTSize = 16

// BranchPredictor implements a 2-bit saturating counter (bimodal)
// direction predictor, direct-mapped on (pc>>2) mod size. RV32I branch
// targets are always recoverable from the decoded immediate at fetch
// time, so unlike a predictor for register-indirect branches this one
// carries no target buffer: Predict only answers taken/not-taken, and
// the caller (the fetch stage's pre-decode) supplies the target itself.
type BranchPredictor struct {
	// Branch History Table (BHT) - 2-bit saturating counters.
	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken.
	bht []uint8

	bhtSize uint32

	stats BranchPredictorStats
}

// NewBranchPredictor creates a new branch predictor with the given
// configuration. BHTSize is rounded up to the next power of 2 if it
// isn't one already, and floored at minBHTSize.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	bhtSize := config.BHTSize
	if bhtSize == 0 {
		bhtSize = 1024
	}
	bhtSize = nextPowerOfTwo(bhtSize)
	if bhtSize < minBHTSize {
		bhtSize = minBHTSize
	}

	bp := &BranchPredictor{
		bht:     make([]uint8, bhtSize),
		bhtSize: bhtSize,
	}

	bp.resetBHT()

	return bp
}

func nextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

func (bp *BranchPredictor) resetBHT() {
	// Entries start weakly-not-taken: backward-branch-dominant loops
	// mispredict once on entry either way, but straight-line code with
	// an occasional untaken guard branch is the more common cold-start
	// case, and that favors a not-taken bias.
	for i := range bp.bht {
		bp.bht[i] = 1
	}
}

// bhtIndex computes the BHT index for a given PC.
func (bp *BranchPredictor) bhtIndex(pc uint32) uint32 {
	return (pc >> 2) & (bp.bhtSize - 1)
}

// Predict returns the direction prediction for the branch at pc.
func (bp *BranchPredictor) Predict(pc uint32) bool {
	counter := bp.bht[bp.bhtIndex(pc)]
	bp.stats.Predictions++
	return counter >= 2
}

// Update updates the predictor with the actual branch outcome.
func (bp *BranchPredictor) Update(pc uint32, taken bool) {
	idx := bp.bhtIndex(pc)
	counter := bp.bht[idx]

	predicted := counter >= 2
	if predicted == taken {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}

	switch {
	case taken && counter < 3:
		bp.bht[idx] = counter + 1
	case !taken && counter > 0:
		bp.bht[idx] = counter - 1
	}
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	bp.resetBHT()
	bp.stats = BranchPredictorStats{}
}
