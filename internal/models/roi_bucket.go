package models

// ROIBucket aggregates settlements under one label (a confidence band, a tag
// or a calendar period).
type ROIBucket struct {
	Label          string  `db:"label" json:"label"`
	Tips           int     `db:"tips" json:"tips"`
	Wins           int     `db:"wins" json:"wins"`
	Places         int     `db:"places" json:"places"`
	NonRunners     int     `db:"non_runners" json:"non_runners"`
	Stake          float64 `db:"stake" json:"stake"`
	Profit         float64 `db:"profit" json:"profit"`
	WeightedTips   float64 `db:"weighted_tips" json:"weighted_tips"`
	WeightedWins   float64 `db:"weighted_wins" json:"weighted_wins"`
	WeightedPlaces float64 `db:"weighted_places" json:"weighted_places"`
	WeightedStake  float64 `db:"weighted_stake" json:"weighted_stake"`
	WeightedProfit float64 `db:"weighted_profit" json:"weighted_profit"`
}

// Add folds one settlement into the bucket with the given decay weight.
// Non-runners are counted but never reach the tip, stake or rate totals.
// Rows without a usable price count as tips but add no stake or profit.
func (b *ROIBucket) Add(s *Settlement, weight float64) {
	if s.IsNonRunner() {
		b.NonRunners++
		return
	}

	b.Tips++
	b.WeightedTips += weight
	if s.Position.IsWin() {
		b.Wins++
		b.WeightedWins += weight
	}
	if s.Position.IsPlaced() {
		b.Places++
		b.WeightedPlaces += weight
	}
	if !s.PriceValid {
		return
	}
	b.Stake += s.Stake
	b.Profit += s.Profit
	b.WeightedStake += s.Stake * weight
	b.WeightedProfit += s.Profit * weight
}

// Merge adds the totals of other into b.
func (b *ROIBucket) Merge(other ROIBucket) {
	b.Tips += other.Tips
	b.Wins += other.Wins
	b.Places += other.Places
	b.NonRunners += other.NonRunners
	b.Stake += other.Stake
	b.Profit += other.Profit
	b.WeightedTips += other.WeightedTips
	b.WeightedWins += other.WeightedWins
	b.WeightedPlaces += other.WeightedPlaces
	b.WeightedStake += other.WeightedStake
	b.WeightedProfit += other.WeightedProfit
}

// WinPct returns wins over tips as a percentage.
func (b *ROIBucket) WinPct() float64 {
	if b.Tips == 0 {
		return 0
	}
	return float64(b.Wins) / float64(b.Tips) * 100
}

// PlacePct returns places over tips as a percentage.
func (b *ROIBucket) PlacePct() float64 {
	if b.Tips == 0 {
		return 0
	}
	return float64(b.Places) / float64(b.Tips) * 100
}

// ROIPct returns profit over stake as a percentage, 0 when nothing was staked.
func (b *ROIBucket) ROIPct() float64 {
	if b.Stake == 0 {
		return 0
	}
	return b.Profit / b.Stake * 100
}

// WeightedWinPct returns the decay-weighted win percentage.
func (b *ROIBucket) WeightedWinPct() float64 {
	if b.WeightedTips == 0 {
		return 0
	}
	return b.WeightedWins / b.WeightedTips * 100
}

// WeightedROIPct returns the decay-weighted ROI percentage.
func (b *ROIBucket) WeightedROIPct() float64 {
	if b.WeightedStake == 0 {
		return 0
	}
	return b.WeightedProfit / b.WeightedStake * 100
}

// IsEmpty reports whether the bucket has seen any tip.
func (b *ROIBucket) IsEmpty() bool {
	return b.Tips == 0 && b.NonRunners == 0
}
