package classify

//Tier represents coarse risk bucket derived from percent
type Tier int

const (
	// Low risk bucket, percent in [0, 50]
	Low Tier = iota + 1
	// Moderate risk bucket, percent in [51, 75]
	Moderate
	// High risk bucket, percent in [76, 100]
	High
)

var tierName = map[Tier]string{Low: "Low", Moderate: "Moderate", High: "High"}

func (t Tier) String() string {
	return tierName[t]
}

// Result carries the derived tier data for one percent value
type Result struct {
	Tier      Tier
	Diagnosis string
	Advice    []string
}

// Do maps percent to a tier, diagnosis text and advice list.
// Bounds are inclusive on the upper side: 50 is Low, 75 is Moderate
func Do(percent int) *Result {
	if percent <= 50 {
		return &Result{Tier: Low,
			Diagnosis: "does not indicate Parkinsonian risk",
			Advice: []string{
				"No symptoms: an annual re-check is optional",
				"Minor symptoms: re-check twice a year",
				"Warning signs: re-check 2-4 times a year",
			}}
	}
	if percent <= 75 {
		return &Result{Tier: Moderate,
			Diagnosis: "indicates moderate Parkinsonian risk",
			Advice: []string{
				"See a neurology specialist for further evaluation",
				"Keep a daily record of tremor, gait and balance symptoms",
				"If on medication: track side effects and response",
			}}
	}
	return &Result{Tier: High,
		Diagnosis: "indicates high Parkinsonian risk",
		Advice: []string{
			"See a neurology specialist as soon as possible for confirmation",
			"Record symptoms every day and bring the notes to the visit",
			"If on medication: track the response closely and consult regularly",
		}}
}
