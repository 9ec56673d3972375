package engine

import "github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"

// Outcome is the result shown at the finish.
type Outcome struct {
	Rewarded    bool   `json:"rewarded"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Icon        string `json:"icon"`
	FinishTitle string `json:"finishTitle,omitempty"`
	FinishText  string `json:"finishText,omitempty"`
	HintsUsed   int    `json:"hintsUsed"`
	Threshold   int    `json:"threshold"`
}

// ComputeOutcome grants the reward while hintsUsed stays below the route's
// threshold; reaching the threshold forfeits it.
func ComputeOutcome(rt *route.Route, hintsUsed int) Outcome {
	threshold := rt.Threshold()
	rewarded := hintsUsed < threshold

	key := rt.Finish.Reward.OnLoseKey
	if rewarded {
		key = rt.Finish.Reward.OnWinKey
	}
	content, _ := rt.Rules.Content(key)

	return Outcome{
		Rewarded:    rewarded,
		Title:       content.Title,
		Text:        content.Text,
		Icon:        content.Icon,
		FinishTitle: rt.Finish.Title,
		FinishText:  rt.Finish.Text,
		HintsUsed:   hintsUsed,
		Threshold:   threshold,
	}
}
