// Package route defines the immutable route model of a scavenger hunt: seasons,
// checkpoints, their tasks and answers, and the reward rules. Definitions are
// built only through Parse and friends, which enforce the structural
// invariants, so every other package may trust a *Route it is handed.
package route

import (
	"fmt"
	"slices"
	"sort"
)

const (
	// FinishID is the next pointer that ends a route.
	FinishID = "finish"
	// DefaultFinishCode is the finish QR text when a route does not name one.
	DefaultFinishCode = "FINISH"
	// DefaultStart is the first checkpoint when the intro does not name one.
	DefaultStart = "1"
	// DefaultMaxHintsForReward applies when the rules omit maxHintsForReward.
	DefaultMaxHintsForReward = 3

	RewardKey   = "reward"
	NoRewardKey = "noReward"
)

// Definition is a loaded route document.
type Definition struct {
	AppName string
	Rules   Rules
	Seasons map[string]*Season
}

// SeasonIDs returns the season identifiers in sorted order.
func (d *Definition) SeasonIDs() []string {
	ids := make([]string, 0, len(d.Seasons))
	for id := range d.Seasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Active returns the route of the given season. An empty season selects the
// only season of the document; with more than one season it must be named.
func (d *Definition) Active(season string) (*Route, error) {
	if season == "" {
		if len(d.Seasons) != 1 {
			return nil, fmt.Errorf("route document has %d seasons %v: a season must be selected", len(d.Seasons), d.SeasonIDs())
		}
		for _, s := range d.Seasons {
			return s.Route, nil
		}
	}
	s, ok := d.Seasons[season]
	if !ok {
		return nil, fmt.Errorf("season %q not found, have %v", season, d.SeasonIDs())
	}
	return s.Route, nil
}

// Rules hold the reward threshold and the two finish contents.
type Rules struct {
	MaxHintsForReward int
	Reward            Content
	NoReward          Content
}

// Content returns the finish content registered under key.
func (r Rules) Content(key string) (Content, bool) {
	switch key {
	case RewardKey:
		return r.Reward, true
	case NoRewardKey:
		return r.NoReward, true
	}
	return Content{}, false
}

// Content is what the participant sees at the finish.
type Content struct {
	Title string
	Text  string
	Icon  string
}

type Season struct {
	ID    string
	Label string
	Route *Route
}

// Route is one season's sequence of checkpoints.
type Route struct {
	Season string
	Title  string
	Intro  Intro
	Finish Finish
	Rules  Rules

	checkpoints map[string]*Checkpoint
	byQR        map[string]*Checkpoint
	path        []string
	finishCode  string
}

type Intro struct {
	Text  string
	Start string
}

type Finish struct {
	Title  string
	Text   string
	Code   string
	Reward RewardLogic
}

// RewardLogic is the per-route override of the reward rules.
type RewardLogic struct {
	HintsUsedMax int
	OnWinKey     string
	OnLoseKey    string
}

// Checkpoint is one physical stop of a route.
type Checkpoint struct {
	ID     string
	QR     string
	Task   Task
	Answer Answer
	Hint   string
	Next   string
	Nav    *Navigation
}

// IsLast reports whether completing c finishes the route.
func (c *Checkpoint) IsLast() bool { return c.Next == FinishID }

// Navigation directs the participant to the next stop.
type Navigation struct {
	Text  string
	Image string
}

// Len returns the number of checkpoints, the denominator of progress.
func (r *Route) Len() int { return len(r.checkpoints) }

// CheckpointByID looks a checkpoint up by its key.
func (r *Route) CheckpointByID(id string) (*Checkpoint, bool) {
	c, ok := r.checkpoints[id]
	return c, ok
}

// CheckpointByQR resolves scanned text to a checkpoint. Matching is exact
// after trimming and Unicode case folding.
func (r *Route) CheckpointByQR(code string) (*Checkpoint, bool) {
	c, ok := r.byQR[Fold(code)]
	return c, ok
}

// IsFinishCode reports whether code is this route's finish sentinel.
func (r *Route) IsFinishCode(code string) bool {
	return Fold(code) == r.finishCode
}

// Path returns the checkpoint ids in visiting order, starting at the intro.
func (r *Route) Path() []string { return slices.Clone(r.path) }

// Unreachable returns the ids of checkpoints no next pointer leads to from
// the start, sorted.
func (r *Route) Unreachable() []string {
	var ids []string
	for id := range r.checkpoints {
		if !slices.Contains(r.path, id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Checkpoints returns every checkpoint, visiting order first and unreachable
// ones after it.
func (r *Route) Checkpoints() []*Checkpoint {
	out := make([]*Checkpoint, 0, len(r.checkpoints))
	for _, id := range r.path {
		out = append(out, r.checkpoints[id])
	}
	for _, id := range r.Unreachable() {
		out = append(out, r.checkpoints[id])
	}
	return out
}

// Threshold returns the hint count at which the reward is forfeited.
func (r *Route) Threshold() int {
	if r.Finish.Reward.HintsUsedMax > 0 {
		return r.Finish.Reward.HintsUsedMax
	}
	return r.Rules.MaxHintsForReward
}
