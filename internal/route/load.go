package route

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Schema returns the JSON Schema route documents are validated against.
func Schema() []byte { return slices.Clone(schemaJSON) }

const (
	defaultRewardIcon   = "🍦"
	defaultNoRewardIcon = "😅"
)

// LoadFile reads a JSON or YAML route document from path.
func LoadFile(path string) (*Definition, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ReadDocument reads path and returns its content as JSON. YAML files
// (.yaml, .yml) are converted.
func ReadDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLToJSON(data)
	}
	return data, nil
}

// ParseYAML parses a YAML route document.
func ParseYAML(data []byte) (*Definition, error) {
	doc, err := YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return Parse(doc)
}

// YAMLToJSON converts a YAML document to the equivalent JSON.
func YAMLToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, malformed("yaml: %v", err)
	}
	out, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, malformed("yaml: %v", err)
	}
	return out, nil
}

// stringKeys rewrites map[any]any nodes, which encoding/json refuses, into
// map[string]any. Numeric point ids such as 1: come out of YAML as ints.
func stringKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = stringKeys(e)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = stringKeys(e)
		}
		return m
	case []any:
		for i, e := range v {
			v[i] = stringKeys(e)
		}
		return v
	}
	return v
}

// Parse validates a JSON route document and builds its Definition.
func Parse(data []byte) (*Definition, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile route schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, malformed("json: %v", err)
	}
	if !res.Valid() {
		var p problems
		for _, e := range res.Errors() {
			p.add(e.Field(), "%s", e.Description())
		}
		return nil, p.err()
	}

	var doc wireDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("json: %v", err)
	}
	return doc.build()
}

// scalar accepts a JSON string or number. Codes and ids are often written
// as bare numbers in hand-edited documents.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = scalar(n.String())
	return nil
}

func scalars(in []scalar) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

type wireDocument struct {
	AppName string                `json:"appName"`
	Rules   wireRules             `json:"rules"`
	Seasons map[string]wireSeason `json:"seasons"`
}

type wireRules struct {
	MaxHintsForReward *int        `json:"maxHintsForReward"`
	Reward            wireContent `json:"reward"`
	NoReward          wireContent `json:"noReward"`
}

type wireContent struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Icon  string `json:"icon"`
}

type wireSeason struct {
	Label string    `json:"label"`
	Route wireRoute `json:"route"`
}

type wireRoute struct {
	Title  string               `json:"title"`
	Intro  wireIntro            `json:"intro"`
	Points map[string]wirePoint `json:"points"`
	Finish wireFinish           `json:"finish"`
}

type wireIntro struct {
	Text  string `json:"text"`
	Start scalar `json:"start"`
}

type wirePoint struct {
	QR     scalar     `json:"qr"`
	Task   wireTask   `json:"task"`
	Answer wireAnswer `json:"answer"`
	Hint   string     `json:"hint"`
	Next   scalar     `json:"next"`
	Nav    *wireNav   `json:"nav"`
}

type wireTask struct {
	Type        string   `json:"type"`
	Q           string   `json:"q"`
	Image       string   `json:"image"`
	Choices     []scalar `json:"choices"`
	MaxAttempts int      `json:"maxAttempts"`
	Pieces      int      `json:"pieces"`
	PuzzleQR    scalar   `json:"puzzleQr"`
	Tip         string   `json:"tip"`
	InputLabel  string   `json:"inputLabel"`
}

type wireAnswer struct {
	Type   string   `json:"type"`
	Value  scalar   `json:"value"`
	Accept []scalar `json:"accept"`
}

type wireNav struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

type wireFinish struct {
	Title       string          `json:"title"`
	Text        string          `json:"text"`
	Code        scalar          `json:"code"`
	RewardLogic wireRewardLogic `json:"rewardLogic"`
}

type wireRewardLogic struct {
	HintsUsedMax int    `json:"hintsUsedMax"`
	OnWinKey     string `json:"onWinKey"`
	OnLoseKey    string `json:"onLoseKey"`
}

func (w wireContent) content(defaultIcon string) Content {
	c := Content{Title: w.Title, Text: w.Text, Icon: w.Icon}
	if c.Icon == "" {
		c.Icon = defaultIcon
	}
	return c
}

func (d wireDocument) build() (*Definition, error) {
	var p problems

	rules := Rules{
		MaxHintsForReward: DefaultMaxHintsForReward,
		Reward:            d.Rules.Reward.content(defaultRewardIcon),
		NoReward:          d.Rules.NoReward.content(defaultNoRewardIcon),
	}
	if d.Rules.MaxHintsForReward != nil {
		rules.MaxHintsForReward = *d.Rules.MaxHintsForReward
	}

	def := &Definition{
		AppName: d.AppName,
		Rules:   rules,
		Seasons: make(map[string]*Season, len(d.Seasons)),
	}
	ids := make([]string, 0, len(d.Seasons))
	for id := range d.Seasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ws := d.Seasons[id]
		rt := ws.Route.build(id, rules, &p)
		def.Seasons[id] = &Season{ID: id, Label: ws.Label, Route: rt}
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	return def, nil
}

func (w wireRoute) build(season string, rules Rules, p *problems) *Route {
	at := "seasons." + season + ".route"

	rt := &Route{
		Season: season,
		Title:  w.Title,
		Intro:  Intro{Text: w.Intro.Text, Start: strings.TrimSpace(string(w.Intro.Start))},
		Finish: Finish{
			Title: w.Finish.Title,
			Text:  w.Finish.Text,
			Code:  strings.TrimSpace(string(w.Finish.Code)),
			Reward: RewardLogic{
				HintsUsedMax: w.Finish.RewardLogic.HintsUsedMax,
				OnWinKey:     w.Finish.RewardLogic.OnWinKey,
				OnLoseKey:    w.Finish.RewardLogic.OnLoseKey,
			},
		},
		Rules:       rules,
		checkpoints: make(map[string]*Checkpoint, len(w.Points)),
		byQR:        make(map[string]*Checkpoint, len(w.Points)),
	}
	if rt.Intro.Start == "" {
		rt.Intro.Start = DefaultStart
	}
	if rt.Finish.Code == "" {
		rt.Finish.Code = DefaultFinishCode
	}
	rt.finishCode = Fold(rt.Finish.Code)
	if rt.Finish.Reward.OnWinKey == "" {
		rt.Finish.Reward.OnWinKey = RewardKey
	}
	if rt.Finish.Reward.OnLoseKey == "" {
		rt.Finish.Reward.OnLoseKey = NoRewardKey
	}
	for _, key := range []string{rt.Finish.Reward.OnWinKey, rt.Finish.Reward.OnLoseKey} {
		if _, ok := rules.Content(key); !ok {
			p.add(at+".finish.rewardLogic", "unknown content key %q", key)
		}
	}
	if rules.MaxHintsForReward < 0 {
		p.add("rules.maxHintsForReward", "must not be negative")
	}

	ids := make([]string, 0, len(w.Points))
	for id := range w.Points {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cp := w.Points[id].build(id, at+".points."+id, p)
		if id == FinishID {
			p.add(at+".points."+id, "id %q is reserved", FinishID)
		}
		rt.checkpoints[id] = cp

		key := Fold(cp.QR)
		switch {
		case key == "":
			p.add(at+".points."+id+".qr", "must not be empty")
		case key == rt.finishCode:
			p.add(at+".points."+id+".qr", "collides with the finish code %q", rt.Finish.Code)
		default:
			if other, dup := rt.byQR[key]; dup {
				p.add(at+".points."+id+".qr", "duplicates the qr of checkpoint %s", other.ID)
				continue
			}
			rt.byQR[key] = cp
		}
	}

	for _, id := range ids {
		cp := rt.checkpoints[id]
		switch {
		case cp.Next == "":
			p.add(at+".points."+id+".next", "must not be empty")
		case cp.Next == id:
			p.add(at+".points."+id+".next", "points at itself")
		case cp.Next != FinishID:
			if _, ok := rt.checkpoints[cp.Next]; !ok {
				p.add(at+".points."+id+".next", "unknown checkpoint %q", cp.Next)
			}
		}
	}

	if _, ok := rt.checkpoints[rt.Intro.Start]; !ok {
		p.add(at+".intro.start", "unknown checkpoint %q", rt.Intro.Start)
		return rt
	}

	seen := make(map[string]bool, len(rt.checkpoints))
	for id := rt.Intro.Start; id != FinishID; {
		if seen[id] {
			p.add(at+".points."+id, "next pointers form a cycle")
			break
		}
		cp, ok := rt.checkpoints[id]
		if !ok {
			break
		}
		seen[id] = true
		rt.path = append(rt.path, id)
		id = cp.Next
	}
	return rt
}

func (w wirePoint) build(id, at string, p *problems) *Checkpoint {
	cp := &Checkpoint{
		ID:   id,
		QR:   strings.TrimSpace(string(w.QR)),
		Hint: w.Hint,
		Next: strings.TrimSpace(string(w.Next)),
	}
	if w.Nav != nil {
		cp.Nav = &Navigation{Text: w.Nav.Text, Image: w.Nav.Img}
	}

	prompt := Prompt{Question: w.Task.Q, Image: w.Task.Image}
	if w.Task.MaxAttempts < 0 {
		p.add(at+".task.maxAttempts", "must not be negative")
	}
	switch TaskKind(w.Task.Type) {
	case TaskText:
		cp.Task = TextTask{Prompt: prompt, InputLabel: w.Task.InputLabel, MaxAttempts: w.Task.MaxAttempts}
	case TaskSearchCode:
		cp.Task = SearchCodeTask{Prompt: prompt, InputLabel: w.Task.InputLabel, MaxAttempts: w.Task.MaxAttempts}
	case TaskChoice:
		choices := scalars(w.Task.Choices)
		if len(choices) == 0 {
			p.add(at+".task.choices", "multiple choice needs at least one choice")
		}
		cp.Task = ChoiceTask{Prompt: prompt, Choices: choices, MaxAttempts: w.Task.MaxAttempts}
	case TaskPuzzle:
		t := PuzzleTask{Prompt: prompt, Pieces: w.Task.Pieces, PuzzleQR: strings.TrimSpace(string(w.Task.PuzzleQR)), Tip: w.Task.Tip}
		if t.PuzzleQR == "" {
			p.add(at+".task.puzzleQr", "must not be empty")
		}
		cp.Task = t
	default:
		p.add(at+".task.type", "unknown task type %q", w.Task.Type)
		return cp
	}

	want, _ := answerKindFor(cp.Task.Kind())
	cp.Answer = Answer{
		Kind:   AnswerKind(w.Answer.Type),
		Value:  strings.TrimSpace(string(w.Answer.Value)),
		Accept: scalars(w.Answer.Accept),
	}
	// Choices are compared verbatim, so the value must match a choice as written.
	if _, ok := cp.Task.(ChoiceTask); ok {
		cp.Answer.Value = string(w.Answer.Value)
	}
	if cp.Answer.Kind == "" {
		cp.Answer.Kind = want
	}
	if cp.Answer.Kind != want {
		p.add(at+".answer.type", "%q does not fit task type %q, want %q", cp.Answer.Kind, cp.Task.Kind(), want)
		return cp
	}

	switch t := cp.Task.(type) {
	case TextTask, SearchCodeTask:
		if cp.Answer.Value == "" && len(cp.Answer.Accept) == 0 {
			p.add(at+".answer", "needs a value or accept list")
		}
		for i, a := range cp.Answer.Accept {
			if strings.TrimSpace(a) == "" {
				p.add(at+".answer.accept."+strconv.Itoa(i), "must not be empty")
			}
		}
	case ChoiceTask:
		if cp.Answer.Accept != nil {
			p.add(at+".answer.accept", "only text and code answers take an accept list")
		}
		if strings.TrimSpace(cp.Answer.Value) == "" {
			p.add(at+".answer.value", "must not be empty")
		} else if len(t.Choices) > 0 && !slices.Contains(t.Choices, cp.Answer.Value) {
			p.add(at+".answer.value", "%q is not one of the choices", cp.Answer.Value)
		}
	case PuzzleTask:
		if cp.Answer.Accept != nil {
			p.add(at+".answer.accept", "only text and code answers take an accept list")
		}
		if cp.Answer.Value == "" {
			cp.Answer.Value = t.PuzzleQR
		} else if !EqualFold(cp.Answer.Value, t.PuzzleQR) {
			p.add(at+".answer.value", "%q differs from puzzleQr %q", cp.Answer.Value, t.PuzzleQR)
		}
	}
	return cp
}
