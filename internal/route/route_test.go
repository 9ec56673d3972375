package route

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func loadSample(t *testing.T) *Route {
	t.Helper()
	def, err := LoadFile("testdata/route.json")
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	rt, err := def.Active("")
	if err != nil {
		t.Fatalf("active season: %v", err)
	}
	return rt
}

func TestLoadSample(t *testing.T) {
	rt := loadSample(t)

	if rt.Season != "zomer" {
		t.Errorf("expected season zomer, got %q", rt.Season)
	}
	if rt.Len() != 4 {
		t.Fatalf("expected 4 checkpoints, got %d", rt.Len())
	}
	if rt.Intro.Start != "1" {
		t.Errorf("expected numeric start to load as \"1\", got %q", rt.Intro.Start)
	}
	if got := rt.Path(); !slices.Equal(got, []string{"1", "2", "3", "4"}) {
		t.Errorf("unexpected path %v", got)
	}
	if len(rt.Unreachable()) != 0 {
		t.Errorf("expected no unreachable checkpoints, got %v", rt.Unreachable())
	}
	if rt.Finish.Code != DefaultFinishCode {
		t.Errorf("expected default finish code, got %q", rt.Finish.Code)
	}
	if rt.Threshold() != 3 {
		t.Errorf("expected threshold 3, got %d", rt.Threshold())
	}
	if rt.Rules.Reward.Icon != defaultRewardIcon || rt.Rules.NoReward.Icon != defaultNoRewardIcon {
		t.Errorf("expected default icons, got %q and %q", rt.Rules.Reward.Icon, rt.Rules.NoReward.Icon)
	}

	cp, ok := rt.CheckpointByID("2")
	if !ok {
		t.Fatal("checkpoint 2 not found")
	}
	task, ok := cp.Task.(ChoiceTask)
	if !ok {
		t.Fatalf("expected ChoiceTask, got %T", cp.Task)
	}
	if len(task.Choices) != 3 || AttemptLimit(task) != 2 {
		t.Errorf("unexpected choice task %+v", task)
	}

	puzzle, _ := rt.CheckpointByID("3")
	if puzzle.Task.Kind() != TaskPuzzle || puzzle.Answer.Kind != AnswerQRScan {
		t.Errorf("expected puzzle checkpoint, got %s/%s", puzzle.Task.Kind(), puzzle.Answer.Kind)
	}

	last, _ := rt.CheckpointByID("4")
	if !last.IsLast() || last.Hint != "" {
		t.Errorf("expected hint-less last checkpoint, got %+v", last)
	}
}

func TestCheckpointByQRFoldsCase(t *testing.T) {
	rt := loadSample(t)

	tests := []struct {
		code string
		want string
	}{
		{"SB-EIK", "2"},
		{"sb-eik", "2"},
		{"  Sb-Eik\n", "2"},
		{"SB-EIK2", ""},
		{"EIK", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			cp, ok := rt.CheckpointByQR(tt.code)
			if tt.want == "" {
				if ok {
					t.Fatalf("expected no match, got %s", cp.ID)
				}
				return
			}
			if !ok || cp.ID != tt.want {
				t.Fatalf("expected checkpoint %s, got %v", tt.want, cp)
			}
		})
	}
}

func TestIsFinishCodeIsExact(t *testing.T) {
	rt := loadSample(t)

	for _, code := range []string{"FINISH", "finish", " Finish "} {
		if !rt.IsFinishCode(code) {
			t.Errorf("expected %q to be the finish code", code)
		}
	}
	for _, code := range []string{"FINISH-1", "EINDE", "SB-FINISH", ""} {
		if rt.IsFinishCode(code) {
			t.Errorf("expected %q not to be the finish code", code)
		}
	}
}

func TestParseYAMLSeasons(t *testing.T) {
	data, err := ReadDocument("testdata/seasons.yaml")
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	def, err := Parse(data)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}

	if got := def.SeasonIDs(); !slices.Equal(got, []string{"winter", "zomer"}) {
		t.Fatalf("unexpected seasons %v", got)
	}
	if _, err := def.Active(""); err == nil {
		t.Fatal("expected error selecting among two seasons without a name")
	}
	if _, err := def.Active("lente"); err == nil {
		t.Fatal("expected error for unknown season")
	}

	zomer, err := def.Active("zomer")
	if err != nil {
		t.Fatalf("active zomer: %v", err)
	}
	if zomer.Intro.Start != "a" || zomer.Threshold() != 2 {
		t.Errorf("unexpected zomer route: start %q threshold %d", zomer.Intro.Start, zomer.Threshold())
	}
	if !zomer.IsFinishCode("einde") {
		t.Error("expected custom finish code EINDE")
	}
	a, _ := zomer.CheckpointByID("a")
	if a.Answer.Kind != AnswerText || a.Answer.Value != "4" {
		t.Errorf("expected inferred text answer \"4\", got %+v", a.Answer)
	}

	winter, _ := def.Active("winter")
	if winter.Intro.Start != DefaultStart {
		t.Errorf("expected default start, got %q", winter.Intro.Start)
	}
	if _, ok := winter.CheckpointByID("1"); !ok {
		t.Error("expected integer yaml key to load as checkpoint \"1\"")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	const head = `{"seasons":{"s":{"route":{"points":{`
	const tail = `}}}}}`

	tests := []struct {
		name   string
		points string
		want   string
	}{
		{
			name:   "unknown next",
			points: `"1":{"qr":"A","task":{"type":"text"},"answer":{"value":"x"},"next":"9"}`,
			want:   `unknown checkpoint "9"`,
		},
		{
			name:   "self next",
			points: `"1":{"qr":"A","task":{"type":"text"},"answer":{"value":"x"},"next":"1"}`,
			want:   "points at itself",
		},
		{
			name: "duplicate qr",
			points: `"1":{"qr":"A","task":{"type":"text"},"answer":{"value":"x"},"next":"2"},
			         "2":{"qr":"a","task":{"type":"text"},"answer":{"value":"x"},"next":"finish"}`,
			want: "duplicates the qr",
		},
		{
			name:   "qr equals finish code",
			points: `"1":{"qr":"finish","task":{"type":"text"},"answer":{"value":"x"},"next":"finish"}`,
			want:   "collides with the finish code",
		},
		{
			name:   "unknown task type",
			points: `"1":{"qr":"A","task":{"type":"photo"},"answer":{"value":"x"},"next":"finish"}`,
			want:   "type",
		},
		{
			name:   "answer type mismatch",
			points: `"1":{"qr":"A","task":{"type":"mc","choices":["x"]},"answer":{"type":"text","value":"x"},"next":"finish"}`,
			want:   "does not fit task type",
		},
		{
			name:   "choice not offered",
			points: `"1":{"qr":"A","task":{"type":"mc","choices":["x","y"]},"answer":{"value":"z"},"next":"finish"}`,
			want:   "is not one of the choices",
		},
		{
			name:   "puzzle answer differs",
			points: `"1":{"qr":"A","task":{"type":"qrPuzzle","puzzleQr":"P"},"answer":{"value":"Q"},"next":"finish"}`,
			want:   "differs from puzzleQr",
		},
		{
			name:   "missing text answer",
			points: `"1":{"qr":"A","task":{"type":"text"},"next":"finish"}`,
			want:   "needs a value or accept list",
		},
		{
			name: "cycle",
			points: `"1":{"qr":"A","task":{"type":"text"},"answer":{"value":"x"},"next":"2"},
			         "2":{"qr":"B","task":{"type":"text"},"answer":{"value":"x"},"next":"1"}`,
			want: "cycle",
		},
		{
			name:   "missing start",
			points: `"2":{"qr":"A","task":{"type":"text"},"answer":{"value":"x"},"next":"finish"}`,
			want:   "intro.start",
		},
		{
			name:   "negative max attempts",
			points: `"1":{"qr":"A","task":{"type":"text","maxAttempts":-1},"answer":{"value":"x"},"next":"finish"}`,
			want:   "maxAttempts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(head + tt.points + tail))
			var me *MalformedRouteError
			if !errors.As(err, &me) {
				t.Fatalf("expected MalformedRouteError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{``, `not json`, `[]`, `{"seasons":{}}`} {
		_, err := Parse([]byte(raw))
		var me *MalformedRouteError
		if !errors.As(err, &me) {
			t.Errorf("%q: expected MalformedRouteError, got %v", raw, err)
		}
	}
}

func TestUnreachableCheckpointsAreAllowed(t *testing.T) {
	def, err := Parse([]byte(`{"seasons":{"s":{"route":{"points":{
		"1":{"qr":"A","task":{"type":"text"},"answer":{"value":"x"},"next":"finish"},
		"x":{"qr":"B","task":{"type":"text"},"answer":{"value":"x"},"next":"finish"}
	}}}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rt, _ := def.Active("s")
	if got := rt.Unreachable(); !slices.Equal(got, []string{"x"}) {
		t.Fatalf("expected [x] unreachable, got %v", got)
	}
	if got := len(rt.Checkpoints()); got != 2 {
		t.Fatalf("expected 2 checkpoints listed, got %d", got)
	}
}

func TestChoiceValueKeepsSpacing(t *testing.T) {
	def, err := Parse([]byte(`{"seasons":{"s":{"route":{"points":{
		"1":{"qr":"A","task":{"type":"mc","choices":["A ","B"]},"answer":{"value":"A "},"next":"finish"}
	}}}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rt, _ := def.Active("")
	cp, _ := rt.CheckpointByID("1")
	if cp.Answer.Value != "A " {
		t.Fatalf("answer value = %q, want %q", cp.Answer.Value, "A ")
	}

	_, err = Parse([]byte(`{"seasons":{"s":{"route":{"points":{
		"1":{"qr":"A","task":{"type":"mc","choices":["A ","B"]},"answer":{"value":"A"},"next":"finish"}
	}}}}}`))
	var malformed *MalformedRouteError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRouteError for a value that is not a choice, got %v", err)
	}
}

func TestFold(t *testing.T) {
	if !EqualFold("  Straße ", "STRASSE") {
		t.Error("expected full Unicode folding of ß")
	}
	if EqualFold("abc", "abd") {
		t.Error("expected different strings to differ")
	}
}
