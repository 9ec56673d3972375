package route

// TaskKind tags the Task variants.
type TaskKind string

const (
	TaskText       TaskKind = "text"
	TaskChoice     TaskKind = "mc"
	TaskSearchCode TaskKind = "searchCode"
	TaskPuzzle     TaskKind = "qrPuzzle"
)

// Prompt is the part every task shows.
type Prompt struct {
	Question string
	Image    string
}

func (p Prompt) Describe() Prompt { return p }

// Task is the challenge of a checkpoint. The set of implementations is closed:
// TextTask, ChoiceTask, SearchCodeTask and PuzzleTask.
type Task interface {
	Kind() TaskKind
	Describe() Prompt
	isTask()
}

// TextTask asks for free text.
type TextTask struct {
	Prompt
	InputLabel  string
	MaxAttempts int
}

// ChoiceTask asks to pick one of Choices.
type ChoiceTask struct {
	Prompt
	Choices     []string
	MaxAttempts int
}

// SearchCodeTask asks for a code found on location.
type SearchCodeTask struct {
	Prompt
	InputLabel  string
	MaxAttempts int
}

// PuzzleTask is completed by assembling Pieces into a QR code and scanning it.
type PuzzleTask struct {
	Prompt
	Pieces   int
	PuzzleQR string
	Tip      string
}

func (TextTask) Kind() TaskKind       { return TaskText }
func (ChoiceTask) Kind() TaskKind     { return TaskChoice }
func (SearchCodeTask) Kind() TaskKind { return TaskSearchCode }
func (PuzzleTask) Kind() TaskKind     { return TaskPuzzle }

func (TextTask) isTask()       {}
func (ChoiceTask) isTask()     {}
func (SearchCodeTask) isTask() {}
func (PuzzleTask) isTask()     {}

// AttemptLimit returns the number of wrong typed answers after which the
// task locks; 0 means unbounded.
func AttemptLimit(t Task) int {
	switch t := t.(type) {
	case TextTask:
		return t.MaxAttempts
	case ChoiceTask:
		return t.MaxAttempts
	case SearchCodeTask:
		return t.MaxAttempts
	case PuzzleTask:
		return 0
	}
	return 0
}

// AnswerKind tags the expected answer of a checkpoint.
type AnswerKind string

const (
	AnswerText   AnswerKind = "text"
	AnswerCode   AnswerKind = "code"
	AnswerChoice AnswerKind = "choice"
	AnswerQRScan AnswerKind = "qrScan"
)

// Answer holds either a single expected Value or a set of Accept values.
// Accept, when non-nil, takes precedence.
type Answer struct {
	Kind   AnswerKind
	Value  string
	Accept []string
}

// answerKindFor returns the only answer kind a task kind pairs with.
func answerKindFor(k TaskKind) (AnswerKind, bool) {
	switch k {
	case TaskText:
		return AnswerText, true
	case TaskChoice:
		return AnswerChoice, true
	case TaskSearchCode:
		return AnswerCode, true
	case TaskPuzzle:
		return AnswerQRScan, true
	}
	return "", false
}
