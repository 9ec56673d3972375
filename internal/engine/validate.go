package engine

import "github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"

// Validate reports whether input answers task. It has no side effects and
// treats empty or missing input as wrong.
func Validate(task route.Task, answer route.Answer, input string) bool {
	switch task.(type) {
	case route.ChoiceTask:
		// Choices are shown verbatim, so the comparison is exact.
		return input != "" && input == answer.Value
	case route.TextTask, route.SearchCodeTask:
		if route.Fold(input) == "" {
			return false
		}
		if answer.Accept != nil {
			for _, a := range answer.Accept {
				if route.EqualFold(a, input) {
					return true
				}
			}
			return false
		}
		return route.EqualFold(answer.Value, input)
	case route.PuzzleTask:
		return false
	}
	return false
}

// SolvesPuzzle reports whether a scanned code is the puzzle QR of task.
func SolvesPuzzle(task route.PuzzleTask, code string) bool {
	return route.Fold(code) != "" && route.EqualFold(code, task.PuzzleQR)
}
