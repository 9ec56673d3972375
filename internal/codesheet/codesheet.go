// Package codesheet lists every code a route needs printed: the checkpoint
// QRs in visiting order, the puzzle QRs and the finish code.
package codesheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

type Kind string

const (
	KindCheckpoint Kind = "checkpoint"
	KindPuzzle     Kind = "puzzle"
	KindFinish     Kind = "finish"
)

// Code is one printable QR payload.
type Code struct {
	Kind         Kind   `json:"kind"`
	Value        string `json:"value"`
	CheckpointID string `json:"checkpointId,omitempty"`
	Label        string `json:"label"`
}

// Codes returns the codes of rt. A puzzle code follows its checkpoint.
func Codes(rt *route.Route) []Code {
	var codes []Code
	for _, cp := range rt.Checkpoints() {
		codes = append(codes, Code{
			Kind:         KindCheckpoint,
			Value:        cp.QR,
			CheckpointID: cp.ID,
			Label:        label(cp),
		})
		if t, ok := cp.Task.(route.PuzzleTask); ok {
			codes = append(codes, Code{
				Kind:         KindPuzzle,
				Value:        t.PuzzleQR,
				CheckpointID: cp.ID,
				Label:        fmt.Sprintf("Puzzle %s (%d pieces)", cp.ID, t.Pieces),
			})
		}
	}
	return append(codes, Code{Kind: KindFinish, Value: rt.Finish.Code, Label: "Finish"})
}

func label(cp *route.Checkpoint) string {
	if q := cp.Task.Describe().Question; q != "" {
		return fmt.Sprintf("Checkpoint %s: %s", cp.ID, q)
	}
	return "Checkpoint " + cp.ID
}

const sheet = "Codes"

// Write renders the codes of rt as an xlsx workbook.
func Write(w io.Writer, rt *route.Route) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := []string{"#", "Kind", "Checkpoint", "Code", "Label"}
	rows := [][]any{}
	for i, c := range Codes(rt) {
		rows = append(rows, []any{i + 1, string(c.Kind), c.CheckpointID, c.Value, c.Label})
	}

	for col, h := range header {
		if err := setCell(f, col+1, 1, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for col, v := range row {
			if err := setCell(f, col+1, r+2, v); err != nil {
				return err
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(sheet, "C", "D", 18); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "E", "E", 60); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("setting %s: %w", cell, err)
	}
	return nil
}
