package codesheet

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

func sampleRoute(t *testing.T) *route.Route {
	t.Helper()
	def, err := route.LoadFile("../route/testdata/route.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rt, err := def.Active("zomer")
	if err != nil {
		t.Fatalf("season: %v", err)
	}
	return rt
}

func TestCodes(t *testing.T) {
	codes := Codes(sampleRoute(t))

	want := []struct {
		kind  Kind
		value string
	}{
		{KindCheckpoint, "SB-ENTREE"},
		{KindCheckpoint, "SB-EIK"},
		{KindCheckpoint, "SB-SPEELTUIN"},
		{KindPuzzle, "SB-PUZZEL"},
		{KindCheckpoint, "SB-VIJVER"},
		{KindFinish, "FINISH"},
	}
	if len(codes) != len(want) {
		t.Fatalf("expected %d codes, got %d: %+v", len(want), len(codes), codes)
	}
	for i, w := range want {
		if codes[i].Kind != w.kind || codes[i].Value != w.value {
			t.Errorf("code %d: expected %s %s, got %s %s", i, w.kind, w.value, codes[i].Kind, codes[i].Value)
		}
	}
	if codes[3].CheckpointID != "3" {
		t.Errorf("expected puzzle code to belong to checkpoint 3, got %q", codes[3].CheckpointID)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRoute(t)); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Codes")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected header and 6 rows, got %d", len(rows))
	}
	if rows[0][3] != "Code" || rows[4][3] != "SB-PUZZEL" || rows[6][1] != "finish" {
		t.Errorf("unexpected sheet content %v", rows)
	}
}
