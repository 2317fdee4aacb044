package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/canteen-works/mensa/internal/grid"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"menu.xlsx", true},
		{"menu.XLSX", true},
		{"menu.xlsm", true},
		{"menu.xls", true},
		{"menu.csv", true},
		{"menu.pdf", false},
		{"menu.txt", false},
		{"menu", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDecode_unsupportedFormat(t *testing.T) {
	_, err := Decode("menu.pdf")
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("Decode() error = %v, want UnsupportedFormatError", err)
	}
	if ufe.Ext != ".pdf" {
		t.Errorf("Ext = %q, want .pdf", ufe.Ext)
	}
}

func TestDecodeBytes_csv(t *testing.T) {
	data := []byte("日期,菜名,价格\n12月8日,红烧肉,12\n12月8日,清蒸鱼,15.5\n")

	g, err := DecodeBytes(data, "menu.csv")
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	if g.Rows() != 3 || g.Cols() != 3 {
		t.Fatalf("grid = %dx%d, want 3x3", g.Rows(), g.Cols())
	}
	if got := g.Cell(1, 1).Text; got != "红烧肉" {
		t.Errorf("Cell(1,1) = %q, want 红烧肉", got)
	}
	if c := g.Cell(1, 2); c.Kind != grid.Number || c.Number != 12 {
		t.Errorf("Cell(1,2) = %+v, want number 12", c)
	}
	if c := g.Cell(2, 2); c.Kind != grid.Number || c.Number != 15.5 {
		t.Errorf("Cell(2,2) = %+v, want number 15.5", c)
	}
}

func TestDecodeBytes_csvWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("日期,菜名\n12月8日,红烧肉\n")...)

	g, err := DecodeBytes(data, "menu.csv")
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	if got := g.Cell(0, 0).Text; got != "日期" {
		t.Errorf("Cell(0,0) = %q, want 日期 (BOM stripped)", got)
	}
}

func TestDecodeBytes_csvRaggedRows(t *testing.T) {
	data := []byte("日期,菜名,价格\n12月8日,红烧肉\n")

	g, err := DecodeBytes(data, "menu.csv")
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	if g.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", g.Rows())
	}
	if !g.Cell(1, 2).IsBlank() {
		t.Errorf("Cell(1,2) = %+v, want blank for short row", g.Cell(1, 2))
	}
}

func TestDecode_csvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.csv")
	if err := os.WriteFile(path, []byte("日期,菜名\n12月9日,清蒸鱼\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := g.Cell(1, 1).Text; got != "清蒸鱼" {
		t.Errorf("Cell(1,1) = %q, want 清蒸鱼", got)
	}
}

func TestToCell(t *testing.T) {
	tests := []struct {
		in   string
		kind grid.Kind
	}{
		{"", grid.Blank},
		{"   ", grid.Blank},
		{"红烧肉", grid.Text},
		{"12", grid.Number},
		{"15.5", grid.Number},
		{"12月8日", grid.Text},
		{"07:30", grid.Text},
	}
	for _, tt := range tests {
		if got := toCell(tt.in); got.Kind != tt.kind {
			t.Errorf("toCell(%q).Kind = %v, want %v", tt.in, got.Kind, tt.kind)
		}
	}
}
