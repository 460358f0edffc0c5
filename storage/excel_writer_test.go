package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

func testLogger() *utils.Logger { return utils.NewLogger(false) }

func strp(s string) *string { return &s }

func TestWriteCategoryWorkbook(t *testing.T) {
	w, err := NewExcelWriter(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	subcats := []SubcategoryRecords{
		{Subcategory: "شقة", Records: []*models.Record{
			{
				Title:       strp("شقة في السالمية"),
				Price:       strp("450"),
				RelativeAge: strp("3 ساعة"),
				Permalink:   strp("https://www.boshamlan.com/شقة/301"),
				Contact:     strp("+96550000000"),
				ViewCount:   strp("120"),
			},
			{Title: strp("شقة في حولي")},
		}},
		{Subcategory: "بيت"},
	}

	path, err := w.WriteCategory("للايجار", subcats)
	if err != nil {
		t.Fatalf("WriteCategory returned error: %v", err)
	}
	if filepath.Base(path) != "للايجار.xlsx" {
		t.Errorf("workbook path = %q", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "شقة" || sheets[1] != "بيت" {
		t.Fatalf("sheets = %v; want [شقة بيت]", sheets)
	}

	rows, err := f.GetRows("شقة")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want header plus 2 records", len(rows))
	}
	if rows[0][0] != "title" || rows[0][6] != "link" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "شقة في السالمية" || rows[1][1] != "450" {
		t.Errorf("first record row = %v", rows[1])
	}
	if rows[2][0] != "شقة في حولي" {
		t.Errorf("second record row = %v", rows[2])
	}

	// The empty subcategory still gets its header-only sheet.
	rows, err = f.GetRows("بيت")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("empty subcategory has %d rows; want the header only", len(rows))
	}
}

func TestWriteCategorySkipsEmpty(t *testing.T) {
	dir := t.TempDir()
	w, err := NewExcelWriter(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	path, err := w.WriteCategory("للبدل", []SubcategoryRecords{
		{Subcategory: "بيوت للبدل"},
		{Subcategory: "أراضي للبدل"},
	})
	if err != nil {
		t.Fatalf("WriteCategory returned error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no workbook for an all-empty category, got %q", path)
	}
}

func TestWriteOfficeWorkbook(t *testing.T) {
	w, err := NewExcelWriter(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	views := 54
	office := &models.Office{
		Name:      "مكتب النخبة العقاري",
		URL:       "https://www.boshamlan.com/مكتب/11",
		Telephone: "+96550001111",
		AdsCount:  34,
		Listings: []*models.OfficeListing{
			{
				Name:            "شقة للايجار في السالمية",
				URL:             "https://www.boshamlan.com/شقة/301",
				Price:           "450",
				AddressRegion:   "حولي",
				AddressLocality: "السالمية",
				DatePublished:   "2025-03-15T09:30:00Z",
				Views:           &views,
			},
		},
	}

	path, err := w.WriteOffice(office)
	if err != nil {
		t.Fatalf("WriteOffice returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "info" || sheets[1] != "main" {
		t.Fatalf("sheets = %v; want [info main]", sheets)
	}

	info, err := f.GetRows("info")
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 2 || info[1][0] != "مكتب النخبة العقاري" || info[1][3] != "+96550001111" {
		t.Errorf("info rows = %v", info)
	}

	main, err := f.GetRows("main")
	if err != nil {
		t.Fatal(err)
	}
	if len(main) != 2 {
		t.Fatalf("got %d main rows; want header plus 1 listing", len(main))
	}
	if main[1][0] != "شقة للايجار في السالمية" || main[1][7] != "54" {
		t.Errorf("listing row = %v", main[1])
	}
	if main[1][8] != "15-03-2025" {
		t.Errorf("date column = %q; want 15-03-2025", main[1][8])
	}
}

func TestSheetName(t *testing.T) {
	long := "مكتب العقارات والاستشارات الخليجية المتحدة الدولية"
	got := SheetName(long)
	if len([]rune(got)) != 31 {
		t.Errorf("truncated to %d runes; want 31", len([]rune(got)))
	}
	if SheetName("شقة") != "شقة" {
		t.Errorf("short names must pass through")
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"بيت/شقة:كبير", "بيت_شقة_كبير"},
		{`a<b>c|d?e*f`, "a_b_c_d_e_f"},
		{"  للايجار  ", "للايجار"},
		{"", "workbook"},
		{"///", "___"},
	}

	for _, tt := range tests {
		if got := safeFilename(tt.in); got != tt.want {
			t.Errorf("safeFilename(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortDate(t *testing.T) {
	if got := shortDate("2025-03-15T09:30:00Z"); got != "15-03-2025" {
		t.Errorf("shortDate = %q; want 15-03-2025", got)
	}
	if got := shortDate("not a date"); got != "not a date" {
		t.Errorf("unparseable input should echo, got %q", got)
	}
}

func TestRelativeFromISO(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		iso  string
		want string
	}{
		{"2025-03-15T11:30:00Z", "30 minutes ago"},
		{"2025-03-15T11:00:00Z", "1 hour ago"},
		{"2025-03-15T09:00:00Z", "3 hours ago"},
		{"2025-03-14T10:00:00Z", "yesterday"},
		{"2025-03-12T12:00:00Z", "3 days ago"},
		{"2025-03-01T12:00:00Z", "2 weeks ago"},
		{"2025-01-15T12:00:00Z", "1 month ago"},
		{"2023-03-15T12:00:00Z", "2 years ago"},
		{"garbage", ""},
	}

	for _, tt := range tests {
		if got := relativeFromISO(tt.iso, now); got != tt.want {
			t.Errorf("relativeFromISO(%q) = %q; want %q", tt.iso, got, tt.want)
		}
	}
}
