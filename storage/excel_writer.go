package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// recordHeader is the column layout shared by all category sheets.
var recordHeader = []interface{}{
	"title", "price", "relative_date", "date_published", "description",
	"image_url", "link", "mobile_number", "views_number",
}

var officeInfoHeader = []interface{}{
	"Name", "URL", "Description", "Telephone", "Email", "Image", "Instagram", "Website",
}

var officeListingHeader = []interface{}{
	"Name", "URL", "Description", "Image URL", "Price",
	"Address Region", "Address Locality", "Views", "Date Published", "Relative Date",
}

// ExcelWriter renders harvest output as workbooks: one per category with a
// sheet per subcategory, and one per office with an info sheet and a main
// sheet.
type ExcelWriter struct {
	outputDir string
	logger    *utils.Logger
}

// NewExcelWriter prepares the output directory.
func NewExcelWriter(outputDir string, logger *utils.Logger) (*ExcelWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("excel: create output dir: %w", err)
	}
	return &ExcelWriter{outputDir: outputDir, logger: logger}, nil
}

// WriteCategory writes one workbook for category with one sheet per
// subcategory, in tree order. Subcategories without records still get a
// header-only sheet. When every subcategory is empty no file is written and
// the returned path is empty.
func (w *ExcelWriter) WriteCategory(category string, subcats []SubcategoryRecords) (string, error) {
	empty := true
	for _, sub := range subcats {
		if len(sub.Records) > 0 {
			empty = false
			break
		}
	}
	if empty {
		w.logger.Warn("[excel] No records in any subcategory of %s, skipping workbook", category)
		return "", nil
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, sub := range subcats {
		sheet := SheetName(sub.Subcategory)
		if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("excel: sheet %q: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, "A1", &recordHeader); err != nil {
			return "", fmt.Errorf("excel: header for %q: %w", sheet, err)
		}

		for i, r := range sub.Records {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return "", fmt.Errorf("excel: cell name: %w", err)
			}
			row := []interface{}{
				deref(r.Title), deref(r.Price), deref(r.RelativeAge), deref(r.DatePublished),
				deref(r.Description), deref(r.ImageURL), deref(r.Permalink),
				deref(r.Contact), deref(r.ViewCount),
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", fmt.Errorf("excel: row %d in %q: %w", i+2, sheet, err)
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("excel: drop default sheet: %w", err)
	}

	path := filepath.Join(w.outputDir, safeFilename(category)+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("excel: save %q: %w", path, err)
	}
	w.logger.Info("[excel] Wrote %s (%d sheets)", path, len(subcats))
	return path, nil
}

// WriteOffice writes one workbook for office: an info sheet with the agency
// profile and a main sheet with its recent listings.
func (w *ExcelWriter) WriteOffice(office *models.Office) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet("info"); err != nil {
		return "", fmt.Errorf("excel: info sheet: %w", err)
	}
	if err := f.SetSheetRow("info", "A1", &officeInfoHeader); err != nil {
		return "", fmt.Errorf("excel: info header: %w", err)
	}
	profile := []interface{}{
		office.Name, office.URL, office.Description, office.Telephone,
		office.Email, office.Image, office.Instagram, office.Website,
	}
	if err := f.SetSheetRow("info", "A2", &profile); err != nil {
		return "", fmt.Errorf("excel: info row: %w", err)
	}

	if _, err := f.NewSheet("main"); err != nil {
		return "", fmt.Errorf("excel: main sheet: %w", err)
	}
	if err := f.SetSheetRow("main", "A1", &officeListingHeader); err != nil {
		return "", fmt.Errorf("excel: main header: %w", err)
	}
	now := time.Now()
	for i, l := range office.Listings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("excel: cell name: %w", err)
		}
		views := ""
		if l.Views != nil {
			views = fmt.Sprintf("%d", *l.Views)
		}
		row := []interface{}{
			l.Name, l.URL, l.Description, l.ImageURL, l.Price,
			l.AddressRegion, l.AddressLocality, views,
			shortDate(l.DatePublished), relativeFromISO(l.DatePublished, now),
		}
		if err := f.SetSheetRow("main", cell, &row); err != nil {
			return "", fmt.Errorf("excel: main row %d: %w", i+2, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("excel: drop default sheet: %w", err)
	}

	path := filepath.Join(w.outputDir, safeFilename(office.Name)+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("excel: save %q: %w", path, err)
	}
	w.logger.Info("[excel] Wrote %s (%d listings)", path, len(office.Listings))
	return path, nil
}

// SheetName truncates a name to Excel's 31-character sheet limit. Names are
// Arabic, so the cut is by rune.
func SheetName(name string) string {
	runes := []rune(name)
	if len(runes) > 31 {
		return string(runes[:31])
	}
	return name
}

// safeFilename replaces characters that cannot appear in file names and caps
// the length.
func safeFilename(name string) string {
	const invalid = `<>:"/\|?*`
	out := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	out = strings.TrimSpace(out)
	runes := []rune(out)
	if len(runes) > 100 {
		out = string(runes[:100])
	}
	if out == "" {
		out = "workbook"
	}
	return out
}

// shortDate renders an ISO timestamp as DD-MM-YYYY, echoing the input when
// it does not parse.
func shortDate(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("02-01-2006")
}

// relativeFromISO renders an ISO timestamp as coarse relative-age text, the
// same vocabulary the feed uses for card ages.
func relativeFromISO(iso string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return ""
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}
	days := int(diff.Hours() / 24)
	switch {
	case days == 0:
		hours := int(diff.Hours())
		if hours == 0 {
			return plural(int(diff.Minutes()), "minute") + " ago"
		}
		return plural(hours, "hour") + " ago"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week") + " ago"
	case days < 365:
		return plural(days/30, "month") + " ago"
	default:
		return plural(days/365, "year") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
