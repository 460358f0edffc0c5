package services

import (
	"fmt"
	"sort"
	"strings"

	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the run report over the cleaned records, grouped by
// category name.
func (s *InsightService) Generate(byCategory map[string][]*models.Record) *models.InsightReport {
	report := &models.InsightReport{
		RecordsByCategory: make(map[string]int),
	}

	var all []*models.Record
	for cat, records := range byCategory {
		report.RecordsByCategory[cat] = len(records)
		all = append(all, records...)
	}
	if len(all) == 0 {
		return report
	}
	report.TotalRecords = len(all)

	var priced []*models.Record
	var viewed []*models.Record

	for _, r := range all {
		if r.Permalink != nil {
			report.WithPermalink++
		}
		if r.Contact != nil {
			report.WithContact++
		}
		if PriceValue(r) > 0 {
			priced = append(priced, r)
		}
		if ViewsValue(r) >= 0 {
			viewed = append(viewed, r)
		}
	}

	// Price stats (only records with a parseable price)
	if len(priced) > 0 {
		report.MinPrice = PriceValue(priced[0])
		report.MaxPrice = PriceValue(priced[0])
		var total float64
		for _, r := range priced {
			p := PriceValue(r)
			total += p
			if p < report.MinPrice {
				report.MinPrice = p
			}
			if p > report.MaxPrice {
				report.MaxPrice = p
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	// Top 5 by view count
	sort.Slice(viewed, func(i, j int) bool {
		return ViewsValue(viewed[i]) > ViewsValue(viewed[j])
	})
	if len(viewed) > 5 {
		report.TopViewed = viewed[:5]
	} else {
		report.TopViewed = viewed
	}
	if len(viewed) > 0 {
		report.MostViewed = viewed[0]
	}

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 HARVEST INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Fresh records harvested : \033[1m%d\033[0m\n", r.TotalRecords)
	fmt.Printf("  With permalink          : \033[1m%d\033[0m\n", r.WithPermalink)
	fmt.Printf("  With contact number     : \033[1m%d\033[0m\n", r.WithContact)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics (KWD)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Most viewed listing
	if r.MostViewed != nil {
		fmt.Printf("\033[1;33m  Most Viewed Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(stringOrDash(r.MostViewed.Title), 50))
		fmt.Printf("  Views : \033[1;31m%d\033[0m\n", ViewsValue(r.MostViewed))
		fmt.Println()
	}

	// Top 5 by views
	fmt.Printf("\033[1;33m  Top 5 Most Viewed\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopViewed) == 0 {
		fmt.Printf("  No view data found\n")
	} else {
		for i, rec := range r.TopViewed {
			title := truncate(stringOrDash(rec.Title), 38)
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%d views\033[0m\n",
				i+1, title, ViewsValue(rec))
		}
	}
	fmt.Println()

	// Records by category
	fmt.Printf("\033[1;33m  Records by Category\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.RecordsByCategory) == 0 {
		fmt.Printf("  No category data\n")
	} else {
		type catCount struct {
			cat   string
			count int
		}
		var cats []catCount
		for cat, cnt := range r.RecordsByCategory {
			if cat != "" {
				cats = append(cats, catCount{cat, cnt})
			}
		}
		sort.Slice(cats, func(i, j int) bool {
			return cats[i].count > cats[j].count
		})
		for _, cc := range cats {
			bar := strings.Repeat("█", min(cc.count, 40))
			fmt.Printf("  %-30s %s (%d)\n", truncate(cc.cat, 28), bar, cc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max characters. Titles are Arabic, so the cut is by
// rune, not byte.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func stringOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
