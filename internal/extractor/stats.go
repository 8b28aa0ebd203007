package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
)

const (
	selectorOverlapStats      = ".c-overlap__stats"
	selectorOverlapStatsLabel = ".c-overlap__stats-text"
	selectorOverlapStatsValue = ".c-overlap__stats-value"

	selectorCompareGroup       = ".c-stat-compare__group"
	selectorCompareLabel       = ".c-stat-compare__label"
	selectorCompareLabelSuffix = ".c-stat-compare__label-suffix"
	selectorCompareNumber      = ".c-stat-compare__number"
	selectorComparePercent     = ".c-stat-compare__percent"

	selectorThreeBarGroup = ".c-stat-3bar__group"
	selectorThreeBarLabel = ".c-stat-3bar__label"
	selectorThreeBarValue = ".c-stat-3bar__value"

	selectorBodyDiagram = ".c-stat-body__diagram"
	selectorBodyValue   = `text[fill="#D20A0A"]`
)

type bodyRegion struct {
	label   string
	groupID string
}

// The landed count is the second red text node inside each region group.
var bodyRegions = []bodyRegion{
	{label: "Head", groupID: "e-stat-body_x5F__x5F_head-txt"},
	{label: "Body", groupID: "e-stat-body_x5F__x5F_body-txt"},
	{label: "Leg", groupID: "e-stat-body_x5F__x5F_leg-txt"},
}

// ExtractStats runs the four stat layouts in a fixed order into one block.
// A label produced by a later layout overwrites the same label from an earlier one.
func ExtractStats(doc *goquery.Selection) domain.StatBlock {
	var stats domain.StatBlock

	container := doc.Find(selectorStatsContainer)
	if container.Length() == 0 {
		return stats
	}

	extractOverlapStats(container, &stats)
	extractCompareStats(container, &stats)
	extractThreeBarStats(container, &stats)
	extractBodyDiagramStats(container, &stats)

	return stats
}

func extractOverlapStats(container *goquery.Selection, stats *domain.StatBlock) {
	container.Find(selectorOverlapStats).Each(func(_ int, field *goquery.Selection) {
		label := text(field, selectorOverlapStatsLabel)
		if label == "" {
			return
		}
		stats.Set(label, textOr(field, selectorOverlapStatsValue, defaultStatValue))
	})
}

func extractCompareStats(container *goquery.Selection, stats *domain.StatBlock) {
	container.Find(selectorCompareGroup).Each(func(_ int, field *goquery.Selection) {
		label := strings.TrimSpace(text(field, selectorCompareLabel) + " " + text(field, selectorCompareLabelSuffix))
		if label == "" {
			return
		}

		value := text(field, selectorCompareNumber) + text(field, selectorComparePercent)
		if value == "" {
			value = defaultStatValue
		}
		stats.Set(label, value)
	})
}

func extractThreeBarStats(container *goquery.Selection, stats *domain.StatBlock) {
	container.Find(selectorThreeBarGroup).Each(func(_ int, field *goquery.Selection) {
		label := text(field, selectorThreeBarLabel)
		if label == "" {
			return
		}
		stats.Set(label, textOr(field, selectorThreeBarValue, defaultStatValue))
	})
}

func extractBodyDiagramStats(container *goquery.Selection, stats *domain.StatBlock) {
	diagram := container.Find(selectorBodyDiagram)
	if diagram.Length() == 0 {
		return
	}

	for _, region := range bodyRegions {
		group := diagram.Find(`g[id="` + region.groupID + `"]`)
		if group.Length() == 0 {
			continue
		}

		value := defaultStatValue
		if landed := ownText(group.Find(selectorBodyValue).Eq(1)); landed != "" {
			value = landed
		}
		stats.Set(region.label, value)
	}
}
