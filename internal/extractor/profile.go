// Package extractor maps ufc.com athlete markup to domain records.
// Every function tolerates missing nodes and falls back to documented defaults.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/internal/util"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	selectorHeroName     = ".hero-profile .hero-profile__name"
	selectorHeroNickname = ".hero-profile .hero-profile__nickname"
	selectorHeroDivision = ".hero-profile .hero-profile__division-title"
	selectorHeroRecord   = ".hero-profile .hero-profile__division-body"

	selectorBioField = "div.c-bio__info-details div.c-bio__field"
	selectorBioLabel = "div.c-bio__label"
	selectorBioText  = "div.c-bio__text"
	selectorBioAge   = "div.field__item"

	selectorStatsContainer = ".l-container__content"

	selectorRecordStat       = "div.athlete-stats div.athlete-stats__stat"
	selectorRecordStatNumber = "p.athlete-stats__stat-numb"
	selectorRecordStatLabel  = "p.athlete-stats__stat-text"

	bioLabelAge = "Age"

	defaultStatValue = "0"
)

// ExtractAthlete builds the full record for a profile page, including the fights listed on it.
func ExtractAthlete(doc *goquery.Selection, profileURL, gender string, logger *zap.Logger) *domain.AthleteRecord {
	return &domain.AthleteRecord{
		About:        ExtractAbout(doc, profileURL, gender),
		Stats:        ExtractStats(doc),
		Record:       ExtractRecord(doc),
		FightHistory: ExtractFightHistory(doc, profileURL, logger),
	}
}

// AthleteID derives the stable athlete id from the profile URL slug.
func AthleteID(profileURL string) string {
	return util.SlugFromURL(profileURL)
}

// ExtractAbout reads the hero block and the labelled bio fields.
func ExtractAbout(doc *goquery.Selection, profileURL, gender string) domain.AthleteProfile {
	about := domain.AthleteProfile{
		ID:       AthleteID(profileURL),
		Name:     text(doc, selectorHeroName),
		Nickname: util.CleanText(text(doc, selectorHeroNickname)),
		Division: text(doc, selectorHeroDivision),
		Gender:   gender,
	}

	doc.Find(selectorBioField).Each(func(_ int, field *goquery.Selection) {
		label := text(field, selectorBioLabel)
		if label == "" {
			return
		}

		// Age is rendered inside a nested field item rather than c-bio__text.
		if label == bioLabelAge {
			about.Bio.Set(label, text(field, selectorBioAge))
			return
		}
		about.Bio.Set(label, text(field, selectorBioText))
	})

	return about
}

// ExtractRecord reads the W-L-D line and the labelled record cards.
func ExtractRecord(doc *goquery.Selection) domain.RecordSummary {
	record := domain.RecordSummary{
		WLD: text(doc, selectorHeroRecord),
	}

	doc.Find(selectorRecordStat).Each(func(_ int, stat *goquery.Selection) {
		label := text(stat, selectorRecordStatLabel)
		if label == "" {
			return
		}
		record.Stats.Set(label, textOr(stat, selectorRecordStatNumber, defaultStatValue))
	})

	return record
}

// text returns the trimmed own text of the first match, or "" when nothing matches.
func text(sel *goquery.Selection, selector string) string {
	return ownText(sel.Find(selector))
}

// ownText joins the direct text nodes of the first element in sel.
// Text inside nested elements is not included.
func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.First().Contents().Each(func(_ int, child *goquery.Selection) {
		if node := child.Get(0); node != nil && node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
	})
	return strings.TrimSpace(b.String())
}

func textOr(sel *goquery.Selection, selector, fallback string) string {
	if value := text(sel, selector); value != "" {
		return value
	}
	return fallback
}

func attr(sel *goquery.Selection, selector, name string) string {
	value, _ := sel.Find(selector).First().Attr(name)
	return strings.TrimSpace(value)
}
