package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/internal/util"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	selectorFightCard      = "article.c-card-event--athlete-results"
	selectorFightHeadline  = "h3.c-card-event--athlete-results__headline a"
	selectorRedCorner      = ".c-card-event--athlete-results__red-image"
	selectorBlueCorner     = ".c-card-event--athlete-results__blue-image"
	selectorWinPlaque      = ".c-card-event--athlete-results__plaque.win"
	selectorFightDate      = "div.c-card-event--athlete-results__date"
	selectorFightResult    = "div.c-card-event--athlete-results__results div.c-card-event--athlete-results__result"
	selectorFightResultKey = "div.c-card-event--athlete-results__result-label"
	selectorFightResultVal = "div.c-card-event--athlete-results__result-text"
	selectorEventLink      = `a[href*="event"]`

	resultLabelRound  = "Round"
	resultLabelTime   = "Time"
	resultLabelMethod = "Method"
)

// ExtractFightHistory reads every fight card on the page.
// A card that fails unexpectedly is logged and skipped; the rest of the page still counts.
func ExtractFightHistory(doc *goquery.Selection, pageURL string, logger *zap.Logger) domain.FightHistory {
	if logger == nil {
		logger = zap.NewNop()
	}

	var history domain.FightHistory
	doc.Find(selectorFightCard).Each(func(i int, card *goquery.Selection) {
		fight, ok, err := extractFightSafely(card)
		if err != nil {
			logger.Error("Failed to extract fight card",
				zap.String("url", pageURL),
				zap.Int("card", i),
				zap.Error(errors.NewExtractionError("fight card extraction failed", "fight_history", pageURL, err)),
			)
			return
		}
		if ok {
			history.Add(fight)
		}
	})

	return history
}

func extractFightSafely(card *goquery.Selection) (fight domain.FightRecord, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fight, ok = ExtractFight(card)
	return fight, ok, nil
}

// ExtractFight reads one fight card. It reports false when the headline names no fighter.
func ExtractFight(card *goquery.Selection) (domain.FightRecord, bool) {
	var names, links []string
	card.Find(selectorFightHeadline).Each(func(_ int, a *goquery.Selection) {
		if name := ownText(a); name != "" {
			names = append(names, name)
		}
		if href, exists := a.Attr("href"); exists {
			links = append(links, strings.TrimSpace(href))
		}
	})
	if len(names) == 0 {
		return domain.FightRecord{}, false
	}

	fight := domain.FightRecord{
		Fighter1:   names[0],
		Fighter2:   at(names, 1, domain.UnknownFighterName),
		Fighter1ID: fighterID(at(links, 0, "")),
		Fighter2ID: fighterID(at(links, 1, "")),
		Date:       textOr(card, selectorFightDate, domain.NotAvailable),
		Round:      domain.NotAvailable,
		Time:       domain.NotAvailable,
		Method:     domain.NotAvailable,
		Event:      domain.UnknownEventName,
		EventID:    domain.UnknownEventID,
	}

	switch {
	case card.Find(selectorRedCorner).Find(selectorWinPlaque).Length() > 0:
		fight.Winner, fight.WinnerID = fight.Fighter1, fight.Fighter1ID
		fight.Loser, fight.LoserID = fight.Fighter2, fight.Fighter2ID
	case card.Find(selectorBlueCorner).Find(selectorWinPlaque).Length() > 0:
		fight.Winner, fight.WinnerID = fight.Fighter2, fight.Fighter2ID
		fight.Loser, fight.LoserID = fight.Fighter1, fight.Fighter1ID
	default:
		fight.Winner, fight.WinnerID = domain.DrawNoContestName, domain.DrawNoContestID
		fight.Loser, fight.LoserID = domain.DrawNoContestName, domain.DrawNoContestID
	}

	card.Find(selectorFightResult).Each(func(_ int, result *goquery.Selection) {
		label := text(result, selectorFightResultKey)
		value := text(result, selectorFightResultVal)
		switch {
		case strings.Contains(label, resultLabelRound):
			fight.Round = value
		case strings.Contains(label, resultLabelTime):
			fight.Time = value
		case strings.Contains(label, resultLabelMethod):
			fight.Method = value
		}
	})

	if href := attr(card, selectorEventLink, "href"); href != "" && strings.Count(href, "/") >= 2 {
		if slug := util.LastPathSegment(href); slug != "" {
			fight.EventID = slug
			fight.Event = util.TitleFromSlug(slug)
		}
	}

	return fight, true
}

// fighterID is the last path segment of an athlete link, or "unknown".
func fighterID(link string) string {
	if id := util.LastPathSegment(link); id != "" {
		return id
	}
	return domain.UnknownFighterID
}

func at(values []string, i int, fallback string) string {
	if i < len(values) {
		return values[i]
	}
	return fallback
}
