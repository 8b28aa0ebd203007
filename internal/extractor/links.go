package extractor

import (
	"github.com/PuerkitoBio/goquery"
)

const (
	selectorListingCard    = ".c-listing-athlete-flipcard"
	selectorListingProfile = ".e-button--black"
	selectorPager          = ".pager__item a"
	selectorHistoryPager   = ".js-pager__items.pager a"
)

// ListingCard is one athlete flipcard on a listing page. Href is empty when the card has no profile link.
type ListingCard struct {
	Href string
}

// ListingCards returns the flipcards of a listing page in document order.
func ListingCards(doc *goquery.Selection) []ListingCard {
	var cards []ListingCard
	doc.Find(selectorListingCard).Each(func(_ int, card *goquery.Selection) {
		cards = append(cards, ListingCard{Href: attr(card, selectorListingProfile, "href")})
	})
	return cards
}

// PagerLink returns the "load more" link of a listing or profile page, or "".
func PagerLink(doc *goquery.Selection) string {
	return attr(doc, selectorPager, "href")
}

// HistoryPagerLink returns the "load more" link of a fight-history sub-page, or "".
func HistoryPagerLink(doc *goquery.Selection) string {
	return attr(doc, selectorHistoryPager, "href")
}
