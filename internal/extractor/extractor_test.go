package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const profileURL = "https://www.ufc.com/athlete/alex-pereira"

func parse(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func fieldsOf(f domain.Fields) map[string]string {
	out := make(map[string]string, f.Len())
	f.Each(func(k, v string) { out[k] = v })
	return out
}

func TestExtractAbout(t *testing.T) {
	doc := parse(t, `
<div class="hero-profile">
  <p class="hero-profile__nickname">"Poatan"</p>
  <h1 class="hero-profile__name"> Alex Pereira </h1>
  <p class="hero-profile__division-title">Light Heavyweight Division</p>
</div>
<div class="c-bio__info-details">
  <div class="c-bio__field"><div class="c-bio__label">Age</div><div class="field__item">37</div></div>
  <div class="c-bio__field"><div class="c-bio__label">Hometown</div><div class="c-bio__text">Sao Paulo, Brazil</div></div>
  <div class="c-bio__field"><div class="c-bio__label">Status</div><div class="c-bio__text">Active<span>since 2015</span></div></div>
  <div class="c-bio__field"><div class="c-bio__label">Trains at</div></div>
  <div class="c-bio__field"><div class="c-bio__text">orphan value</div></div>
</div>`)

	about := ExtractAbout(doc, profileURL+"?utm=1", "Male")

	require.Equal(t, "alex-pereira", about.ID)
	require.Equal(t, "Alex Pereira", about.Name)
	require.Equal(t, "Poatan", about.Nickname)
	require.Equal(t, "Light Heavyweight Division", about.Division)
	require.Equal(t, "Male", about.Gender)
	require.Equal(t, []string{"Age", "Hometown", "Status", "Trains at"}, about.Bio.Keys())

	want := map[string]string{"Age": "37", "Hometown": "Sao Paulo, Brazil", "Status": "Active", "Trains at": ""}
	if diff := cmp.Diff(want, fieldsOf(about.Bio)); diff != "" {
		t.Errorf("bio mismatch (-want +got):\n%s", diff)
	}

	_, hasReach := about.Bio.Get("Reach")
	require.False(t, hasReach)
}

func TestExtractAboutMissingHero(t *testing.T) {
	about := ExtractAbout(parse(t, `<div></div>`), profileURL, "Female")

	require.Equal(t, "alex-pereira", about.ID)
	require.Empty(t, about.Name)
	require.Empty(t, about.Nickname)
	require.Zero(t, about.Bio.Len())
}

func TestExtractStats(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected map[string]string
		keys     []string
	}{
		{
			name:     "no container",
			html:     `<div class="c-overlap__stats"><span class="c-overlap__stats-text">Orphan</span></div>`,
			expected: map[string]string{},
		},
		{
			name:     "empty container",
			html:     `<div class="l-container__content"></div>`,
			expected: map[string]string{},
		},
		{
			name: "label without value stores zero",
			html: `<div class="l-container__content">
  <div class="c-overlap__stats"><dt class="c-overlap__stats-text">Sig. Strikes Landed</dt></div>
  <div class="c-stat-3bar__group"><div class="c-stat-3bar__label">Standing</div></div>
  <div class="c-stat-compare__group"><div class="c-stat-compare__label">Knockdown Avg</div></div>
</div>`,
			expected: map[string]string{"Sig. Strikes Landed": "0", "Standing": "0", "Knockdown Avg": "0"},
		},
		{
			name: "all four layouts",
			html: `<div class="l-container__content">
  <div class="c-overlap__stats"><dt class="c-overlap__stats-text">Sig. Strikes Landed</dt><dd class="c-overlap__stats-value">1230</dd></div>
  <div class="c-stat-compare__group">
    <div class="c-stat-compare__number">5.43</div>
    <div class="c-stat-compare__label">Sig. Str. Landed</div>
    <div class="c-stat-compare__label-suffix">Per Min</div>
  </div>
  <div class="c-stat-compare__group">
    <div class="c-stat-compare__number">62</div><div class="c-stat-compare__percent">%</div>
    <div class="c-stat-compare__label">Takedown Defense</div>
  </div>
  <div class="c-stat-3bar__group"><div class="c-stat-3bar__label">Standing</div><div class="c-stat-3bar__value">800 (65%)</div></div>
  <div class="c-stat-body__diagram">
    <svg>
      <g id="e-stat-body_x5F__x5F_head-txt"><text fill="#D20A0A">34%</text><text fill="#D20A0A">420</text></g>
      <g id="e-stat-body_x5F__x5F_body-txt"><text fill="#D20A0A">20%</text></g>
    </svg>
  </div>
</div>`,
			expected: map[string]string{
				"Sig. Strikes Landed":      "1230",
				"Sig. Str. Landed Per Min": "5.43",
				"Takedown Defense":         "62%",
				"Standing":                 "800 (65%)",
				"Head":                     "420",
				"Body":                     "0",
			},
			keys: []string{"Sig. Strikes Landed", "Sig. Str. Landed Per Min", "Takedown Defense", "Standing", "Head", "Body"},
		},
		{
			name: "nested markup keeps own text only",
			html: `<div class="l-container__content">
  <div class="c-stat-compare__group">
    <div class="c-stat-compare__number">55 <div class="c-stat-compare__percent">%</div></div>
    <div class="c-stat-compare__label">Striking Defense</div>
  </div>
  <div class="c-stat-3bar__group"><div class="c-stat-3bar__label">Clinch <span>(all)</span></div><div class="c-stat-3bar__value">40</div></div>
</div>`,
			expected: map[string]string{"Striking Defense": "55%", "Clinch": "40"},
		},
		{
			name: "later layout overwrites label",
			html: `<div class="l-container__content">
  <div class="c-overlap__stats"><dt class="c-overlap__stats-text">Standing</dt><dd class="c-overlap__stats-value">1</dd></div>
  <div class="c-stat-3bar__group"><div class="c-stat-3bar__label">Standing</div><div class="c-stat-3bar__value">2</div></div>
</div>`,
			expected: map[string]string{"Standing": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := ExtractStats(parse(t, tt.html))
			if diff := cmp.Diff(tt.expected, fieldsOf(stats)); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}
			if tt.keys != nil {
				require.Equal(t, tt.keys, stats.Keys())
			}
		})
	}
}

func TestExtractRecord(t *testing.T) {
	doc := parse(t, `
<div class="hero-profile"><p class="hero-profile__division-body">12-2-0 (W-L-D)</p></div>
<div class="athlete-stats">
  <div class="athlete-stats__stat"><p class="athlete-stats__stat-numb">9</p><p class="athlete-stats__stat-text">Wins by Knockout</p></div>
  <div class="athlete-stats__stat"><p class="athlete-stats__stat-text">Wins by Submission</p></div>
  <div class="athlete-stats__stat"><p class="athlete-stats__stat-numb">3</p></div>
</div>`)

	record := ExtractRecord(doc)

	require.Equal(t, "12-2-0 (W-L-D)", record.WLD)
	require.Equal(t, map[string]string{"Wins by Knockout": "9", "Wins by Submission": "0"}, fieldsOf(record.Stats))
}

const fightCardRedWins = `
<article class="c-card-event--athlete-results">
  <div class="c-card-event--athlete-results__red-image"><div class="c-card-event--athlete-results__plaque win">Win</div></div>
  <div class="c-card-event--athlete-results__blue-image"></div>
  <h3 class="c-card-event--athlete-results__headline">
    <a href="https://www.ufc.com/athlete/alex-pereira">Pereira</a> vs <a href="/athlete/israel-adesanya">Adesanya</a>
  </h3>
  <div class="c-card-event--athlete-results__date">Nov. 12, 2022</div>
  <div class="c-card-event--athlete-results__results">
    <div class="c-card-event--athlete-results__result"><div class="c-card-event--athlete-results__result-label">Round</div><div class="c-card-event--athlete-results__result-text">5</div></div>
    <div class="c-card-event--athlete-results__result"><div class="c-card-event--athlete-results__result-label">Time</div><div class="c-card-event--athlete-results__result-text">2:01</div></div>
    <div class="c-card-event--athlete-results__result"><div class="c-card-event--athlete-results__result-label">Method</div><div class="c-card-event--athlete-results__result-text">KO/TKO</div></div>
    <div class="c-card-event--athlete-results__result"><div class="c-card-event--athlete-results__result-label">Referee</div><div class="c-card-event--athlete-results__result-text">Marc Goddard</div></div>
  </div>
  <a href="https://www.ufc.com/event/ufc-281#10501">Fight Card</a>
</article>`

func TestExtractFight(t *testing.T) {
	doc := parse(t, fightCardRedWins)

	fight, ok := ExtractFight(doc.Find(selectorFightCard))
	require.True(t, ok)

	want := domain.FightRecord{
		Fighter1:   "Pereira",
		Fighter2:   "Adesanya",
		Fighter1ID: "alex-pereira",
		Fighter2ID: "israel-adesanya",
		Winner:     "Pereira",
		Loser:      "Adesanya",
		WinnerID:   "alex-pereira",
		LoserID:    "israel-adesanya",
		Date:       "Nov. 12, 2022",
		Round:      "5",
		Time:       "2:01",
		Method:     "KO/TKO",
		Event:      "Ufc 281",
		EventID:    "ufc-281",
	}
	if diff := cmp.Diff(want, fight); diff != "" {
		t.Errorf("fight mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "alex-pereira_vs_israel-adesanya_Nov_12_2022", fight.Key())
}

func TestExtractFightBlueWins(t *testing.T) {
	doc := parse(t, `
<article class="c-card-event--athlete-results">
  <div class="c-card-event--athlete-results__red-image"><div class="c-card-event--athlete-results__plaque loss">Loss</div></div>
  <div class="c-card-event--athlete-results__blue-image"><div class="c-card-event--athlete-results__plaque win">Win</div></div>
  <h3 class="c-card-event--athlete-results__headline"><a href="/athlete/a">A</a> vs <a href="/athlete/b">B</a></h3>
</article>`)

	fight, ok := ExtractFight(doc.Find(selectorFightCard))
	require.True(t, ok)
	require.Equal(t, "b", fight.WinnerID)
	require.Equal(t, "B", fight.Winner)
	require.Equal(t, "a", fight.LoserID)
	require.Equal(t, "A", fight.Loser)
}

func TestExtractFightDrawAndDefaults(t *testing.T) {
	doc := parse(t, `
<article class="c-card-event--athlete-results">
  <div class="c-card-event--athlete-results__red-image"><div class="c-card-event--athlete-results__plaque draw">Draw</div></div>
  <h3 class="c-card-event--athlete-results__headline"><a>Solo Fighter</a></h3>
</article>`)

	fight, ok := ExtractFight(doc.Find(selectorFightCard))
	require.True(t, ok)

	require.Equal(t, domain.DrawNoContestID, fight.WinnerID)
	require.Equal(t, domain.DrawNoContestID, fight.LoserID)
	require.Equal(t, domain.DrawNoContestName, fight.Winner)
	require.Equal(t, domain.DrawNoContestName, fight.Loser)

	require.Equal(t, "Solo Fighter", fight.Fighter1)
	require.Equal(t, domain.UnknownFighterName, fight.Fighter2)
	require.Equal(t, domain.UnknownFighterID, fight.Fighter1ID)
	require.Equal(t, domain.UnknownFighterID, fight.Fighter2ID)
	require.Equal(t, domain.NotAvailable, fight.Date)
	require.Equal(t, domain.NotAvailable, fight.Round)
	require.Equal(t, domain.NotAvailable, fight.Time)
	require.Equal(t, domain.NotAvailable, fight.Method)
	require.Equal(t, domain.UnknownEventID, fight.EventID)
	require.Equal(t, domain.UnknownEventName, fight.Event)
}

func TestExtractFightWithoutNames(t *testing.T) {
	doc := parse(t, `
<article class="c-card-event--athlete-results">
  <h3 class="c-card-event--athlete-results__headline"><a href="/athlete/a">  </a></h3>
  <div class="c-card-event--athlete-results__date">Mar. 19, 2022</div>
</article>`)

	_, ok := ExtractFight(doc.Find(selectorFightCard))
	require.False(t, ok)
}

func TestExtractFightHistory(t *testing.T) {
	doc := parse(t, fightCardRedWins+`
<article class="c-card-event--athlete-results">
  <h3 class="c-card-event--athlete-results__headline"></h3>
</article>
<article class="c-card-event--athlete-results">
  <h3 class="c-card-event--athlete-results__headline"><a href="/athlete/alex-pereira">Pereira</a> vs <a href="/athlete/sean-strickland">Strickland</a></h3>
  <div class="c-card-event--athlete-results__date">Jul. 2, 2022</div>
</article>`)

	history := ExtractFightHistory(doc, profileURL, zap.NewNop())

	require.Equal(t, []string{
		"alex-pereira_vs_israel-adesanya_Nov_12_2022",
		"alex-pereira_vs_sean-strickland_Jul_2_2022",
	}, history.Keys())

	fight, ok := history.Get("alex-pereira_vs_sean-strickland_Jul_2_2022")
	require.True(t, ok)
	require.Equal(t, "Jul. 2, 2022", fight.Date)
}

func TestExtractAthlete(t *testing.T) {
	doc := parse(t, `
<div class="hero-profile"><h1 class="hero-profile__name">Alex Pereira</h1><p class="hero-profile__division-body">12-2-0 (W-L-D)</p></div>
<div class="l-container__content"><div class="c-stat-3bar__group"><div class="c-stat-3bar__label">Standing</div><div class="c-stat-3bar__value">10</div></div></div>`+fightCardRedWins)

	record := ExtractAthlete(doc, profileURL, "Male", zap.NewNop())

	require.Equal(t, "alex-pereira", record.ID())
	require.Equal(t, "Alex Pereira", record.About.Name)
	require.Equal(t, "12-2-0 (W-L-D)", record.Record.WLD)
	require.Equal(t, 1, record.Stats.Len())
	require.Equal(t, 1, record.FightHistory.Len())
}

func TestListingHelpers(t *testing.T) {
	doc := parse(t, `
<div class="c-listing-athlete-flipcard"><a class="e-button--black" href="/athlete/a">Profile</a></div>
<div class="c-listing-athlete-flipcard"><span>no link</span></div>
<div class="c-listing-athlete-flipcard"><a class="e-button--black" href=" https://www.ufc.com/athlete/b ">Profile</a></div>
<ul class="js-pager__items pager"><li class="pager__item"><a href="?page=2">Load more</a></li></ul>`)

	require.Equal(t, []ListingCard{
		{Href: "/athlete/a"},
		{Href: ""},
		{Href: "https://www.ufc.com/athlete/b"},
	}, ListingCards(doc))
	require.Equal(t, "?page=2", PagerLink(doc))
	require.Equal(t, "?page=2", HistoryPagerLink(doc))

	empty := parse(t, `<div></div>`)
	require.Empty(t, ListingCards(empty))
	require.Empty(t, PagerLink(empty))
	require.Empty(t, HistoryPagerLink(empty))
}
