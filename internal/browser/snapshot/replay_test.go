package snapshot

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/surveypilot/internal/survey"
)

var questionnaire = map[string]string{
	"01_age.html": `<html><body><form>
		<h2>Quel est votre âge ?</h2>
		<div><input type="radio" name="age" id="a1"><label for="a1">Moins de 15 ans</label></div>
		<div><input type="radio" name="age" id="a2"><label for="a2">15 à 24 ans</label></div>
		<div><input type="radio" name="age" id="a3"><label for="a3">25 à 34 ans</label></div>
		<div><input type="radio" name="age" id="a4"><label for="a4">35 à 49 ans</label></div>
		<div><input type="radio" name="age" id="a5"><label for="a5">50 ans et plus</label></div>
		<button>Suivant</button>
	</form></body></html>`,
	"02_visit.html": `<html><body><form>
		<h2>Quel jour et à quelle heure êtes-vous venu au restaurant ?</h2>
		<div><label>Date de visite</label><input type="text" placeholder="JJ/MM/AAAA"></div>
		<div><label>Heure</label><input type="text"></div>
		<div><label>Minute</label><input type="text"></div>
		<div><label>Numéro du restaurant</label><input type="text"></div>
		<button>Suivant</button>
	</form></body></html>`,
	"03_exact.html": `<html><body><form>
		<h2>Votre commande était exacte ?</h2>
		<div><input type="radio" name="exact" id="e1"><label for="e1">Oui</label></div>
		<div><input type="radio" name="exact" id="e2"><label for="e2">Non</label></div>
		<button>Suivant</button>
	</form></body></html>`,
	"04_done.html": `<html><body><h1>Merci pour votre participation !</h1></body></html>`,
}

func TestReplayQuestionnaire(t *testing.T) {
	dir := writePages(t, questionnaire)
	logger := zaptest.NewLogger(t)
	d, err := Open(dir, logger)
	require.NoError(t, err)

	visit := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	cfg := survey.CampaignConfig{
		TargetURL:       "https://survey.example/start",
		SiteID:          "0610",
		DateStart:       visit,
		DateEnd:         visit,
		HourStart:       survey.ClockTime(8 * 60),
		HourEnd:         survey.ClockTime(22 * 60),
		SurveyCount:     1,
		MaxAttempts:     10,
		DateFormat:      "02/01/2006",
		AgeDistribution: [5]int{0, 100, 0, 0, 0},
	}
	now := func() time.Time { return time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC) }
	sampler := survey.NewSampler(rand.New(rand.NewSource(7)), now, cfg.AgeDistribution)
	nav := survey.NewNavigator(cfg,
		survey.MustNewClassifier(survey.DefaultRules()),
		survey.NewDispatcher(cfg, sampler, logger),
		survey.NewSleepPauser(0),
		survey.Settle{},
		logger,
	)

	out := nav.Run(context.Background(), d)
	require.NoError(t, out.Err)
	assert.True(t, out.Completed)
	assert.Equal(t, []survey.PageTag{survey.TagAge, survey.TagDateTime, survey.TagExact, survey.TagComplete}, out.Trail)
	assert.Equal(t, 4, out.AttemptsUsed)

	typed := map[string]bool{}
	var writes, clicksOnExact int
	for _, in := range d.Interactions() {
		switch {
		case in.Action == "type" && in.Page == "02_visit.html":
			typed[in.Value] = true
			writes++
		case in.Action == "click" && in.Page == "03_exact.html":
			clicksOnExact++
		}
	}
	assert.True(t, typed["10/03/2026"], "visit date typed")
	assert.True(t, typed["0610"], "site id typed")
	assert.Equal(t, 4, writes, "date, hour, minute and site fields are written")
	assert.Equal(t, 2, clicksOnExact, "the affirmative answer then the next button")
}
