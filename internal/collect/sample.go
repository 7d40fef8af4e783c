package collect

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dusk-indust/verdict/internal/appeals"
)

// Pools for sample generation, modeled on typical Pennsylvania county
// assessment rolls.
var (
	sampleStreets = []string{
		"Main St", "Oak Ave", "Pine St", "Church St", "Washington Ave",
		"Jefferson St", "Lincoln Ave", "Madison St", "Adams Ave", "Monroe St",
		"Elm St", "Maple Ave", "Cedar St", "Spruce Ave", "Walnut St",
		"Market St", "State St", "Pennsylvania Ave", "Mulberry St", "Vine St",
	}

	sampleOwners = []string{
		"John Smith", "Mary Johnson", "Robert Williams", "Patricia Brown",
		"Michael Davis", "Linda Miller", "David Wilson", "Susan Moore",
		"James Taylor", "Barbara Anderson", "Richard Thomas", "Nancy Jackson",
	}

	samplePropertyTypes = []string{
		"Residential", "Commercial", "Industrial", "Vacant Land",
		"Apartment Building", "Mixed Use",
	}

	sampleReasons = []string{
		appeals.ReasonOverassessment, "Incorrect Property Information",
		"Uniformity Issues", "Market Value Dispute", "Clerical Error",
		"Comparable Sales Analysis",
	}

	// Assessment ratios typical for PA counties.
	sampleRatios = []float64{0.75, 0.80, 0.85, 0.90, 0.95, 1.0, 1.05, 1.10}
)

// GenerateSample produces n deterministic appeal cases for the given seed.
// Roughly a third of the cases land in the appeal-worthy band (inflated
// ratio, modest reduction), matching real backlog proportions closely
// enough for demos and tests.
func GenerateSample(n int, seed int64) []appeals.AppealCase {
	rng := rand.New(rand.NewSource(seed))
	year := time.Now().Year()

	cases := make([]appeals.AppealCase, 0, n)
	for i := 0; i < n; i++ {
		market := int64(rng.Intn(400_000) + 60_000)
		ratio := sampleRatios[rng.Intn(len(sampleRatios))]
		assessed := int64(float64(market) * ratio)

		reason := sampleReasons[rng.Intn(len(sampleReasons))]

		// Requested value: appeal-worthy cases ask for a modest cut,
		// the rest ask for aggressive or token reductions.
		var requested int64
		switch {
		case reason == appeals.ReasonOverassessment && ratio > 0.9 && rng.Intn(2) == 0:
			requested = assessed - int64(float64(assessed)*(0.05+rng.Float64()*0.14))
		default:
			requested = assessed - int64(float64(assessed)*(0.25+rng.Float64()*0.35))
		}

		cases = append(cases, appeals.AppealCase{
			AppealID:       fmt.Sprintf("AP-%d-%04d", year, i+1),
			PropertyID:     fmt.Sprintf("%02d-%03d-%02d", rng.Intn(90)+10, rng.Intn(900)+100, rng.Intn(90)+10),
			Address:        fmt.Sprintf("%d %s, Scranton, PA", rng.Intn(9900)+100, sampleStreets[rng.Intn(len(sampleStreets))]),
			OwnerName:      sampleOwners[rng.Intn(len(sampleOwners))],
			PropertyType:   samplePropertyTypes[rng.Intn(len(samplePropertyTypes))],
			Reason:         reason,
			AssessedValue:  assessed,
			MarketValue:    market,
			RequestedValue: requested,
			FiledAt:        time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(180)),
		})
	}
	return cases
}
