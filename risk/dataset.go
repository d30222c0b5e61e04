package risk

import (
	"math/rand"
	"sort"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

const (
	Seed      = 42
	Samples   = 1000
	TestShare = 0.2
	TreeDepth = 5
	minAge    = 18
	maxAge    = 80
	maxIncome = 5
)

// Feature order used by the tree.
const (
	featAge = iota
	featIncome
	featGoal
	featHorizon
	featExperience
	numFeatures
)

var (
	goals       = []string{"retirement", "education", "property", "wealth", "emergency"}
	horizons    = []string{"short", "medium", "long"}
	experiences = []string{"none", "some", "experienced"}

	goalWeight       = map[string]float64{"wealth": 2, "retirement": 1, "property": 1, "education": 0, "emergency": -1}
	horizonWeight    = map[string]float64{"long": 2, "medium": 1, "short": 0}
	experienceWeight = map[string]float64{"experienced": 2, "some": 1, "none": 0}
)

// Encoder maps a categorical vocabulary to sorted integer codes. Values it
// has never seen map to the code of Neutral.
type Encoder struct {
	Codes   map[string]int `json:"codes"`
	Neutral string         `json:"neutral"`
}

func NewEncoder(vocabulary []string, neutral string) Encoder {
	sorted := append([]string(nil), vocabulary...)
	sort.Strings(sorted)
	codes := make(map[string]int, len(sorted))
	for i, v := range sorted {
		codes[v] = i
	}
	return Encoder{Codes: codes, Neutral: neutral}
}

// Encode returns the code for v; known is false when the neutral code was used.
func (e Encoder) Encode(v string) (code int, known bool) {
	if c, ok := e.Codes[v]; ok {
		return c, true
	}
	return e.Codes[e.Neutral], false
}

type Encoders struct {
	Goal       Encoder `json:"investment_goal"`
	Horizon    Encoder `json:"time_horizon"`
	Experience Encoder `json:"investment_experience"`
}

func newEncoders() Encoders {
	return Encoders{
		Goal:       NewEncoder(goals, "property"),
		Horizon:    NewEncoder(horizons, "medium"),
		Experience: NewEncoder(experiences, "some"),
	}
}

// policyScore encodes the intended policy: youth, income, growth goals, long
// horizons and experience all push toward risk.
func policyScore(age float64, income int, goal, horizon, experience string) float64 {
	return (maxAge-age)*0.05 +
		float64(income)*0.5 +
		goalWeight[goal] +
		horizonWeight[horizon] +
		experienceWeight[experience]
}

func categoryForScore(score float64) entities.RiskCategory {
	switch {
	case score < 5:
		return entities.Conservative
	case score < 7:
		return entities.Moderate
	case score < 9:
		return entities.Balanced
	case score < 11:
		return entities.Growth
	default:
		return entities.Aggressive
	}
}

type dataset struct {
	x [][]float64
	y []int
}

// syntheticDataset draws labelled profiles from a seeded source so every
// process trains the same tree.
func syntheticDataset(rng *rand.Rand, n int, enc Encoders) dataset {
	ds := dataset{x: make([][]float64, n), y: make([]int, n)}
	for i := 0; i < n; i++ {
		age := float64(minAge + rng.Intn(maxAge-minAge))
		income := 1 + rng.Intn(maxIncome)
		goal := goals[rng.Intn(len(goals))]
		horizon := horizons[rng.Intn(len(horizons))]
		experience := experiences[rng.Intn(len(experiences))]

		g, _ := enc.Goal.Encode(goal)
		h, _ := enc.Horizon.Encode(horizon)
		e, _ := enc.Experience.Encode(experience)

		row := make([]float64, numFeatures)
		row[featAge] = age
		row[featIncome] = float64(income)
		row[featGoal] = float64(g)
		row[featHorizon] = float64(h)
		row[featExperience] = float64(e)

		ds.x[i] = row
		ds.y[i] = int(categoryForScore(policyScore(age, income, goal, horizon, experience)))
	}
	return ds
}

// split shuffles rows and holds out testShare of them.
func (ds dataset) split(rng *rand.Rand, testShare float64) (train, test dataset) {
	perm := rng.Perm(len(ds.y))
	nTest := int(float64(len(ds.y)) * testShare)
	for i, p := range perm {
		if i < nTest {
			test.x = append(test.x, ds.x[p])
			test.y = append(test.y, ds.y[p])
		} else {
			train.x = append(train.x, ds.x[p])
			train.y = append(train.y, ds.y[p])
		}
	}
	return train, test
}
