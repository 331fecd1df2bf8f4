package score

import (
	"fmt"
	"sort"
	"time"

	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/source"
)

// Reliability classes carry fixed point values
type reliability string

const (
	reliabilityOfficial reliability = "official" // 10 points
	reliabilityVerified reliability = "verified" // 7 points
	reliabilityScraped  reliability = "scraped"  // 4 points
)

var reliabilityPoints = map[reliability]float64{
	reliabilityOfficial: 10,
	reliabilityVerified: 7,
	reliabilityScraped:  4,
}

// sourceSpec is the static categorization of one source id
type sourceSpec struct {
	tier        model.Tier
	weight      float64
	reliability reliability
}

// catalog is the static source categorization. Scoring depends only on this
// table and the findings, never on the plan that produced them.
var catalog = map[string]sourceSpec{
	source.OfficialWebsite:   {model.TierCritical, 10, reliabilityOfficial},
	source.Whitepaper:        {model.TierCritical, 9, reliabilityOfficial},
	source.TeamInfo:          {model.TierCritical, 8, reliabilityVerified},
	source.OnChainData:       {model.TierImportant, 7, reliabilityOfficial},
	source.SocialMedia:       {model.TierImportant, 6, reliabilityVerified},
	source.CommunityChannels: {model.TierImportant, 6, reliabilityScraped},
	source.CodeRepository:    {model.TierImportant, 6, reliabilityVerified},
	source.MarketData:        {model.TierSupporting, 5, reliabilityVerified},
	source.NewsArticles:      {model.TierSupporting, 4, reliabilityScraped},
	source.Reviews:           {model.TierSupporting, 3, reliabilityScraped},
}

var qualityMultiplier = map[model.Quality]float64{
	model.QualityHigh:   1.0,
	model.QualityMedium: 0.7,
	model.QualityLow:    0.4,
}

// Sub-score caps; they sum to 100
const (
	coverageCap    = 40.0
	reliabilityCap = 40.0
	recencyCap     = 20.0
)

// Scorer turns a findings set into a research score. Stateless; every call
// recomputes from scratch.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Score computes the research score for a findings set
func (s *Scorer) Score(findings model.Findings) model.ResearchScore {
	coverage := s.coverage(findings)
	reliability := s.reliabilityScore(findings)
	recency := s.recency(findings)

	total := coverage + reliability + recency
	if total > 100 {
		total = 100
	}

	dataPoints := findings.TotalDataPoints()
	missing := missingCritical(findings)

	confidence := total / 100
	if tier1Coverage(findings) >= 0.8 {
		confidence += 0.1
	}
	if dataPoints >= 15 {
		confidence += 0.1
	}
	confidence -= 0.15 * float64(len(missing))
	confidence = clamp01(confidence)

	tier1Found := tier1FoundCount(findings)

	return model.ResearchScore{
		Total:      total,
		Grade:      grade(total),
		Confidence: confidence,
		Breakdown: model.ScoreBreakdown{
			Coverage:    coverage,
			Reliability: reliability,
			Recency:     recency,
		},
		MissingCritical: missing,
		Recommendations: recommendations(findings, missing, dataPoints),
		TotalDataPoints: dataPoints,
		PassesThreshold: total >= 60 && dataPoints >= 15 && tier1Found >= 2,
	}
}

// tier1Emphasis triple-counts critical sources in the numerators and the
// normalization base. A complete critical trio with a couple of supporting
// finds lands in the B band; without the emphasis the four tier-2 sources
// dilute it down to a C.
const tier1Emphasis = 3.0

func emphasis(tier model.Tier) float64 {
	if tier == model.TierCritical {
		return tier1Emphasis
	}
	return 1
}

// normalizationBase spans tier-1 and tier-2 sources, tier-1 at emphasis.
// Sub-scores normalize against this fixed base: supporting sources add to
// the numerator only, so adding any found source can never lower a
// sub-score (monotonic), while tier-3 finds push a thin collection over
// the line instead of diluting it.
func normalizationBase() (weighted, slots float64) {
	for _, spec := range catalog {
		if spec.tier == model.TierSupporting {
			continue
		}
		weighted += emphasis(spec.tier) * spec.weight * 1.2
		slots += emphasis(spec.tier)
	}
	return weighted, slots
}

// coverage rewards found sources by weight, quality, and data volume
func (s *Scorer) coverage(findings model.Findings) float64 {
	maxWeighted, _ := normalizationBase()
	var got float64
	for id, spec := range catalog {
		fd, ok := findings[id]
		if !ok || !fd.Found {
			continue
		}
		volume := float64(fd.DataPoints) / 10
		if volume > 1.2 {
			volume = 1.2
		}
		got += emphasis(spec.tier) * spec.weight * qualityMultiplier[fd.Quality] * volume
	}
	if maxWeighted == 0 {
		return 0
	}
	return capAt(got/maxWeighted*coverageCap, coverageCap)
}

// reliabilityScore sums per-found-source reliability points
func (s *Scorer) reliabilityScore(findings model.Findings) float64 {
	_, slots := normalizationBase()
	var got float64
	for id, spec := range catalog {
		fd, ok := findings[id]
		if !ok || !fd.Found {
			continue
		}
		got += emphasis(spec.tier) * reliabilityPoints[spec.reliability]
	}
	max := reliabilityPoints[reliabilityOfficial] * slots
	if max == 0 {
		return 0
	}
	return capAt(got/max*reliabilityCap, reliabilityCap)
}

// recencyPoints decays in five bands by collection age
func recencyPoints(age time.Duration) float64 {
	days := age.Hours() / 24
	switch {
	case days <= 7:
		return 5
	case days <= 30:
		return 4
	case days <= 90:
		return 3
	case days <= 180:
		return 2
	default:
		return 1
	}
}

func (s *Scorer) recency(findings model.Findings) float64 {
	_, slots := normalizationBase()
	var got float64
	now := s.now()
	for id, spec := range catalog {
		fd, ok := findings[id]
		if !ok || !fd.Found {
			continue
		}
		got += emphasis(spec.tier) * recencyPoints(now.Sub(fd.CollectedAt))
	}
	max := 5 * slots
	if max == 0 {
		return 0
	}
	return capAt(got/max*recencyCap, recencyCap)
}

func capAt(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}

func grade(total float64) string {
	switch {
	case total >= 85:
		return "A"
	case total >= 70:
		return "B"
	case total >= 60:
		return "C"
	case total >= 40:
		return "D"
	default:
		return "F"
	}
}

// Tier1Sources returns the catalog's tier-1 source ids
func Tier1Sources() []string {
	var ids []string
	for id, spec := range catalog {
		if spec.tier == model.TierCritical {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsTier1 reports whether a source id is critical
func IsTier1(id string) bool {
	spec, ok := catalog[id]
	return ok && spec.tier == model.TierCritical
}

func tier1FoundCount(findings model.Findings) int {
	count := 0
	for _, id := range Tier1Sources() {
		if fd, ok := findings[id]; ok && fd.Found {
			count++
		}
	}
	return count
}

func tier1Coverage(findings model.Findings) float64 {
	ids := Tier1Sources()
	if len(ids) == 0 {
		return 0
	}
	return float64(tier1FoundCount(findings)) / float64(len(ids))
}

func missingCritical(findings model.Findings) []string {
	var missing []string
	for _, id := range Tier1Sources() {
		if fd, ok := findings[id]; !ok || !fd.Found {
			missing = append(missing, id)
		}
	}
	return missing
}

func recommendations(findings model.Findings, missing []string, dataPoints int) []string {
	var recs []string
	for _, id := range missing {
		recs = append(recs, fmt.Sprintf("collect missing critical source: %s", id))
	}
	if dataPoints < 15 {
		recs = append(recs, fmt.Sprintf("only %d data points collected; 15+ needed for a trustworthy score", dataPoints))
	}
	if findings.FoundCount() > 0 && tier1Coverage(findings) < 1 && len(missing) == 0 {
		recs = append(recs, "re-collect low-quality critical sources")
	}
	return recs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
