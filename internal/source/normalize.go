package source

import "strings"

// Canonical source ids. Everything the planner or the language model emits
// is normalized into this closed set before dispatch.
const (
	OfficialWebsite   = "official_website"
	Whitepaper        = "whitepaper"
	TeamInfo          = "team_info"
	SocialMedia       = "social_media"
	CommunityChannels = "community_channels"
	OnChainData       = "onchain_data"
	CodeRepository    = "code_repository"
	NewsArticles      = "news_articles"
	MarketData        = "market_data"
	Reviews           = "reviews"
)

// aliasTable maps planner- and model-produced names to canonical ids.
// Model-generated plans use wildly inconsistent naming; an unmapped id is a
// normal "not found", never an error.
var aliasTable = map[string]string{
	"website":          OfficialWebsite,
	"official_site":    OfficialWebsite,
	"project_website":  OfficialWebsite,
	"homepage":         OfficialWebsite,
	"web":              OfficialWebsite,
	"docs":             Whitepaper,
	"documentation":    Whitepaper,
	"white_paper":      Whitepaper,
	"litepaper":        Whitepaper,
	"tokenomics_paper": Whitepaper,
	"team":             TeamInfo,
	"founders":         TeamInfo,
	"about":            TeamInfo,
	"linkedin":         TeamInfo,
	"twitter":          SocialMedia,
	"x":                SocialMedia,
	"socials":          SocialMedia,
	"telegram":         CommunityChannels,
	"discord":          CommunityChannels,
	"reddit":           CommunityChannels,
	"community":        CommunityChannels,
	"etherscan":        OnChainData,
	"bscscan":          OnChainData,
	"block_explorer":   OnChainData,
	"blockchain":       OnChainData,
	"contract":         OnChainData,
	"github":           CodeRepository,
	"repo":             CodeRepository,
	"source_code":      CodeRepository,
	"news":             NewsArticles,
	"press":            NewsArticles,
	"articles":         NewsArticles,
	"coingecko":        MarketData,
	"coinmarketcap":    MarketData,
	"market":           MarketData,
	"price_data":       MarketData,
	"steam":            Reviews,
	"app_store":        Reviews,
	"user_reviews":     Reviews,
	"ratings":          Reviews,
}

// canonical is the closed set of known ids
var canonical = map[string]bool{
	OfficialWebsite:   true,
	Whitepaper:        true,
	TeamInfo:          true,
	SocialMedia:       true,
	CommunityChannels: true,
	OnChainData:       true,
	CodeRepository:    true,
	NewsArticles:      true,
	MarketData:        true,
	Reviews:           true,
}

// NormalizeID maps an arbitrary source name to a canonical collector id.
// ok is false when no mapping exists.
func NormalizeID(id string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	if canonical[key] {
		return key, true
	}
	if mapped, ok := aliasTable[key]; ok {
		return mapped, true
	}
	return "", false
}

// CanonicalIDs returns the closed set of known source ids
func CanonicalIDs() []string {
	return []string{
		OfficialWebsite, Whitepaper, TeamInfo,
		SocialMedia, CommunityChannels, OnChainData, CodeRepository,
		NewsArticles, MarketData, Reviews,
	}
}
