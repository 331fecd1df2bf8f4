package source

import "testing"

func TestNormalizeID_CanonicalPassThrough(t *testing.T) {
	for _, id := range CanonicalIDs() {
		got, ok := NormalizeID(id)
		if !ok || got != id {
			t.Errorf("NormalizeID(%q) = %q, %v; want identity", id, got, ok)
		}
	}
}

func TestNormalizeID_Aliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Official Website", OfficialWebsite},
		{"official-site", OfficialWebsite},
		{"Twitter", SocialMedia},
		{"X", SocialMedia},
		{"Block Explorer", OnChainData},
		{"etherscan", OnChainData},
		{"GitHub", CodeRepository},
		{"CoinGecko", MarketData},
		{"white paper", Whitepaper},
		{"Discord", CommunityChannels},
		{"steam", Reviews},
	}
	for _, c := range cases {
		got, ok := NormalizeID(c.in)
		if !ok {
			t.Errorf("NormalizeID(%q): no mapping", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeID_UnknownIsNotError(t *testing.T) {
	if _, ok := NormalizeID("crystal_ball"); ok {
		t.Error("expected no mapping for unknown id")
	}
	if _, ok := NormalizeID(""); ok {
		t.Error("expected no mapping for empty id")
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(CollectorFunc{SourceID: MarketData, Fn: nil})

	if _, ok := r.Lookup(MarketData); !ok {
		t.Error("expected registered collector to be found")
	}
	if _, ok := r.Lookup(Whitepaper); ok {
		t.Error("expected miss for unregistered collector")
	}
}

func TestParsePage(t *testing.T) {
	body := `<html><head>
		<title>Example Quest</title>
		<meta name="description" content="An on-chain adventure game.">
	</head><body>
		<h1>Example Quest</h1><h2>Play now</h2>
		<a href="/a">a</a><a href="/b">b</a>
	</body></html>`

	page := parsePage(body)
	if page.title != "Example Quest" {
		t.Errorf("title = %q", page.title)
	}
	if page.description != "An on-chain adventure game." {
		t.Errorf("description = %q", page.description)
	}
	if page.links != 2 {
		t.Errorf("links = %d, want 2", page.links)
	}
	if page.headings != 2 {
		t.Errorf("headings = %d, want 2", page.headings)
	}
}
