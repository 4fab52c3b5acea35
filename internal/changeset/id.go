package changeset

import (
	"math/rand/v2"
	"strings"
)

// DefaultMaxIDAttempts bounds the number of ids drawn before giving up.
const DefaultMaxIDAttempts = 50

var adjectives = []string{
	"brave", "calm", "clever", "cool", "eager", "fancy", "fair", "fresh",
	"gentle", "giant", "happy", "honest", "humble", "jolly", "kind", "lazy",
	"lucky", "mighty", "modern", "neat", "nice", "odd", "plenty", "polite",
	"proud", "quick", "quiet", "rare", "ready", "shiny", "silly", "smart",
	"smooth", "soft", "swift", "tall", "tender", "tidy", "tiny", "warm",
	"wild", "wise", "young", "zesty",
}

var nouns = []string{
	"apple", "badger", "beach", "bear", "bird", "boat", "brook", "cactus",
	"camel", "cat", "cloud", "coin", "comet", "crane", "deer", "dolphin",
	"eagle", "falcon", "fern", "forest", "fox", "garden", "goat", "hill",
	"island", "koala", "lake", "lemon", "lion", "maple", "meadow", "moon",
	"otter", "owl", "panda", "pear", "pebble", "pine", "river", "rocket",
	"seal", "star", "tiger", "tulip", "whale", "wolf",
}

var verbs = []string{
	"bake", "bounce", "build", "chase", "climb", "dance", "dig", "dream",
	"drift", "fly", "glow", "grow", "hide", "hop", "hum", "jump",
	"juggle", "kick", "laugh", "leap", "listen", "march", "nap", "paint",
	"play", "race", "read", "relax", "roll", "run", "sail", "shine",
	"sing", "skip", "sleep", "smile", "spin", "swim", "talk", "travel",
	"wander", "wave", "whistle", "wink", "write",
}

// intnFunc returns a uniformly distributed int in [0, n).
type intnFunc func(n int) int

func defaultIntn(n int) int {
	return rand.IntN(n)
}

// generateID draws one adjective-noun-verb id.
func generateID(intn intnFunc) string {
	return strings.Join([]string{
		adjectives[intn(len(adjectives))],
		nouns[intn(len(nouns))],
		verbs[intn(len(verbs))],
	}, "-")
}

// IsWellFormedID reports whether id looks like a generated word triple.
func IsWellFormedID(id string) bool {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < 'a' || r > 'z' {
				return false
			}
		}
	}
	return true
}
