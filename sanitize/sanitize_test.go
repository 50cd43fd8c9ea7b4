package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var dir = MapDirectory{
	Members:  map[string]string{"42": "Luna", "7": "Sol"},
	Channels: map[string]string{"100": "general"},
}

func TestTextReplacesTokens(t *testing.T) {
	cases := map[string]string{
		"hi <@42>":                   "hi Luna",
		"hi <@!7> and <@42>":         "hi Sol and Luna",
		"see <#100>":                 "see #general",
		"nice <:pog:123456>":         "nice :pog:",
		"party <a:dance_cat:999>":    "party :dance_cat:",
		"plain text stays the same":  "plain text stays the same",
		"<@42> in <#100> <:wave:1>!": "Luna in #general :wave:!",
	}
	for in, want := range cases {
		assert.Equal(t, want, Text(in, dir), in)
	}
}

func TestTextKeepsUnknownIDs(t *testing.T) {
	assert.Equal(t, "hi <@999> in <#5>", Text("hi <@999> in <#5>", dir))
}

func TestTextWithoutDirectory(t *testing.T) {
	assert.Equal(t, "<@42> :x:", Text("<@42> <:x:1>", nil))
}
