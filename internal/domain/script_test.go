package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidLink(t *testing.T) {
	valid := []string{
		"https://example.com/script.lua",
		"http://example.com",
		"https://example.com/path?x=1&y=2",
	}
	for _, link := range valid {
		assert.True(t, IsValidLink(link), link)
	}

	invalid := []string{
		"",
		"example.com/no-scheme",
		"ftp://example.com/file",
		"https://",
		"not a url at all",
		"//relative.example.com",
	}
	for _, link := range invalid {
		assert.False(t, IsValidLink(link), link)
	}
}

func TestMatchesQuery(t *testing.T) {
	s := Script{Name: "Account Generator", Description: "Registers users in BULK"}

	assert.True(t, s.MatchesQuery("account"))
	assert.True(t, s.MatchesQuery("GENERATOR"))
	assert.True(t, s.MatchesQuery("bulk"), "description is searched too")
	assert.False(t, s.MatchesQuery("missing"))
	assert.True(t, s.MatchesQuery(""), "empty term matches everything")
}
