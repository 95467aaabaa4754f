package verification_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainpress/newsverify/src/verification"
)

func TestArticleHashStableUnderNoise(t *testing.T) {
	base := verification.ArticleHash("Breaking News", "The quick brown fox jumps over the lazy dog.")

	tests := []struct {
		name    string
		title   string
		content string
	}{
		{"extra whitespace", "Breaking   News", "The quick brown fox \n\t jumps over the lazy dog."},
		{"markup", "<b>Breaking News</b>", "<p>The quick brown fox jumps over the <i>lazy</i> dog.</p>"},
		{"case", "BREAKING NEWS", "The Quick Brown Fox Jumps Over The Lazy Dog."},
		{"surrounding space", "  Breaking News  ", "  The quick brown fox jumps over the lazy dog.  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, base, verification.ArticleHash(tt.title, tt.content))
		})
	}
}

func TestArticleHashDistinguishesContent(t *testing.T) {
	a := verification.ArticleHash("Title", "content one")
	b := verification.ArticleHash("Title", "content two")
	c := verification.ArticleHash("Other title", "content one")
	require.NotEqual(t, a, b)
	require.NotEqual(t, a, c)
}

func TestHashHex(t *testing.T) {
	h := verification.ArticleHash("t", "c")
	hex := verification.HashHex(h)
	require.True(t, strings.HasPrefix(hex, "0x"))
	require.Len(t, hex, 66)
}

func TestCanonicalText(t *testing.T) {
	got := verification.CanonicalText("  <p>Hello&nbsp;  <b>World</b></p>\n")
	require.Equal(t, "hello world", got)
}
