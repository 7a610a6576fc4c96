package mf2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepresentativeCardMatchesPageURL(t *testing.T) {
	require := require.New(t)

	html := `<html><body>
		<div class="h-card"><a class="u-url p-name" href="https://other.example/">Someone Else</a></div>
		<div class="h-card"><a class="u-url p-name" href="https://a.example/">Alice</a></div>
	</body></html>`
	data := Parse(html, "https://a.example/")
	card := RepresentativeCard(data, "https://a.example/")
	require.NotNil(card)
	require.Equal("Alice", String(card, "name"))
}

func TestRepresentativeCardSoleCard(t *testing.T) {
	require := require.New(t)

	html := `<html><body>
		<div class="h-card"><a class="u-url p-name" href="https://elsewhere.example/alice">Alice</a></div>
	</body></html>`
	data := Parse(html, "https://a.example/")
	card := RepresentativeCard(data, "https://a.example/")
	require.NotNil(card)
	require.Equal("https://elsewhere.example/alice", String(card, "url"))
}

func TestRepresentativeCardSameHost(t *testing.T) {
	require := require.New(t)

	html := `<html><body>
		<div class="h-card"><a class="u-url p-name" href="https://other.example/">Someone Else</a></div>
		<div class="h-card"><a class="u-url p-name" href="https://a.example/about">Alice</a></div>
	</body></html>`
	data := Parse(html, "https://a.example/")
	card := RepresentativeCard(data, "https://a.example/")
	require.NotNil(card)
	require.Equal("Alice", String(card, "name"))
}

func TestRepresentativeCardNone(t *testing.T) {
	require := require.New(t)

	data := Parse(`<html><body><p>nothing here</p></body></html>`, "https://a.example/")
	require.Nil(RepresentativeCard(data, "https://a.example/"))
}

func TestFindFirstEntry(t *testing.T) {
	require := require.New(t)

	html := `<html><body>
		<article class="h-entry">
			<a class="u-url" href="https://a.example/post/1"></a>
			<div class="e-content"><p>Hello <b>world</b></p></div>
			<a class="u-in-reply-to" href="https://b.example/post/9"></a>
		</article>
		<article class="h-entry"><div class="e-content">second</div></article>
	</body></html>`
	data := Parse(html, "https://a.example/post/1")
	entry := FindFirstEntry(data, "h-entry")
	require.NotNil(entry)
	require.Equal("https://a.example/post/1", String(entry, "url"))
	require.Equal([]string{"https://b.example/post/9"}, Strings(entry, "in-reply-to"))
	require.Contains(HTML(entry, "content"), "<b>world</b>")
}

func TestFindFirstEntryNone(t *testing.T) {
	require := require.New(t)
	data := Parse(`<html><body></body></html>`, "https://a.example/")
	require.Nil(FindFirstEntry(data, "h-entry"))
}

func TestToMapRoundTrips(t *testing.T) {
	require := require.New(t)

	data := Parse(`<div class="h-entry"><div class="p-name">hi</div></div>`, "https://a.example/")
	m := ToMap(data)
	require.NotNil(m)
	require.Contains(m, "items")
}
