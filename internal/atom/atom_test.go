package atom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromAS1Reply(t *testing.T) {
	require := require.New(t)

	obj := map[string]any{
		"id":      "https://a.example/reply",
		"url":     "https://a.example/reply",
		"verb":    "post",
		"content": "<p>nice post</p>",
		"author": map[string]any{
			"displayName": "Alice",
			"url":         "https://a.example/",
		},
		"inReplyTo": []any{
			map[string]any{"url": "https://b.example/post", "id": "tag:b.example,2017:123"},
		},
		"tags": []any{
			map[string]any{"url": "https://b.example/author"},
		},
	}

	body, err := FromAS1(obj, "https://a.example/reply")
	require.NoError(err)
	s := string(body)
	require.Contains(s, `xmlns="http://www.w3.org/2005/Atom"`)
	require.Contains(s, `xml:base="https://a.example/reply"`)
	require.Contains(s, "<id>https://a.example/reply</id>")
	require.Contains(s, `<thr:in-reply-to ref="tag:b.example,2017:123" href="https://b.example/post">`)
	require.Contains(s, `<link rel="mentioned" href="https://b.example/author">`)
	require.Contains(s, "<name>Alice</name>")
	require.Contains(s, "nice post")
}

func TestFromAS1LikeCarriesVerb(t *testing.T) {
	require := require.New(t)

	obj := map[string]any{
		"id":     "https://a.example/like",
		"verb":   "like",
		"object": []any{map[string]any{"url": "https://b.example/post", "id": "tag:b.example:9"}},
	}
	body, err := FromAS1(obj, "https://a.example/like")
	require.NoError(err)
	s := string(body)
	require.Contains(s, "<activity:verb>http://activitystrea.ms/schema/1.0/like</activity:verb>")
	require.Contains(s, `ref="tag:b.example:9"`)
}
