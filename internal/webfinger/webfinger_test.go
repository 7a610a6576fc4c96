package webfinger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		resource string
		user     string
		host     string
		wantErr  bool
	}{
		{resource: "acct:alice@example.com", user: "alice", host: "example.com"},
		{resource: "alice@example.com", user: "alice", host: "example.com"},
		{resource: "acct:@alice@example.com", user: "alice", host: "example.com"},
		{resource: "acct:a.example.com@bridge.example", user: "a.example.com", host: "bridge.example"},
		{resource: "example.com", wantErr: true},
		{resource: "acct:@example.com", wantErr: true},
		{resource: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			require := require.New(t)
			acct, err := Parse(tt.resource)
			if tt.wantErr {
				require.Error(err)
				return
			}
			require.NoError(err)
			require.Equal(tt.user, acct.User)
			require.Equal(tt.host, acct.Host)
		})
	}
}

func TestAcctWebfinger(t *testing.T) {
	require := require.New(t)
	acct := &Acct{User: "alice", Host: "example.com"}
	require.Equal("acct:alice@example.com", acct.String())
	require.Equal("https://example.com/.well-known/webfinger?resource=acct%3Aalice%40example.com", acct.Webfinger())
}

func TestTrimNulls(t *testing.T) {
	require := require.New(t)
	r := &Resource{
		Links: []Link{
			{Rel: RelProfilePage, Href: "https://a.example/"},
			{Rel: RelAvatar},
			{Rel: RelSubscribe, Template: "https://bridge.example/user/a.example?url={uri}"},
		},
	}
	r.TrimNulls()
	require.Len(r.Links, 2)
	require.Equal(RelProfilePage, r.Links[0].Rel)
	require.Equal(RelSubscribe, r.Links[1].Rel)
}

func TestRel(t *testing.T) {
	require := require.New(t)
	r := &Resource{
		Links: []Link{
			{Rel: RelSalmonReplies, Href: "https://remote.example/salmon"},
		},
	}
	require.Equal("https://remote.example/salmon", r.Rel(RelSalmon, RelSalmonReplies))
	require.Equal("", r.Rel(RelMagicKey))
}

func TestXRD(t *testing.T) {
	require := require.New(t)
	r := &Resource{
		Subject: "acct:a.example@bridge.example",
		Aliases: []string{"https://a.example/"},
		Links: []Link{
			{Rel: RelSelf, Type: "application/activity+json", Href: "https://bridge.example/a.example"},
		},
	}
	body, err := r.XRD()
	require.NoError(err)
	s := string(body)
	require.Contains(s, `<XRD xmlns="http://docs.oasis-open.org/ns/xri/xrd-1.0">`)
	require.Contains(s, "<Subject>acct:a.example@bridge.example</Subject>")
	require.Contains(s, "<Alias>https://a.example/</Alias>")
	require.Contains(s, `rel="self"`)
	require.Contains(s, `href="https://bridge.example/a.example"`)
}
