package wellknown

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostMeta(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "https://bridge.example/.well-known/host-meta", nil)
	w := httptest.NewRecorder()
	require.NoError(HostMeta(env, w, req))

	require.Equal("application/xrd+xml", w.Header().Get("Content-Type"))
	require.Contains(w.Body.String(), `template="https://bridge.example/.well-known/webfinger?resource={uri}"`)
}

func TestHostMetaJSON(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "https://bridge.example/.well-known/host-meta.json", nil)
	w := httptest.NewRecorder()
	require.NoError(HostMetaJSON(env, w, req))

	require.Equal("application/jrd+json", w.Header().Get("Content-Type"))
	require.Contains(w.Body.String(), `"lrdd"`)
	require.Contains(w.Body.String(), "webfinger?resource={uri}")
}

func TestHostMetaXRDS(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "https://bridge.example/.well-known/host-meta.xrds", nil)
	w := httptest.NewRecorder()
	require.NoError(HostMetaXRDS(env, w, req))

	require.Equal("application/xrds+xml", w.Header().Get("Content-Type"))
	require.Contains(w.Body.String(), "xri://$xrds*simple")
}
