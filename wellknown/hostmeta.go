package wellknown

import (
	"io"
	"net/http"

	"github.com/fedbridge/fedbridge/internal/to"
	"github.com/fedbridge/fedbridge/internal/webfinger"
)

func hostMetaResource(host string) *webfinger.Resource {
	return &webfinger.Resource{
		Links: []webfinger.Link{
			{
				Rel:      "lrdd",
				Type:     webfinger.XRDContentType,
				Template: "https://" + host + "/.well-known/webfinger?resource={uri}",
			},
		},
	}
}

// HostMeta serves /.well-known/host-meta, pointing lrdd lookups at the
// webfinger endpoint.
func HostMeta(env *Env, w http.ResponseWriter, r *http.Request) error {
	body, err := hostMetaResource(r.Host).XRD()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", webfinger.XRDContentType)
	_, err = w.Write(body)
	return err
}

// HostMetaJSON serves /.well-known/host-meta.json, the JRD rendering.
func HostMetaJSON(env *Env, w http.ResponseWriter, r *http.Request) error {
	return to.JRD(w, hostMetaResource(r.Host))
}

// HostMetaXRDS serves /.well-known/host-meta.xrds for legacy OStatus clients
// that only speak XRDS-Simple.
func HostMetaXRDS(env *Env, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/xrds+xml")
	_, err := io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<XRDS xmlns="xri://$xrds">
  <XRD xmlns="xri://$xrd*($v*2.0)">
    <Type>xri://$xrds*simple</Type>
    <Service>
      <Type>http://lrdd.net/rel/descriptor</Type>
      <MediaType>application/xrd+xml</MediaType>
      <URITemplate>https://`+r.Host+`/.well-known/webfinger?resource={uri}</URITemplate>
    </Service>
  </XRD>
</XRDS>`)
	return err
}
