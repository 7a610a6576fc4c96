package wellknown

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fedbridge/fedbridge/internal/ap"
	"github.com/fedbridge/fedbridge/models"
	"github.com/fedbridge/fedbridge/resolver"
	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
	"gorm.io/gorm"
)

// Actor serves the ActivityPub actor document for a bridged domain, from the
// stored discovery snapshot when there is one, resolving the domain fresh
// otherwise.
func Actor(env *Env, w http.ResponseWriter, r *http.Request) error {
	domain := chi.URLParam(r, "domain")

	identity, err := models.NewIdentities(env.DB).Find(domain)
	switch {
	case err == nil:
		// cached snapshot
	case errors.Is(err, gorm.ErrRecordNotFound):
		res, err := resolver.NewResolver(env.Env).ResolveFollow(r.Context(), domain, "")
		if err != nil {
			return err
		}
		identity = &models.Identity{Domain: res.Domain, Actor: res.Actor}
	default:
		return err
	}
	if identity.Actor == nil {
		return fmt.Errorf("no actor for %s", domain)
	}

	key, err := models.NewMagicKeys(env.DB).GetOrCreate(identity.Domain)
	if err != nil {
		return err
	}
	actor := identity.Actor
	actor["publicKey"] = map[string]any{
		"id":           key.KeyID(env.BaseURL),
		"owner":        env.BaseURL + "/" + identity.Domain,
		"publicKeyPem": string(key.PublicKey),
	}

	w.Header().Set("Content-Type", ap.ContentType)
	return json.MarshalFull(w, actor)
}
