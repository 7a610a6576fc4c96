package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fedbridge/fedbridge/internal/httpx"
	"github.com/fedbridge/fedbridge/models"
	"github.com/fedbridge/fedbridge/webmention"
	"github.com/fedbridge/fedbridge/wellknown"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ServeCmd struct {
	Addr       string   `help:"address to listen" default:":8080"`
	Domain     []string `required:"" help:"domain name(s) the bridge answers for"`
	DefaultHub string   `help:"hub to advertise for feeds that declare none" default:"https://bridge-feed.superfeedr.com/"`
	AtomProxy  string   `help:"HTML to Atom conversion service" default:"https://granary.io/url"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}

	if err := configureDB(db); err != nil {
		return err
	}

	env := &models.Env{
		DB:     db,
		Logger: slog.New(slog.NewTextHandler(os.Stderr)),
		Config: models.Config{
			Domains:    s.Domain,
			BaseURL:    "https://" + s.Domain[0],
			DefaultHub: s.DefaultHub,
			AtomProxy:  s.AtomProxy,
		},
	}
	wkEnv := func(r *http.Request) *wellknown.Env {
		return &wellknown.Env{Env: env}
	}
	wmEnv := func(r *http.Request) *webmention.Env {
		return &webmention.Env{Env: env}
	}

	c := chi.NewRouter()
	c.Use(middleware.RequestID)
	c.Use(middleware.RealIP)
	c.Use(middleware.Logger)
	c.Use(middleware.Recoverer)

	c.Route("/", func(r chi.Router) {
		r.Post("/webmention", httpx.HandlerFunc(wmEnv, webmention.Create))

		r.Route("/.well-known", func(r chi.Router) {
			r.Get("/webfinger", httpx.HandlerFunc(wkEnv, wellknown.Webfinger))
			r.Get("/host-meta", httpx.HandlerFunc(wkEnv, wellknown.HostMeta))
			r.Get("/host-meta.json", httpx.HandlerFunc(wkEnv, wellknown.HostMetaJSON))
			r.Get("/host-meta.xrds", httpx.HandlerFunc(wkEnv, wellknown.HostMetaXRDS))
		})

		r.Get("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			io.WriteString(w, "User-agent: *\nDisallow: /")
		})

		// actor documents for bridged domains, with and without the
		// acct: prefix some clients send
		r.Get(`/acct:{domain}`, httpx.HandlerFunc(wkEnv, wellknown.Actor))
		r.Get(`/{domain:[a-z0-9.-]+\.[a-z0-9]+}`, httpx.HandlerFunc(wkEnv, wellknown.Actor))
	})

	svr := &http.Server{
		Addr:         s.Addr,
		Handler:      c,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return svr.ListenAndServe()
}
