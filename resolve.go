package main

import (
	"context"
	"os"

	"github.com/fedbridge/fedbridge/models"
	"github.com/fedbridge/fedbridge/resolver"
	"github.com/go-json-experiment/json"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

type ResolveCmd struct {
	Target     string `arg:"" help:"domain to resolve"`
	Domain     string `help:"domain name of the bridge" default:"bridge.local"`
	DefaultHub string `help:"hub to advertise for feeds that declare none" default:"https://bridge-feed.superfeedr.com/"`
	AtomProxy  string `help:"HTML to Atom conversion service" default:"https://granary.io/url"`
}

func (c *ResolveCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}

	env := &models.Env{
		DB:     db,
		Logger: slog.New(slog.NewTextHandler(os.Stderr)),
		Config: models.Config{
			Domains:    []string{c.Domain},
			BaseURL:    "https://" + c.Domain,
			DefaultHub: c.DefaultHub,
			AtomProxy:  c.AtomProxy,
		},
	}

	r := resolver.NewResolver(env)
	res, err := r.ResolveFollow(context.Background(), c.Target, "")
	if err != nil {
		return err
	}
	key, err := models.NewMagicKeys(db).GetOrCreate(res.Domain)
	if err != nil {
		return err
	}
	doc, err := r.Finger(res, key)
	if err != nil {
		return err
	}
	return json.MarshalOptions{}.MarshalFull(json.EncodeOptions{
		Indent: "  ",
	}, os.Stdout, doc)
}
