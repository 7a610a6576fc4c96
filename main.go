package main

import (
	"github.com/alecthomas/kong"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Context struct {
	Debug bool

	Dialector gorm.Dialector
	gorm.Config
}

var cli struct {
	Debug bool   `help:"Enable debug mode."`
	Dsn   string `help:"Data source name." default:"fedbridge.db"`

	Serve       ServeCmd       `cmd:"" help:"Serve the bridge."`
	AutoMigrate AutoMigrateCmd `cmd:"" help:"Create or update the database schema."`
	Resolve     ResolveCmd     `cmd:"" help:"Resolve a domain and print its discovery document."`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{
		Debug:     cli.Debug,
		Dialector: newDialector(cli.Dsn),
		Config: gorm.Config{
			TranslateError: true,
			Logger: logger.Default.LogMode(func() logger.LogLevel {
				if cli.Debug {
					return logger.Info
				}
				return logger.Warn
			}()),
		},
	})
	ctx.FatalIfErrorf(err)
}
