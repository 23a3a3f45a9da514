package main

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"

	"github.com/sixtyscan/voiceapi/internal/pkg/identity"
	"github.com/sixtyscan/voiceapi/internal/pkg/postgres"
	"github.com/sixtyscan/voiceapi/internal/pkg/result"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &result.Data{}
	data.Port = cfg.GetInt("port")
	var err error

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	data.DB, err = postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	data.Identity, err = identity.NewVerifier(cfg.GetString("identity.secret"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init identity verifier")
	}

	err = result.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
   _____ _______  __________  __
  / ___//  _/ _ \/_  __/ __ \/ /
  \__ \ / / | |/_// / / / / / /
 ___/ // / _>  < / / / /_/ /_/
/____/___//_/|_|/_/  \____(_)

                           ____
   ________  _______  __  / / /_
  / ___/ _ \/ ___/ / / / / / __/
 / /  /  __(__  ) /_/ / / / /_  v: %s
/_/   \___/____/\__,_/_/_/\__/

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/sixtyscan/voiceapi"))
}
