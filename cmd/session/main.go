package main

import (
	"context"
	"time"

	aclean "github.com/airenas/async-api/pkg/clean"
	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/go-app/pkg/goapp"
	capi "github.com/hashicorp/consul/api"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"

	"github.com/sixtyscan/voiceapi/internal/pkg/capture"
	"github.com/sixtyscan/voiceapi/internal/pkg/consul"
	"github.com/sixtyscan/voiceapi/internal/pkg/identity"
	"github.com/sixtyscan/voiceapi/internal/pkg/postgres"
	"github.com/sixtyscan/voiceapi/internal/pkg/scorer"
	"github.com/sixtyscan/voiceapi/internal/pkg/scoring"
	"github.com/sixtyscan/voiceapi/internal/pkg/session"
	"github.com/sixtyscan/voiceapi/internal/pkg/store"
	"github.com/sixtyscan/voiceapi/internal/pkg/utils"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &capture.Data{}
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

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	msgSender, err := postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	data.Persister, err = store.NewGateway(db, msgSender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init result gateway")
	}

	filer, err := miniofs.NewFiler(ctx, miniofs.Options{Bucket: cfg.GetString("filer.bucket"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"), Key: cfg.GetString("filer.key")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}
	data.Filer = filer

	data.Sessions, err = session.NewManager(cfg.GetDuration("session.expire"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init session manager")
	}

	data.Identity, err = identity.NewVerifier(cfg.GetString("identity.secret"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init identity verifier")
	}

	data.WSHandler = capture.NewWSConnKeeper()

	ctxSrv, cancelFunc := context.WithCancel(ctx)

	sc, err := initScorer(ctxSrv, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init scorer")
	}
	data.Scoring, err = scoring.NewAggregator(sc)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init scoring")
	}

	tData := aclean.TimerData{}
	tData.IDsProvider = data.Sessions
	tData.RunEvery = cfg.GetDuration("session.cleanEvery")
	cleaner := &aclean.CleanerGroup{}
	cleaner.Jobs = append(cleaner.Jobs, filer)
	cleaner.Jobs = append(cleaner.Jobs, data.Sessions)
	tData.Cleaner = cleaner

	doneCh, err := aclean.StartCleanTimer(ctxSrv, &tData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start session clean timer")
	}

	go utils.RunPerfEndpoint()

	err = capture.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func initScorer(ctx context.Context, cfg *viper.Viper) (scoring.Scorer, error) {
	consulURL := cfg.GetString("consul.url")
	if consulURL == "" {
		goapp.Log.Info().Str("url", cfg.GetString("scorer.url")).Msg("cfg: fixed predictor")
		return scorer.NewClient(cfg.GetString("scorer.url"))
	}
	goapp.Log.Info().Str("url", consulURL).Msg("cfg: consul predictor discovery")
	provider, err := consul.NewProvider(&capi.Config{Address: consulURL}, cfg.GetString("consul.srvName"))
	if err != nil {
		return nil, err
	}
	if _, err := provider.StartRegistryLoop(ctx, cfg.GetDuration("consul.checkEvery")); err != nil {
		return nil, err
	}
	return provider, nil
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

                         _
   ________  __________(_)___  ____
  / ___/ _ \/ ___/ ___/ / __ \/ __ \
 (__  )  __(__  |__  ) / /_/ / / / / v: %s
/____/\___/____/____/_/\____/_/ /_/

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/sixtyscan/voiceapi"))
}
