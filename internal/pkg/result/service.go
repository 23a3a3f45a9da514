package result

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/pkg/errors"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sixtyscan/voiceapi/internal/pkg/classify"
	"github.com/sixtyscan/voiceapi/internal/pkg/export"
	"github.com/sixtyscan/voiceapi/internal/pkg/persistence"
)

// DB loads stored screening outcomes
type DB interface {
	LoadTestResults(ctx context.Context, userEmail string) ([]*persistence.TestRecord, error)
	LoadTestResult(ctx context.Context, userEmail string, id int64) (*persistence.TestRecord, error)
}

// Identity resolves the authenticated user email, empty for guests
type Identity interface {
	FromRequest(r *http.Request) (string, error)
}

// Data keeps data required for service work
type Data struct {
	Port     int
	DB       DB
	Identity Identity
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting HTTP SIXTY result service")

	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return errors.New("no DB")
	}
	if data.Identity == nil {
		return errors.New("no identity")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("sixty_result", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/history", history(data))
	e.GET("/record/:id", record(data))
	e.GET("/record/:id/pdf", downloadPdf(data))
	e.HEAD("/record/:id/pdf", downloadPdf(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

type recordResult struct {
	ID      int64  `json:"id"`
	Percent int    `json:"percent"`
	Label   string `json:"label"`
	Tier    string `json:"tier"`
	Created string `json:"created"`
}

func mapRecord(rec *persistence.TestRecord) *recordResult {
	return &recordResult{ID: rec.ID, Percent: rec.Percent, Label: rec.Label,
		Tier: classify.Do(rec.Percent).Tier.String(), Created: rec.Created.Format(time.RFC3339)}
}

func history(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("history method")()

		email, err := takeEmail(c, data)
		if err != nil {
			return err
		}
		recs, err := data.DB.LoadTestResults(c.Request().Context(), email)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "service error")
		}
		res := []*recordResult{}
		for _, r := range recs {
			res = append(res, mapRecord(r))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func record(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("record method")()

		rec, err := takeRecord(c, data)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, mapRecord(rec))
	}
}

func downloadPdf(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("downloadPdf method")()

		rec, err := takeRecord(c, data)
		if err != nil {
			return err
		}
		b, err := export.Result(rec)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "can't generate pdf")
		}
		c.Response().Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%s", export.FileName(rec)))
		return c.Blob(http.StatusOK, "application/pdf", b)
	}
}

func takeRecord(c echo.Context, data *Data) (*persistence.TestRecord, error) {
	email, err := takeEmail(c, data)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong ID")
	}
	rec, err := data.DB.LoadTestResult(c.Request().Context(), email, id)
	if err != nil {
		goapp.Log.Error().Err(err).Send()
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "service error")
	}
	if rec == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no record")
	}
	return rec, nil
}

func takeEmail(c echo.Context, data *Data) (string, error) {
	email, err := data.Identity.FromRequest(c.Request())
	if err != nil {
		goapp.Log.Error().Err(err).Send()
		return "", echo.NewHTTPError(http.StatusUnauthorized, "wrong token")
	}
	if email == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "no token")
	}
	return email, nil
}
