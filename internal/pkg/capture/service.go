package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/grace/gracehttp"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/minio/minio-go/v7"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
	"github.com/sixtyscan/voiceapi/internal/pkg/classify"
	"github.com/sixtyscan/voiceapi/internal/pkg/persistence"
	"github.com/sixtyscan/voiceapi/internal/pkg/scoring"
	"github.com/sixtyscan/voiceapi/internal/pkg/session"
	"github.com/sixtyscan/voiceapi/internal/pkg/utils"
)

// Filer stores and retrieves the recorded clips
type Filer interface {
	SaveFile(ctx context.Context, name string, r io.Reader) error
	LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error)
	Clean(ctx context.Context, name string) error
}

// Scoring runs the full clip set against the predictor
type Scoring interface {
	Do(ctx context.Context, clips map[api.Key]io.Reader) (*scoring.Result, error)
}

// Persister records a fresh result for an identified user
type Persister interface {
	Persist(ctx context.Context, res *scoring.Result, userEmail string, fresh bool) (*persistence.TestRecord, error)
}

// Identity resolves the authenticated user email, empty for guests
type Identity interface {
	FromRequest(r *http.Request) (string, error)
}

// WSConnHandler manages session state subscriptions
type WSConnHandler interface {
	HandleConnection(WsConn) error
	GetConnections(id string) ([]WsConn, bool)
}

// Data keeps data required for service work
type Data struct {
	Port      int
	Sessions  *session.Manager
	Filer     Filer
	Scoring   Scoring
	Persister Persister
	Identity  Identity
	WSHandler WSConnHandler
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting HTTP SIXTY session service")
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Sessions == nil {
		return fmt.Errorf("no session manager")
	}
	if data.Filer == nil {
		return fmt.Errorf("no filer")
	}
	if data.Scoring == nil {
		return fmt.Errorf("no scoring")
	}
	if data.Persister == nil {
		return fmt.Errorf("no persister")
	}
	if data.Identity == nil {
		return fmt.Errorf("no identity")
	}
	if data.WSHandler == nil {
		return fmt.Errorf("no WSHandler")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("sixty_session", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/session", createSession(data))
	e.GET("/session/:id", getSession(data))
	e.POST("/session/:id/:key/start", startRecording(data))
	e.POST("/session/:id/:key/stop", stopRecording(data))
	e.DELETE("/session/:id/:key", deleteSlot(data))
	e.POST("/session/:id/submit", submit(data))
	e.GET("/subscribe", subscribeHandler(data))
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

type slotResult struct {
	Key         string `json:"key"`
	State       string `json:"state"`
	DurationSec int    `json:"durationSec"`
}

type sessionResult struct {
	ID       string       `json:"id"`
	Slots    []slotResult `json:"slots"`
	Missing  []string     `json:"missing"`
	Complete bool         `json:"complete"`
}

type submitResult struct {
	ID        string   `json:"id"`
	Percent   int      `json:"percent"`
	Label     string   `json:"label"`
	Source    string   `json:"source"`
	Tier      string   `json:"tier"`
	Diagnosis string   `json:"diagnosis"`
	Advice    []string `json:"advice,omitempty"`
	RecordID  int64    `json:"recordID,omitempty"`
	Saved     bool     `json:"saved"`
}

func mapInfo(info *session.Info) *sessionResult {
	res := &sessionResult{ID: info.ID, Slots: []slotResult{}, Missing: []string{}, Complete: info.Complete}
	for _, sl := range info.Slots {
		res.Slots = append(res.Slots, slotResult{Key: sl.Key.String(), State: sl.State.String(), DurationSec: sl.DurationSec})
	}
	for _, k := range info.Missing {
		res.Missing = append(res.Missing, k.String())
	}
	return res
}

func createSession(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("createSession method")()

		sess := data.Sessions.New()
		goapp.Log.Info().Str("ID", sess.ID).Msg("created session")
		return c.JSON(http.StatusOK, mapInfo(sess.Snapshot()))
	}
}

func getSession(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("getSession method")()

		sess, err := takeSession(c, data)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, mapInfo(sess.Snapshot()))
	}
}

func startRecording(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("startRecording method")()

		sess, err := takeSession(c, data)
		if err != nil {
			return err
		}
		key, err := takeKey(c)
		if err != nil {
			return err
		}
		if err := sess.StartRecording(key); err != nil {
			return mapSessionErr(err)
		}
		data.notify(sess)
		return c.JSON(http.StatusOK, mapInfo(sess.Snapshot()))
	}
}

func stopRecording(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("stopRecording method")()
		ctx := c.Request().Context()

		sess, err := takeSession(c, data)
		if err != nil {
			return err
		}
		key, err := takeKey(c)
		if err != nil {
			return err
		}
		file, header, err := takeFile(c)
		if err != nil {
			return err
		}
		defer file.Close()

		object, err := sess.ObjectName(key)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if err := data.Filer.SaveFile(ctx, object, file); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "can't save file")
		}
		if err := sess.StopRecording(key, object, header.Size); err != nil {
			return mapSessionErr(err)
		}
		data.notify(sess)
		return c.JSON(http.StatusOK, mapInfo(sess.Snapshot()))
	}
}

func deleteSlot(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("deleteSlot method")()
		ctx := c.Request().Context()

		sess, err := takeSession(c, data)
		if err != nil {
			return err
		}
		key, err := takeKey(c)
		if err != nil {
			return err
		}
		object, err := sess.DeleteSlot(key)
		if err != nil {
			return mapSessionErr(err)
		}
		if object != "" {
			if err := data.Filer.Clean(ctx, object); err != nil {
				goapp.Log.Error().Err(err).Send()
			}
		}
		data.notify(sess)
		return c.JSON(http.StatusOK, mapInfo(sess.Snapshot()))
	}
}

func submit(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("submit method")()
		ctx := c.Request().Context()

		sess, err := takeSession(c, data)
		if err != nil {
			return err
		}
		email, err := data.Identity.FromRequest(c.Request())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusUnauthorized, "wrong token")
		}
		if err := sess.BeginSubmit(); err != nil {
			return mapSessionErr(err)
		}
		defer sess.EndSubmit()

		objects, err := sess.Objects()
		if err != nil {
			return mapSessionErr(err)
		}
		clips, closeF, err := loadClips(ctx, data.Filer, objects)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			if isNotFound(err) {
				return echo.NewHTTPError(http.StatusGone, "audio is gone")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "can't load audio")
		}
		defer closeF()

		scRes, err := data.Scoring.Do(ctx, clips)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadGateway, "can't score audio")
		}
		clRes := classify.Do(scRes.Percent)

		res := &submitResult{ID: sess.ID, Percent: scRes.Percent, Label: scRes.Label,
			Source: api.SourceFresh, Tier: clRes.Tier.String(), Diagnosis: clRes.Diagnosis, Advice: clRes.Advice}
		rec, err := data.Persister.Persist(ctx, scRes, email, true)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
		}
		if rec != nil {
			res.RecordID = rec.ID
			res.Saved = true
		}
		goapp.Log.Info().Str("ID", sess.ID).Int("percent", res.Percent).Bool("saved", res.Saved).Msg("scored session")
		return c.JSON(http.StatusOK, res)
	}
}

func isNotFound(err error) bool {
	var errTest minio.ErrorResponse
	return errors.As(err, &errTest) && errTest.StatusCode == http.StatusNotFound
}

func loadClips(ctx context.Context, filer Filer, objects map[api.Key]string) (map[api.Key]io.Reader, func(), error) {
	res := make(map[api.Key]io.Reader, len(objects))
	files := make([]io.Closer, 0, len(objects))
	closeF := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for k, object := range objects {
		file, err := filer.LoadFile(ctx, object)
		if err != nil {
			closeF()
			return nil, nil, fmt.Errorf("can't load %s: %w", object, err)
		}
		files = append(files, file)
		res[k] = file
	}
	return res, closeF, nil
}

func takeSession(c echo.Context, data *Data) (*session.Session, error) {
	id := c.Param("id")
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "no ID")
	}
	sess, err := data.Sessions.Get(id)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return sess, nil
}

func takeKey(c echo.Context) (api.Key, error) {
	key := api.Key(c.Param("key"))
	if !api.IsRequired(key) {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("wrong key '%s'", c.Param("key")))
	}
	return key, nil
}

func takeFile(c echo.Context) (io.ReadCloser, *multipartHeader, error) {
	fileHeader, err := c.FormFile(api.PrmFile)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "no file")
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !utils.SupportAudioExt(ext) {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("wrong audio type '%s'", ext))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "can't read file")
	}
	return file, &multipartHeader{Name: fileHeader.Filename, Size: fileHeader.Size}, nil
}

type multipartHeader struct {
	Name string
	Size int64
}

func mapSessionErr(err error) error {
	var incErr *session.ErrIncomplete
	switch {
	case errors.Is(err, session.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrWrongKey):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrDeviceBusy), errors.Is(err, session.ErrSubmitInFlight),
		errors.Is(err, session.ErrNotRecording):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &incErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	goapp.Log.Error().Err(err).Send()
	return echo.NewHTTPError(http.StatusInternalServerError)
}

func (data *Data) notify(sess *session.Session) {
	conns, found := data.WSHandler.GetConnections(sess.ID)
	if !found {
		return
	}
	info := mapInfo(sess.Snapshot())
	for _, conn := range conns {
		if err := conn.WriteJSON(info); err != nil {
			goapp.Log.Error().Err(err).Msg("can't push state")
		}
	}
}
