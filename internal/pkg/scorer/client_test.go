package scorer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
	"github.com/sixtyscan/voiceapi/internal/pkg/test"
)

type testResp struct {
	code int
	resp string
}

type testReq struct {
	body string
	URL  string
}

func initTestServer(t *testing.T, resp testResp) (*Client, *[]testReq) {
	t.Helper()
	resRequest := make([]testReq, 0)
	rLock := &sync.Mutex{}
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rLock.Lock()
		defer rLock.Unlock()
		_ = req.ParseMultipartForm(1 << 20)
		b := ""
		if f, h, err := req.FormFile(api.PrmFile); err == nil {
			b = h.Filename
			_ = f.Close()
		}
		resRequest = append(resRequest, testReq{URL: req.URL.String(), body: b})
		rw.WriteHeader(resp.code)
		_, _ = rw.Write([]byte(resp.resp))
	}))
	cl := Client{}
	cl.httpclient = server.Client()
	cl.predictURL = server.URL + "/predict"
	cl.timeout = time.Second
	cl.backoff = func() backoff.BackOff {
		return &backoff.StopBackOff{}
	}
	t.Cleanup(func() { server.Close() })
	return &cl, &resRequest
}

func TestScore(t *testing.T) {
	cl, req := initTestServer(t, testResp{code: 200, resp: `{"probability":0.65}`})
	v, err := cl.Score(test.Ctx(t), api.KeyAa, strings.NewReader("audio"))
	require.Nil(t, err)
	assert.InDelta(t, 0.65, v, 0.0001)
	require.Equal(t, 1, len(*req))
	assert.Equal(t, "aa.webm", (*req)[0].body)
	assert.Equal(t, "/predict", (*req)[0].URL)
}

func TestScore_Percent(t *testing.T) {
	cl, _ := initTestServer(t, testResp{code: 200, resp: `{"percent":65}`})
	v, err := cl.Score(test.Ctx(t), api.KeyPataka, strings.NewReader("audio"))
	require.Nil(t, err)
	assert.InDelta(t, 0.65, v, 0.0001)
}

func TestScore_PrefersProbability(t *testing.T) {
	cl, _ := initTestServer(t, testResp{code: 200, resp: `{"probability":0.2,"percent":65}`})
	v, err := cl.Score(test.Ctx(t), api.KeyAa, strings.NewReader("audio"))
	require.Nil(t, err)
	assert.InDelta(t, 0.2, v, 0.0001)
}

func TestScore_Fails(t *testing.T) {
	tests := []struct {
		name    string
		resp    testResp
		wantErr error
	}{
		{name: "Code", resp: testResp{code: 500, resp: "olia"}, wantErr: ErrUnavailable},
		{name: "No JSON", resp: testResp{code: 200, resp: "olia"}, wantErr: ErrBadResponse},
		{name: "No field", resp: testResp{code: 200, resp: `{"other":1}`}, wantErr: ErrBadResponse},
		{name: "Negative", resp: testResp{code: 200, resp: `{"probability":-0.1}`}, wantErr: ErrBadResponse},
		{name: "Above one", resp: testResp{code: 200, resp: `{"probability":1.1}`}, wantErr: ErrBadResponse},
		{name: "Percent above", resp: testResp{code: 200, resp: `{"percent":150}`}, wantErr: ErrBadResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, _ := initTestServer(t, tt.resp)
			_, err := cl.Score(test.Ctx(t), api.KeyAa, strings.NewReader("audio"))
			require.NotNil(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewClient(t *testing.T) {
	cl, err := NewClient("http://local:8000/predict")
	require.Nil(t, err)
	assert.NotNil(t, cl)
	_, err = NewClient("")
	assert.NotNil(t, err)
}
