package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
)

var (
	// ErrUnavailable indicates a failed call to the prediction service
	ErrUnavailable = errors.New("scorer unavailable")
	// ErrBadResponse indicates a malformed scorer payload
	ErrBadResponse = errors.New("wrong scorer response")
)

// Client communicates with the prediction service
type Client struct {
	httpclient *http.Client
	predictURL string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates a scorer client
func NewClient(predictURL string) (*Client, error) {
	res := Client{}
	if predictURL == "" {
		return nil, fmt.Errorf("no predictURL")
	}
	res.predictURL = predictURL
	res.timeout = time.Second * 30
	res.httpclient = predictHTTPClient()
	res.backoff = newSimpleBackoff
	return &res, nil
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
	Percent     *float64 `json:"percent"`
}

// Score sends one audio clip and returns a probability in [0, 1]
func (sp *Client) Score(ctx context.Context, key api.Key, audio io.Reader) (float64, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(api.PrmFile, key.FileName())
	if err != nil {
		return 0, fmt.Errorf("can't add file to request: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return 0, fmt.Errorf("can't add file content to request: %w", err)
	}
	writer.Close()

	return goapp.InvokeWithBackoff(ctx, func() (float64, bool, error) {
		req, err := http.NewRequest(http.MethodPost, sp.predictURL, bytes.NewReader(body.Bytes()))
		if err != nil {
			return 0, false, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())

		ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
		defer cancelF()
		req = req.WithContext(ctx)
		goapp.Log.Debug().Str("url", req.URL.String()).Str("key", key.String()).Msg("call")
		resp, err := sp.httpclient.Do(req)
		if err != nil {
			return 0, goapp.IsRetryableErr(err), fmt.Errorf("%w: can't call: %v", ErrUnavailable, err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("%w: can't invoke '%s': %v", ErrUnavailable, req.URL.String(), err)
			return 0, goapp.IsRetryableCode(resp.StatusCode), err
		}
		br, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, goapp.IsRetryableErr(err), fmt.Errorf("%w: can't read body: %v", ErrUnavailable, err)
		}
		var respData predictResponse
		if err := json.Unmarshal(br, &respData); err != nil {
			return 0, false, fmt.Errorf("%w: can't decode: %v", ErrBadResponse, err)
		}
		res, err := extractProbability(&respData)
		if err != nil {
			return 0, false, err
		}
		return res, false, nil
	}, sp.backoff())
}

func extractProbability(data *predictResponse) (float64, error) {
	var res float64
	switch {
	case data.Probability != nil:
		res = *data.Probability
	case data.Percent != nil:
		res = *data.Percent / 100
	default:
		return 0, fmt.Errorf("%w: no probability field", ErrBadResponse)
	}
	if math.IsNaN(res) || res < 0 || res > 1 {
		return 0, fmt.Errorf("%w: probability %f not in [0, 1]", ErrBadResponse, res)
	}
	return res, nil
}

func predictHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	// default roundripper is not well suited for our case
	// it has just 2 idle connections per host, so try to tune a bit
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
