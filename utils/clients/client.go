package clients

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"time"

	"github.com/gridwork/gridpay/middleware"
	"github.com/gridwork/gridpay/utils/closers"
	appctx "github.com/gridwork/gridpay/utils/context"
	"github.com/gridwork/gridpay/utils/requestutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// regular expression mapped to the replacement
var redactHeaders = map[*regexp.Regexp][]byte{
	regexp.MustCompile(`(?i)authorization: (?i)basic.+\n`):  []byte("Authorization: Basic <token>\n"),
	regexp.MustCompile(`(?i)authorization: (?i)bearer.+\n`): []byte("Authorization: Bearer <token>\n"),
	regexp.MustCompile(`(?i)payer_email=[^&\s]+`):           []byte("payer_email=<redacted>"),
	regexp.MustCompile(`(?i)receiver_email=[^&\s]+`):        []byte("receiver_email=<redacted>"),
}

// RedactSensitiveHeaders from http request dumps
func RedactSensitiveHeaders(corpus []byte) []byte {
	for k, v := range redactHeaders {
		corpus = k.ReplaceAll(corpus, v)
	}
	return corpus
}

var concurrentClientRequests = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "concurrent_client_requests",
		Help: "Gauge that holds the current number of client requests",
	},
	[]string{
		"host",
		"method",
	},
)

func init() {
	prometheus.MustRegister(concurrentClientRequests)
}

// SimpleHTTPClient wraps http.Client for making requests against the payment gateway
type SimpleHTTPClient struct {
	BaseURL *url.URL

	client *http.Client
}

// New returns a new SimpleHTTPClient
func New(serverURL string) (*SimpleHTTPClient, error) {
	return NewWithHTTPClient(serverURL, &http.Client{
		Timeout: time.Second * 10,
	})
}

// NewWithHTTPClient returns a new SimpleHTTPClient, using the provided http.Client
func NewWithHTTPClient(serverURL string, client *http.Client) (*SimpleHTTPClient, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}

	return &SimpleHTTPClient{
		BaseURL: baseURL,
		client:  client,
	}, nil
}

// NewInstrumented returns a new SimpleHTTPClient whose transport reports client metrics
func NewInstrumented(name string, serverURL string) (*SimpleHTTPClient, error) {
	return NewWithHTTPClient(serverURL, &http.Client{
		Timeout:   time.Second * 10,
		Transport: middleware.InstrumentRoundTripper(http.DefaultTransport, name),
	})
}

// NewRequest creates a request against the client base URL, with the passed raw body
func (c *SimpleHTTPClient) NewRequest(
	ctx context.Context,
	method,
	path string,
	body io.Reader,
	contentType string,
) (*http.Request, error) {
	resolvedURL := c.BaseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequest(method, resolvedURL.String(), body)
	if err != nil {
		var status int
		switch err.(type) {
		case url.EscapeError:
			status = http.StatusBadRequest
			err = NewHTTPError(err, resolvedURL.String(), ErrUnableToEscapeURL, status, nil)
		case url.InvalidHostError:
			status = http.StatusBadRequest
			err = NewHTTPError(err, resolvedURL.String(), ErrInvalidHost, status, nil)
		default:
			err = NewHTTPError(err, resolvedURL.String(), ErrMalformedRequest, http.StatusBadRequest, nil)
		}
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	requestutils.SetRequestID(ctx, req)
	return req, nil
}

// Do the specified http request, returning the raw response body
func (c *SimpleHTTPClient) Do(ctx context.Context, req *http.Request) ([]byte, *http.Response, error) {
	// concurrent client request instrumentation
	concurrentClientRequests.With(
		prometheus.Labels{
			"host": req.URL.Host, "method": req.Method,
		}).Inc()

	defer func() {
		concurrentClientRequests.With(
			prometheus.Labels{
				"host": req.URL.Host, "method": req.Method,
			}).Dec()
	}()

	logger := log.Ctx(ctx)
	debug, okDebug := ctx.Value(appctx.DebugLoggingCTXKey).(bool)

	if okDebug && debug {
		// dump out the full request, right before we submit it
		requestDump, err := httputil.DumpRequestOut(req, true)
		if err != nil {
			logger.Error().Err(err).Str("type", "http.Request").Msg("failed to dump request body")
		} else {
			logger.Debug().Str("type", "http.Request").Msg(string(RedactSensitiveHeaders(requestDump)))
		}
	}

	// put a timeout on the request context
	reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	scopedCtx := appctx.Wrap(req.Context(), reqCtx)
	// cancel the context when complete
	defer cancel()

	req = req.WithContext(scopedCtx)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, NewHTTPError(err, req.URL.String(), ErrProtocolError, 0, nil)
	}
	status := resp.StatusCode
	defer closers.Panic(ctx, resp.Body)

	if okDebug && debug {
		// if debug is set, then dump response
		dump, err := httputil.DumpResponse(resp, true)
		if err != nil {
			logger.Error().Err(err).Str("type", "http.Response").Msg("failed to dump response body")
		} else {
			logger.Debug().Str("type", "http.Response").Msg(string(dump))
		}
	}

	bodyBytes, _ := requestutils.Read(ctx, resp.Body)
	_ = resp.Body.Close() // must close
	resp.Body = ioutil.NopCloser(bytes.NewBuffer(bodyBytes))

	if status >= 200 && status <= 299 {
		return bodyBytes, resp, nil
	}

	logger.Warn().
		Int("response_status", status).
		Str("body", string(bodyBytes)). // add errored body into the messaging
		Msg("failed http client call")
	return bodyBytes, resp, NewHTTPError(nil, req.URL.String(), ErrProtocolError, status, string(bodyBytes))
}
