package fint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
)

const graphqlPath = "graphql/graphql"

const studentQuery = `query ($feidenavn: String!) {
  elev(feidenavn: $feidenavn) {
    person {
      kontaktinformasjon {
        mobiltelefonnummer
      }
    }
    kontaktinformasjon {
      mobiltelefonnummer
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type Parameters struct {
	BaseUrl         string
	TokenUrl        string
	ClientId        string
	ClientSecret    string
	Username        string
	Password        string
	Scope           string
	FeideNameDomain string
}

// Client looks up students in the FINT GraphQL API.
type Client struct {
	params  Parameters
	client  *http.Client
	metrics metrics.Counter
	log     logrus.FieldLogger
}

type Option func(*options)

type options struct {
	client  *http.Client
	metrics metrics.Counter
	log     logrus.FieldLogger
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func WithMetrics(counter metrics.Counter) Option {
	return func(o *options) {
		o.metrics = counter
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

func applyOptions(opts []Option) *options {
	var o = &options{
		metrics: metrics.Discard{},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// passwordSource fetches a new token with the resource owner password grant.
type passwordSource struct {
	ctx      context.Context
	config   *oauth2.Config
	username string
	password string
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	return s.config.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

func NewClient(ctx context.Context, params Parameters, opts ...Option) *Client {
	var o = applyOptions(opts)
	if o.client == nil {
		var config = &oauth2.Config{
			ClientID:     params.ClientId,
			ClientSecret: params.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  params.TokenUrl,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
		if len(params.Scope) > 0 {
			config.Scopes = []string{params.Scope}
		}
		// tokens are cached until they expire
		var ts = oauth2.ReuseTokenSource(nil, &passwordSource{
			ctx:      ctx,
			config:   config,
			username: params.Username,
			password: params.Password,
		})
		o.client = oauth2.NewClient(ctx, ts)
	}
	return &Client{
		params:  params,
		client:  o.client,
		metrics: o.metrics,
		log:     o.log,
	}
}

func (c *Client) feideName(upn string) string {
	var local = upn
	if i := strings.IndexByte(upn, '@'); i >= 0 {
		local = upn[:i]
	}
	return local + c.params.FeideNameDomain
}

// StudentMobilePhone returns the mobile phone number registered on the
// student, preferring the school contact information. An empty string
// means the student has no number.
func (c *Client) StudentMobilePhone(ctx context.Context, upn string) (phone string, err error) {
	defer func() {
		c.metrics.Count("fint_student_lookup", "Student lookups in FINT", err == nil)
	}()

	var feideName = c.feideName(upn)
	var payload = graphqlRequest{
		Query:     studentQuery,
		Variables: map[string]any{"feidenavn": feideName},
	}
	var data []byte
	if data, err = json.Marshal(payload); err != nil {
		return
	}

	var uri *url.URL
	if uri, err = url.Parse(c.params.BaseUrl); err != nil {
		return
	}
	if !strings.HasSuffix(uri.Path, "/") {
		uri.Path += "/"
	}
	uri = uri.ResolveReference(&url.URL{Path: graphqlPath})

	var rq *http.Request
	if rq, err = http.NewRequestWithContext(ctx, http.MethodPost, uri.String(), bytes.NewReader(data)); err != nil {
		return
	}
	rq.Header.Set("Content-Type", "application/json")

	var response map[string]any
	if response, err = executeRequest(c.client, rq); err != nil {
		c.log.WithError(err).WithField("feidenavn", feideName).Error("FINT student lookup failed")
		return
	}
	if errs, ok := response["errors"].([]any); ok && len(errs) > 0 {
		var messages []string
		for _, e := range errs {
			if m, ok := lookup(e, "message"); ok {
				if s, ok := toString(m); ok {
					messages = append(messages, s)
				}
			}
		}
		err = fmt.Errorf("FINT GraphQL error: %s", strings.Join(messages, "; "))
		c.log.WithError(err).WithField("feidenavn", feideName).Error("FINT student lookup failed")
		return
	}

	phone, _ = firstString(response,
		[]string{"data", "elev", "kontaktinformasjon", "mobiltelefonnummer"},
		[]string{"data", "elev", "person", "kontaktinformasjon", "mobiltelefonnummer"},
	)
	return
}

func executeRequest(client *http.Client, rq *http.Request) (response map[string]any, err error) {
	var rs *http.Response
	if rs, err = client.Do(rq); err != nil {
		return
	}
	defer func() {
		_ = rs.Body.Close()
	}()
	var body []byte
	if body, err = io.ReadAll(rs.Body); err != nil {
		return
	}
	if rs.StatusCode >= 300 {
		err = fmt.Errorf("%s \"%s\" error: status code %d", rq.Method, rq.URL.Path, rs.StatusCode)
		return
	}
	if len(body) > 0 {
		err = json.Unmarshal(body, &response)
	}
	return
}
