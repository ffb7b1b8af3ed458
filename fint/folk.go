package fint

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
)

type FolkParameters struct {
	BaseUrl      string
	TokenUrl     string
	ClientId     string
	ClientSecret string
	Scopes       []string
}

// FolkClient looks up students in the FintFolk REST API.
type FolkClient struct {
	baseUrl string
	client  *http.Client
	metrics metrics.Counter
	log     logrus.FieldLogger
}

func NewFolkClient(ctx context.Context, params FolkParameters, opts ...Option) *FolkClient {
	var o = applyOptions(opts)
	if o.client == nil {
		var cc = &clientcredentials.Config{
			ClientID:     params.ClientId,
			ClientSecret: params.ClientSecret,
			TokenURL:     params.TokenUrl,
			Scopes:       params.Scopes,
		}
		o.client = cc.Client(ctx)
	}
	return &FolkClient{
		baseUrl: params.BaseUrl,
		client:  o.client,
		metrics: o.metrics,
		log:     o.log,
	}
}

func (c *FolkClient) StudentMobilePhone(ctx context.Context, upn string) (phone string, err error) {
	defer func() {
		c.metrics.Count("fintfolk_student_lookup", "Student lookups in FintFolk", err == nil)
	}()

	var uri *url.URL
	if uri, err = url.Parse(c.baseUrl); err != nil {
		return
	}
	if !strings.HasSuffix(uri.Path, "/") {
		uri.Path += "/"
	}
	uri = uri.ResolveReference(&url.URL{Path: "student/upn/" + upn})
	uri.RawQuery = url.Values{"skipCache": []string{"true"}}.Encode()

	var rq *http.Request
	if rq, err = http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil); err != nil {
		return
	}
	rq.Header.Set("Accept", "application/json")

	var student map[string]any
	if student, err = executeRequest(c.client, rq); err != nil {
		c.log.WithError(err).WithField("userPrincipalName", upn).Error("FintFolk student lookup failed")
		return
	}
	phone, _ = firstString(student, []string{"kontaktMobiltelefonnummer"}, []string{"privatMobiltelefonnummer"})
	return
}
