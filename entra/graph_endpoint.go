package entra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
)

const (
	DefaultBaseUrl = "https://graph.microsoft.com/v1.0/"
	graphScope     = "https://graph.microsoft.com/.default"
	tokenUrlFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	pageSize       = 999
	// Graph returns at most 100 users per page when $expand is used, whatever $top says.
	maxPages       = 2000
)

var userFields = []string{
	"id", "givenName", "surname", "displayName", "jobTitle", "companyName", "department",
	"officeLocation", "mail", "userPrincipalName", "mobilePhone", "accountEnabled",
	"customSecurityAttributes",
}

type GraphParameters struct {
	TenantId       string
	ClientId       string
	ClientSecret   string
	BaseUrl        string
	EmployeeDomain string
	StudentDomain  string
}

// Directory reads users from Microsoft Graph.
type Directory struct {
	params   GraphParameters
	client   *http.Client
	metrics  metrics.Counter
	log      logrus.FieldLogger
	maxPages int
}

type Option func(*Directory)

// WithHTTPClient replaces the client credentials client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Directory) {
		d.client = client
	}
}

func WithMetrics(counter metrics.Counter) Option {
	return func(d *Directory) {
		d.metrics = counter
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Directory) {
		d.log = log
	}
}

// TokenUrl is the OAuth token endpoint of tenantId.
func TokenUrl(tenantId string) string {
	return fmt.Sprintf(tokenUrlFormat, tenantId)
}

// NewDirectory creates a Directory authenticating with the client credentials grant.
func NewDirectory(ctx context.Context, params GraphParameters, opts ...Option) *Directory {
	if len(params.BaseUrl) == 0 {
		params.BaseUrl = DefaultBaseUrl
	}
	var d = &Directory{
		params:   params,
		metrics:  metrics.Discard{},
		log:      logrus.StandardLogger(),
		maxPages: maxPages,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		var cc = &clientcredentials.Config{
			ClientID:     params.ClientId,
			ClientSecret: params.ClientSecret,
			TokenURL:     TokenUrl(params.TenantId),
			Scopes:       []string{graphScope},
		}
		d.client = cc.Client(ctx)
	}
	return d
}

func (d *Directory) Employees(ctx context.Context) ([]*User, error) {
	return d.users(ctx, d.params.EmployeeDomain, Employee)
}

func (d *Directory) Students(ctx context.Context) ([]*User, error) {
	return d.users(ctx, d.params.StudentDomain, Student)
}

type graphManager struct {
	Id string `json:"id"`
}

type graphUser struct {
	Id                       string                    `json:"id"`
	GivenName                *string                   `json:"givenName"`
	Surname                  *string                   `json:"surname"`
	DisplayName              *string                   `json:"displayName"`
	JobTitle                 *string                   `json:"jobTitle"`
	CompanyName              *string                   `json:"companyName"`
	Department               *string                   `json:"department"`
	OfficeLocation           *string                   `json:"officeLocation"`
	Mail                     *string                   `json:"mail"`
	UserPrincipalName        *string                   `json:"userPrincipalName"`
	MobilePhone              *string                   `json:"mobilePhone"`
	AccountEnabled           *bool                     `json:"accountEnabled"`
	Manager                  *graphManager             `json:"manager"`
	CustomSecurityAttributes map[string]map[string]any `json:"customSecurityAttributes"`
}

type graphPage struct {
	Value    []graphUser `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (gu *graphUser) toUser(kind Kind) *User {
	var u = &User{
		Id:                       gu.Id,
		GivenName:                value(gu.GivenName),
		Surname:                  value(gu.Surname),
		DisplayName:              value(gu.DisplayName),
		JobTitle:                 value(gu.JobTitle),
		CompanyName:              value(gu.CompanyName),
		Department:               value(gu.Department),
		OfficeLocation:           value(gu.OfficeLocation),
		Mail:                     value(gu.Mail),
		UserPrincipalName:        value(gu.UserPrincipalName),
		MobilePhone:              value(gu.MobilePhone),
		AccountEnabled:           gu.AccountEnabled != nil && *gu.AccountEnabled,
		Kind:                     kind,
		CustomSecurityAttributes: gu.CustomSecurityAttributes,
	}
	if gu.Manager != nil {
		u.ManagerId = gu.Manager.Id
	}
	return u
}

func (d *Directory) usersUrl(domain string) (result string, err error) {
	var uri *url.URL
	if uri, err = url.Parse(d.params.BaseUrl); err != nil {
		return
	}
	if !strings.HasSuffix(uri.Path, "/") {
		uri.Path += "/"
	}
	uri = uri.ResolveReference(&url.URL{Path: "users"})

	var query = url.Values{}
	query.Set("$filter", fmt.Sprintf("endsWith(userPrincipalName,'%s')", domain))
	query.Set("$expand", "manager($levels=1;$select=id)")
	query.Set("$count", "true")
	query.Set("$select", strings.Join(userFields, ","))
	query.Set("$top", fmt.Sprint(pageSize))
	uri.RawQuery = query.Encode()
	result = uri.String()
	return
}

func (d *Directory) getPage(ctx context.Context, pageUrl string) (page *graphPage, err error) {
	defer func() {
		d.metrics.Count("entra_get_request", "Microsoft Graph requests", err == nil)
	}()

	var rq *http.Request
	if rq, err = http.NewRequestWithContext(ctx, http.MethodGet, pageUrl, nil); err != nil {
		return
	}
	// advanced queries ($count, endsWith) require eventual consistency
	rq.Header.Set("ConsistencyLevel", "eventual")
	rq.Header.Set("Accept", "application/json")

	var rs *http.Response
	if rs, err = d.client.Do(rq); err != nil {
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
		err = fmt.Errorf("GET Graph users error: status code %d: %s", rs.StatusCode, strings.TrimSpace(string(body)))
		return
	}
	page = new(graphPage)
	err = json.Unmarshal(body, page)
	return
}

func (d *Directory) users(ctx context.Context, domain string, kind Kind) (result []*User, err error) {
	if len(domain) == 0 {
		err = fmt.Errorf("no user principal name domain configured for %s users", kind)
		return
	}
	var log = d.log.WithFields(logrus.Fields{"kind": kind.String(), "domain": domain})

	var next string
	if next, err = d.usersUrl(domain); err != nil {
		return
	}
	var attempt = 0
	for len(next) > 0 {
		attempt += 1
		if attempt > d.maxPages {
			err = fmt.Errorf("get Graph %s users canceled after %d pages", kind, d.maxPages)
			log.WithError(err).Error("Failed to fetch users from Entra ID")
			result = nil
			return
		}
		var page *graphPage
		if page, err = d.getPage(ctx, next); err != nil {
			log.WithError(err).Error("Failed to fetch users from Entra ID")
			result = nil
			return
		}
		for i := range page.Value {
			result = append(result, page.Value[i].toUser(kind))
		}
		next = page.NextLink
	}
	log.WithField("count", len(result)).Info("Fetched users from Entra ID")
	return
}
