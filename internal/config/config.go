package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const configFileEnv = "PURESERVICE_SYNC_CONFIG"

var ErrMissingSetting = errors.New("missing setting")

const (
	FintModeNone    = "none"
	FintModeGraphql = "graphql"
	FintModeFolk    = "folk"

	PolicySkip = "skip"
	PolicyWait = "wait"
)

type Config struct {
	Pureservice struct {
		BaseUrl              string `mapstructure:"base_url"`
		ApiKey               string `mapstructure:"api_key"`
		MaxRequestsPerMinute int    `mapstructure:"max_requests_per_minute"`
	} `mapstructure:"pureservice"`
	Graph struct {
		TenantId        string `mapstructure:"tenant_id"`
		ClientId        string `mapstructure:"client_id"`
		ClientSecret    string `mapstructure:"client_secret"`
		BaseUrl         string `mapstructure:"base_url"`
		EmployeeDomain  string `mapstructure:"employee_domain"`
		StudentDomain   string `mapstructure:"student_domain"`
		IncludeStudents bool   `mapstructure:"include_students"`
	} `mapstructure:"graph"`
	Fint struct {
		Mode            string `mapstructure:"mode"`
		BaseUrl         string `mapstructure:"base_url"`
		TokenUrl        string `mapstructure:"token_url"`
		ClientId        string `mapstructure:"client_id"`
		ClientSecret    string `mapstructure:"client_secret"`
		Username        string `mapstructure:"username"`
		Password        string `mapstructure:"password"`
		Scope           string `mapstructure:"scope"`
		FeideNameDomain string `mapstructure:"feide_name_domain"`
	} `mapstructure:"fint"`
	FintFolk struct {
		BaseUrl string   `mapstructure:"base_url"`
		Scopes  []string `mapstructure:"scopes"`
	} `mapstructure:"fintfolk"`
	Sync struct {
		MaxRunMinutes          int    `mapstructure:"max_run_minutes"`
		RateLimitPolicy        string `mapstructure:"rate_limit_policy"`
		CreateMissingCompanies bool   `mapstructure:"create_missing_companies"`
		RequireEmailAndCompany bool   `mapstructure:"require_email_and_company"`
	} `mapstructure:"sync"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Server struct {
		Address      string        `mapstructure:"address"`
		SyncInterval time.Duration `mapstructure:"sync_interval"`
	} `mapstructure:"server"`
	Metrics struct {
		Prefix string `mapstructure:"prefix"`
	} `mapstructure:"metrics"`
	Ksm struct {
		ConfigBase64 string `mapstructure:"config_base64"`
		RecordUid    string `mapstructure:"record_uid"`
	} `mapstructure:"ksm"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pureservice.max_requests_per_minute", 60)
	v.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0/")
	v.SetDefault("graph.employee_domain", "@vestfoldfylke.no")
	v.SetDefault("graph.student_domain", "@skole.vestfoldfylke.no")
	v.SetDefault("graph.include_students", false)
	v.SetDefault("fint.mode", FintModeNone)
	v.SetDefault("sync.max_run_minutes", 20)
	v.SetDefault("sync.rate_limit_policy", PolicySkip)
	v.SetDefault("sync.create_missing_companies", true)
	v.SetDefault("sync.require_email_and_company", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.sync_interval", "0s")
	v.SetDefault("metrics.prefix", "pureservice_sync")
}

func bindEnv(v *viper.Viper) {
	// names used by the earlier deployment of the service
	_ = v.BindEnv("pureservice.base_url", "PURESERVICE_BASE_URL", "Pureservice_BaseUrl")
	_ = v.BindEnv("pureservice.api_key", "PURESERVICE_API_KEY", "Pureservice_ApiKey")
	_ = v.BindEnv("pureservice.max_requests_per_minute", "PURESERVICE_MAX_REQUESTS_PER_MINUTE", "Pureservice_Max_Requests_Per_Minute")
	_ = v.BindEnv("fint.base_url", "FINT_BASE_URL", "Fint_BaseUrl")
	_ = v.BindEnv("fint.token_url", "FINT_TOKEN_URL", "Fint_Token_Url")
	_ = v.BindEnv("fint.client_id", "FINT_CLIENT_ID", "Fint_Client_Id")
	_ = v.BindEnv("fint.client_secret", "FINT_CLIENT_SECRET", "Fint_Client_Secret")
	_ = v.BindEnv("fint.username", "FINT_USERNAME", "Fint_Username")
	_ = v.BindEnv("fint.password", "FINT_PASSWORD", "Fint_Password")
	_ = v.BindEnv("fint.scope", "FINT_SCOPE", "Fint_Scope")
	_ = v.BindEnv("fint.feide_name_domain", "FINT_FEIDE_NAME_DOMAIN", "Feide_Name_Domain")
	_ = v.BindEnv("fintfolk.base_url", "FINTFOLK_BASE_URL", "FintFolk_BaseUrl")
	_ = v.BindEnv("fintfolk.scopes", "FINTFOLK_SCOPES", "FintFolk_Scopes")

	_ = v.BindEnv("graph.tenant_id", "GRAPH_TENANT_ID", "AZURE_TENANT_ID")
	_ = v.BindEnv("graph.client_id", "GRAPH_CLIENT_ID", "AZURE_CLIENT_ID")
	_ = v.BindEnv("graph.client_secret", "GRAPH_CLIENT_SECRET", "AZURE_CLIENT_SECRET")
	_ = v.BindEnv("fint.mode", "FINT_MODE")
	_ = v.BindEnv("ksm.config_base64", "KSM_CONFIG_BASE64")
	_ = v.BindEnv("ksm.record_uid", "KSM_RECORD_UID")
}

// Load reads the configuration from file, when given, and the environment.
// Without file the path in PURESERVICE_SYNC_CONFIG is used, if set.
func Load(file string) (cfg *Config, err error) {
	var v = viper.New()
	setDefaults(v)

	if len(file) == 0 {
		file = os.Getenv(configFileEnv)
	}
	if len(file) > 0 {
		v.SetConfigFile(file)
		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config %s: %w", file, err)
			return
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	cfg = new(Config)
	if err = v.Unmarshal(cfg); err != nil {
		cfg = nil
		err = fmt.Errorf("config: %w", err)
		return
	}
	cfg.Pureservice.BaseUrl = strings.TrimSpace(cfg.Pureservice.BaseUrl)
	cfg.Fint.Mode = strings.ToLower(strings.TrimSpace(cfg.Fint.Mode))
	cfg.Sync.RateLimitPolicy = strings.ToLower(strings.TrimSpace(cfg.Sync.RateLimitPolicy))
	return
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingSetting, key)
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	switch {
	case len(c.Pureservice.BaseUrl) == 0:
		return missing("pureservice.base_url")
	case len(c.Pureservice.ApiKey) == 0:
		return missing("pureservice.api_key")
	case c.Pureservice.MaxRequestsPerMinute <= 0:
		return fmt.Errorf("pureservice.max_requests_per_minute must be positive, got %d", c.Pureservice.MaxRequestsPerMinute)
	case len(c.Graph.TenantId) == 0:
		return missing("graph.tenant_id")
	case len(c.Graph.ClientId) == 0:
		return missing("graph.client_id")
	case len(c.Graph.ClientSecret) == 0:
		return missing("graph.client_secret")
	}

	switch c.Fint.Mode {
	case FintModeNone:
	case FintModeGraphql:
		if len(c.Fint.BaseUrl) == 0 {
			return missing("fint.base_url")
		}
		if len(c.Fint.TokenUrl) == 0 {
			return missing("fint.token_url")
		}
	case FintModeFolk:
		if len(c.FintFolk.BaseUrl) == 0 {
			return missing("fintfolk.base_url")
		}
	default:
		return fmt.Errorf("fint.mode %q is not one of none, graphql, folk", c.Fint.Mode)
	}

	if c.Sync.RateLimitPolicy != PolicySkip && c.Sync.RateLimitPolicy != PolicyWait {
		return fmt.Errorf("sync.rate_limit_policy %q is not one of skip, wait", c.Sync.RateLimitPolicy)
	}
	return nil
}

func (c *Config) MaxRunDuration() time.Duration {
	return time.Duration(c.Sync.MaxRunMinutes) * time.Minute
}
