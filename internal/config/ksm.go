package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	ksm "github.com/keeper-security/secrets-manager-go/core"
)

const (
	graphClientSecretLabel = "Graph Client Secret"
	fintClientSecretLabel  = "Fint Client Secret"
	fintPasswordLabel      = "Fint Password"
)

// secretRecord is the part of a Keeper record the overlay reads.
type secretRecord interface {
	Type() string
	GetFieldValueByType(fieldType string) string
	Password() string
	GetCustomFieldsByLabel(fieldLabel string) []map[string]interface{}
}

// LoadKeeperSecrets overlays cfg with the Pureservice record shared to the
// Keeper Secrets Manager application. It does nothing without ksm.config_base64.
func LoadKeeperSecrets(cfg *Config) (err error) {
	if len(cfg.Ksm.ConfigBase64) == 0 {
		return
	}

	var storage = ksm.NewMemoryKeyValueStorage(cfg.Ksm.ConfigBase64)
	var sm = ksm.NewSecretsManager(&ksm.ClientOptions{
		Config: storage,
	})

	var filter []string
	if len(cfg.Ksm.RecordUid) > 0 {
		filter = append(filter, cfg.Ksm.RecordUid)
	}

	var records []*ksm.Record
	if records, err = sm.GetSecrets(filter); err != nil {
		err = fmt.Errorf("keeper secrets manager: %w", err)
		return
	}
	var candidates = make([]secretRecord, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, r)
	}

	var record = findRecord(candidates, cfg.Pureservice.BaseUrl, len(cfg.Ksm.RecordUid) > 0)
	if record == nil {
		err = errors.New("Pureservice record was not found. Make sure the record is valid and shared to KSM application")
		return
	}
	applyRecord(cfg, record)
	return
}

// findRecord picks the first login record. Unless anyHost is set, the record URL
// must have the host of baseUrl.
func findRecord(records []secretRecord, baseUrl string, anyHost bool) secretRecord {
	var host string
	if uri, err := url.Parse(baseUrl); err == nil {
		host = uri.Host
	}
	for _, r := range records {
		if r.Type() != "login" {
			continue
		}
		if anyHost || len(host) == 0 {
			return r
		}
		var webUrl = r.GetFieldValueByType("url")
		if len(webUrl) == 0 {
			continue
		}
		var uri, err = url.Parse(webUrl)
		if err != nil {
			continue
		}
		if strings.EqualFold(uri.Host, host) {
			return r
		}
	}
	return nil
}

func applyRecord(cfg *Config, record secretRecord) {
	if webUrl := record.GetFieldValueByType("url"); len(webUrl) > 0 {
		cfg.Pureservice.BaseUrl = webUrl
	}
	if password := record.Password(); len(password) > 0 {
		cfg.Pureservice.ApiKey = password
	}
	if s := customField(record, graphClientSecretLabel); len(s) > 0 {
		cfg.Graph.ClientSecret = s
	}
	if s := customField(record, fintClientSecretLabel); len(s) > 0 {
		cfg.Fint.ClientSecret = s
	}
	if s := customField(record, fintPasswordLabel); len(s) > 0 {
		cfg.Fint.Password = s
	}
}

// customField returns the first value of the custom field labelled label.
func customField(record secretRecord, label string) string {
	var fields = record.GetCustomFieldsByLabel(label)
	if len(fields) == 0 {
		return ""
	}
	switch value := fields[0]["value"].(type) {
	case []any:
		if len(value) > 0 && value[0] != nil {
			if s, ok := value[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	case string:
		return strings.TrimSpace(value)
	}
	return ""
}
