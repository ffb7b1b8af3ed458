package app

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vestfoldfylke/pureservice-sync/reconcile"
)

const (
	FormatText = "text"
	FormatJson = "json"
	FormatYaml = "yaml"
)

// PrintStatistics writes result in format text, json or yaml.
func PrintStatistics(w io.Writer, result *reconcile.Result, format string) (err error) {
	if result == nil {
		return
	}
	switch format {
	case FormatText, "":
		result.Print(w)
	case FormatJson:
		var encoder = json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(result)
	case FormatYaml:
		var encoder = yaml.NewEncoder(w)
		if err = encoder.Encode(result); err == nil {
			err = encoder.Close()
		}
	default:
		err = fmt.Errorf("unknown output format %q", format)
	}
	return
}
