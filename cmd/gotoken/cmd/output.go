package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	infoFmt = color.New(color.FgYellow).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

// writeStructured renders data for json and yaml output. It reports false for
// text output, which each command prints itself.
func writeStructured(w io.Writer, format string, data interface{}) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(data)
	case outputYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprint(w, string(out))
		return true, err
	default:
		return false, nil
	}
}
