package resources

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlBundle struct {
	Bools   map[string]bool   `yaml:"bools"`
	Strings map[string]string `yaml:"strings"`
}

// LoadYAML reads a file of the form
//
//	bools:
//	  google_enabled: true
//	strings:
//	  google_client_id: "..."
func LoadYAML(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (*Bundle, error) {
	var doc yamlBundle
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	b := New()
	for k, v := range doc.Bools {
		b.SetBool(k, v)
	}
	for k, v := range doc.Strings {
		b.SetString(k, v)
	}
	return b, nil
}

type androidResources struct {
	Bools []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:",chardata"`
	} `xml:"bool"`
	Strings []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:",chardata"`
	} `xml:"string"`
}

// LoadAndroidXML reads an Android values file (<resources><bool/><string/></resources>).
func LoadAndroidXML(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	return ParseAndroidXML(data)
}

func ParseAndroidXML(data []byte) (*Bundle, error) {
	var doc androidResources
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	b := New()
	for _, e := range doc.Bools {
		v, err := strconv.ParseBool(strings.TrimSpace(e.Value))
		if err != nil {
			return nil, fmt.Errorf("bool %q: %w", e.Name, err)
		}
		b.SetBool(e.Name, v)
	}
	for _, e := range doc.Strings {
		b.SetString(e.Name, unescapeAndroid(strings.TrimSpace(e.Value)))
	}
	return b, nil
}

// Android string resources escape apostrophes and quotes with a backslash.
var androidEscapes = strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\n`, "\n", `\@`, `@`)

func unescapeAndroid(s string) string { return androidEscapes.Replace(s) }
