// Package csp builds a Content-Security-Policy header from a policy
// document. The document uses the CSPBuilder layout: one key per fetch
// directive holding a source list, plus a few document-level switches.
package csp

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/errors"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	HeaderName           = "Content-Security-Policy"
	HeaderNameReportOnly = "Content-Security-Policy-Report-Only"
)

// directiveOrder is the emission order for source-list directives.
var directiveOrder = []string{
	"base-uri",
	"default-src",
	"child-src",
	"connect-src",
	"font-src",
	"form-action",
	"frame-ancestors",
	"frame-src",
	"img-src",
	"manifest-src",
	"media-src",
	"object-src",
	"prefetch-src",
	"script-src",
	"script-src-elem",
	"script-src-attr",
	"style-src",
	"style-src-elem",
	"style-src-attr",
	"worker-src",
}

// SourceList is the object form of a directive.
type SourceList struct {
	Self          bool     `mapstructure:"self"`
	None          bool     `mapstructure:"none"`
	Allow         []string `mapstructure:"allow"`
	Schemes       []string `mapstructure:"schemes"`
	UnsafeInline  bool     `mapstructure:"unsafe-inline"`
	UnsafeEval    bool     `mapstructure:"unsafe-eval"`
	StrictDynamic bool     `mapstructure:"strict-dynamic"`
	Data          bool     `mapstructure:"data"`
	Blob          bool     `mapstructure:"blob"`
	Hashes        []string `mapstructure:"hashes"`
	Nonces        []string `mapstructure:"nonces"`
}

// Policy is a parsed policy document.
type Policy struct {
	ReportOnly              bool
	ReportURI               string
	UpgradeInsecureRequests bool
	BlockAllMixedContent    bool
	PluginTypes             []string
	Sandbox                 []string
	SandboxEnabled          bool
	Directives              map[string]SourceList
}

// Load reads the policy document at path. JSON and YAML are accepted, by
// extension. Failures are configuration errors.
func Load(path string) (*Policy, error) {
	var parser koanf.Parser = json.Parser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, domainerrors.NewConfigurationError(errors.Wrapf(err, "could not read policy file %s", path), "security.cspPolicyPath")
	}

	policy, err := FromMap(k.Raw())
	if err != nil {
		return nil, domainerrors.NewConfigurationError(errors.Wrapf(err, "invalid policy file %s", path), "security.cspPolicyPath")
	}

	return policy, nil
}

// FromMap parses an already decoded policy document.
func FromMap(doc map[string]any) (*Policy, error) {
	policy := &Policy{Directives: make(map[string]SourceList)}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := doc[key]
		var err error
		switch key {
		case "report-only":
			err = decode(value, &policy.ReportOnly)
		case "report-uri":
			err = decode(value, &policy.ReportURI)
		case "upgrade-insecure-requests":
			err = decode(value, &policy.UpgradeInsecureRequests)
		case "block-all-mixed-content":
			err = decode(value, &policy.BlockAllMixedContent)
		case "plugin-types":
			err = decode(value, &policy.PluginTypes)
		case "sandbox":
			if enabled, ok := value.(bool); ok {
				policy.SandboxEnabled = enabled
			} else {
				policy.SandboxEnabled = true
				err = decode(value, &policy.Sandbox)
			}
		default:
			if !slices.Contains(directiveOrder, key) {
				return nil, errors.Errorf("unknown directive %q", key)
			}
			var list SourceList
			list, err = decodeSourceList(value)
			policy.Directives[key] = list
		}
		if err != nil {
			return nil, errors.Wrapf(err, "directive %q", key)
		}
	}

	return policy, nil
}

// Header returns the header name and value for the policy.
func (p *Policy) Header() (string, string) {
	name := HeaderName
	if p.ReportOnly {
		name = HeaderNameReportOnly
	}

	return name, p.String()
}

// String renders the policy value.
func (p *Policy) String() string {
	parts := make([]string, 0, len(p.Directives)+5)
	for _, directive := range directiveOrder {
		list, ok := p.Directives[directive]
		if !ok {
			continue
		}
		parts = append(parts, directive+" "+list.String())
	}

	if len(p.PluginTypes) > 0 {
		parts = append(parts, "plugin-types "+strings.Join(p.PluginTypes, " "))
	}
	if p.SandboxEnabled {
		parts = append(parts, strings.TrimSpace("sandbox "+strings.Join(p.Sandbox, " ")))
	}
	if p.ReportURI != "" {
		parts = append(parts, "report-uri "+p.ReportURI)
	}
	if p.UpgradeInsecureRequests {
		parts = append(parts, "upgrade-insecure-requests")
	}
	if p.BlockAllMixedContent {
		parts = append(parts, "block-all-mixed-content")
	}

	return strings.Join(parts, "; ")
}

// String renders the source expressions. An empty list renders 'none'.
func (s SourceList) String() string {
	if s.None {
		return "'none'"
	}

	var sources []string
	if s.Self {
		sources = append(sources, "'self'")
	}
	sources = append(sources, s.Allow...)
	for _, scheme := range s.Schemes {
		sources = append(sources, strings.TrimSuffix(scheme, ":")+":")
	}
	if s.Data {
		sources = append(sources, "data:")
	}
	if s.Blob {
		sources = append(sources, "blob:")
	}
	for _, hash := range s.Hashes {
		sources = append(sources, "'"+strings.Trim(hash, "'")+"'")
	}
	for _, nonce := range s.Nonces {
		sources = append(sources, "'nonce-"+nonce+"'")
	}
	if s.UnsafeInline {
		sources = append(sources, "'unsafe-inline'")
	}
	if s.UnsafeEval {
		sources = append(sources, "'unsafe-eval'")
	}
	if s.StrictDynamic {
		sources = append(sources, "'strict-dynamic'")
	}

	if len(sources) == 0 {
		return "'none'"
	}

	return strings.Join(sources, " ")
}

// decodeSourceList accepts either a plain list of sources or the object form.
func decodeSourceList(value any) (SourceList, error) {
	var list SourceList
	if items, ok := value.([]any); ok {
		return list, decode(items, &list.Allow)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &list,
		ErrorUnused: true,
	})
	if err != nil {
		return list, errors.Wrap(err, "mapstructure.NewDecoder")
	}

	return list, errors.WithStack(decoder.Decode(value))
}

func decode(value, out any) error {
	return errors.WithStack(mapstructure.Decode(value, out))
}
