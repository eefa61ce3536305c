package platform

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// embeddedSpec is the API description the client was written against.
//
//go:embed openapi.yaml
var embeddedSpec []byte

// Finding is an endpoint the client calls that the API document lacks.
type Finding struct {
	Code     string
	Method   string
	Path     string
	Message  string
	Location string
}

// ContractValidator checks the client's endpoints against an OpenAPI
// document.
type ContractValidator struct {
	spec   *openapi3.T
	source string
}

// LoadContract loads and validates an OpenAPI document from path. An empty
// path selects the embedded document.
func LoadContract(ctx context.Context, path string) (*ContractValidator, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	var (
		doc    *openapi3.T
		err    error
		source = path
	)
	if path == "" {
		source = "embedded:openapi.yaml"
		doc, err = loader.LoadFromData(embeddedSpec)
	} else {
		doc, err = loader.LoadFromFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to load OpenAPI document", err).
			WithSuggestion("Check that the file exists and is valid YAML or JSON")
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid OpenAPI document", err)
	}

	return &ContractValidator{spec: doc, source: source}, nil
}

// Source names where the document came from.
func (v *ContractValidator) Source() string {
	return v.source
}

// Check reports every endpoint in endpoints missing from the document.
func (v *ContractValidator) Check(endpoints []Endpoint) []Finding {
	var findings []Finding

	for _, ep := range endpoints {
		method := strings.ToUpper(ep.Method)

		pathItem := v.findPath(ep.Path)
		if pathItem == nil {
			findings = append(findings, Finding{
				Code:     "MISSING_API_PATH",
				Method:   method,
				Path:     ep.Path,
				Message:  fmt.Sprintf("API path not found in OpenAPI document: %s %s", method, ep.Path),
				Location: v.source,
			})
			continue
		}

		if pathItem.GetOperation(method) == nil {
			findings = append(findings, Finding{
				Code:     "MISSING_API_METHOD",
				Method:   method,
				Path:     ep.Path,
				Message:  fmt.Sprintf("API method not found in OpenAPI document: %s %s", method, ep.Path),
				Location: v.source,
			})
		}
	}

	return findings
}

// Summary returns the methods of every path in the document, sorted.
func (v *ContractValidator) Summary() map[string][]string {
	summary := make(map[string][]string)
	if v.spec.Paths == nil {
		return summary
	}
	for path, item := range v.spec.Paths.Map() {
		var methods []string
		for method := range item.Operations() {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		if len(methods) > 0 {
			summary[path] = methods
		}
	}
	return summary
}

// findPath matches path against the document, treating any {param}
// segment on either side as a wildcard.
func (v *ContractValidator) findPath(path string) *openapi3.PathItem {
	if v.spec.Paths == nil {
		return nil
	}
	if item := v.spec.Paths.Find(path); item != nil {
		return item
	}

	want := strings.Split(strings.Trim(path, "/"), "/")
	for specPath, item := range v.spec.Paths.Map() {
		have := strings.Split(strings.Trim(specPath, "/"), "/")
		if len(have) != len(want) {
			continue
		}
		match := true
		for i := range want {
			if isParam(want[i]) || isParam(have[i]) {
				continue
			}
			if want[i] != have[i] {
				match = false
				break
			}
		}
		if match {
			return item
		}
	}
	return nil
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}
