// Package openapi publishes an option catalog as an OpenAPI document, for
// preference front-ends that build their forms from JSON Schema.
package openapi

import (
	"fmt"

	"github.com/invopop/jsonschema"

	opts "github.com/goliatone/go-wsoptions"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI schema generator.
func NewGenerator(options ...GeneratorOption) opts.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, option := range options {
		if option != nil {
			option(&cfg)
		}
	}
	return generator{config: cfg}
}

func (g generator) Generate(catalog *opts.Catalog) (opts.SchemaDocument, error) {
	schema, err := CatalogSchema(catalog)
	if err != nil {
		return opts.SchemaDocument{}, err
	}
	ref := fmt.Sprintf("#/components/schemas/%s", g.config.component)
	content := map[string]any{
		"application/json": map[string]any{
			"schema": map[string]any{"$ref": ref},
		},
	}
	info := map[string]any{
		"title":   g.config.info.Title,
		"version": g.config.info.Version,
	}
	if g.config.info.Description != "" {
		info["description"] = g.config.info.Description
	}
	document := map[string]any{
		"openapi": g.config.openAPIVersion,
		"info":    info,
		"paths": map[string]any{
			g.config.path: map[string]any{
				"get": map[string]any{
					"operationId": "getOptions",
					"responses": map[string]any{
						"200": map[string]any{"description": "Effective option values", "content": content},
					},
				},
				"put": map[string]any{
					"operationId": "setOptions",
					"requestBody": map[string]any{"content": content},
					"responses": map[string]any{
						"204": map[string]any{"description": "Buffered"},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{g.config.component: schema},
		},
	}
	return opts.SchemaDocument{
		Format:   opts.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

// CatalogSchema describes every option of catalog as a JSON Schema property,
// in catalog order. Backing locations and enablement rules travel as x-
// extensions.
func CatalogSchema(catalog *opts.Catalog) (*jsonschema.Schema, error) {
	root := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, d := range catalog.Descriptors() {
		property, err := propertySchema(d)
		if err != nil {
			return nil, err
		}
		root.Properties.Set(d.Name, property)
	}
	return root, nil
}

func propertySchema(d opts.Descriptor) (*jsonschema.Schema, error) {
	property := &jsonschema.Schema{
		Title:   d.Label,
		Default: d.Default,
		Extras: map[string]any{
			"x-key": d.Key,
		},
	}
	switch d.Kind {
	case opts.KindBool:
		property.Type = "boolean"
	case opts.KindInt:
		property.Type = "integer"
	case opts.KindString:
		property.Type = "string"
	case opts.KindStringList:
		property.Type = "array"
		property.Items = &jsonschema.Schema{Type: "string"}
	default:
		return nil, fmt.Errorf("openapi: option %q has unsupported kind %s", d.Name, d.Kind)
	}
	if d.Store != opts.DefaultStore {
		property.Extras["x-store"] = d.Store
	}
	if d.EnabledWhen != "" {
		property.Extras["x-enabled-when"] = d.EnabledWhen
	}
	return property, nil
}
