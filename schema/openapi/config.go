package openapi

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	component      string
	path           string
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.1.0",
		info: openapiInfo{
			Title:   "Workspace Switcher Options",
			Version: "1.0.0",
		},
		component: "Options",
		path:      "/options",
	}
}

// GeneratorOption configures the OpenAPI generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.1.0).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version == "" {
			return
		}
		cfg.openAPIVersion = version
	}
}

// InfoOption configures optional fields on the OpenAPI info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the optional description field for the info section.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo configures the info block. Empty strings retain the existing values.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// WithComponent names the component schema the catalog is published as
// (default: Options).
func WithComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if name != "" {
			cfg.component = name
		}
	}
}

// WithPath sets the path whose GET and PUT operations reference the
// component (default: /options).
func WithPath(path string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path != "" {
			cfg.path = path
		}
	}
}
