package opts

// FieldDescriptor is the flattened, serialisable view of a Descriptor.
type FieldDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Key         string `json:"key"`
	Store       string `json:"store,omitempty"`
	Default     any    `json:"default,omitempty"`
	EnabledWhen string `json:"enabled_when,omitempty"`
	Label       string `json:"label,omitempty"`
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(catalog *Catalog) (SchemaDocument, error) {
	fields := []FieldDescriptor{}
	if catalog != nil {
		for _, d := range catalog.Descriptors() {
			fields = append(fields, FieldDescriptor{
				Name:        d.Name,
				Type:        d.Kind.String(),
				Key:         d.Key,
				Store:       d.Store,
				Default:     d.Default,
				EnabledWhen: d.EnabledWhen,
				Label:       d.Label,
			})
		}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: fields,
	}, nil
}

// Schema describes the catalog with gen, or with the descriptor generator when
// gen is nil.
func (c *Catalog) Schema(gen SchemaGenerator) (SchemaDocument, error) {
	if gen == nil {
		gen = DefaultSchemaGenerator()
	}
	return gen.Generate(c)
}
