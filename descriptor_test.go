package opts

import (
	"errors"
	"slices"
	"testing"
)

func TestNewCatalogValidatesDescriptors(t *testing.T) {
	cases := []struct {
		name string
		in   []Descriptor
	}{
		{name: "empty name", in: []Descriptor{{Kind: KindBool, Key: "a"}}},
		{name: "no kind", in: []Descriptor{{Name: "a", Key: "a"}}},
		{name: "no key", in: []Descriptor{{Name: "a", Kind: KindBool}}},
		{name: "duplicate", in: []Descriptor{{Name: "a", Kind: KindBool, Key: "a"}, {Name: "a", Kind: KindInt, Key: "b"}}},
		{name: "bad default", in: []Descriptor{{Name: "a", Kind: KindInt, Key: "a", Default: "four"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCatalog(tc.in...); err == nil {
				t.Fatalf("expected %s to be rejected", tc.name)
			}
		})
	}
}

func TestDefaultCatalogShape(t *testing.T) {
	catalog := DefaultCatalog()

	if !slices.Equal(catalog.Selectors(), []string{DefaultStore, SchemaWMPreferences, SchemaMutter}) {
		t.Fatalf("unexpected selectors %v", catalog.Selectors())
	}
	names := catalog.Names()
	if names[0] != "wsSwitchPopup" || names[len(names)-1] != ProfileNameOption(MaxProfiles) {
		t.Fatalf("expected registration order kept, got %s..%s", names[0], names[len(names)-1])
	}

	d, err := catalog.Lookup(OptionWorkspaceNames)
	if err != nil || d.Kind != KindStringList || d.Store != SchemaWMPreferences {
		t.Fatalf("unexpected descriptor %+v, %v", d, err)
	}
	if _, err := catalog.Lookup("missing"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}

	keys := map[string]string{}
	for _, d := range catalog.Descriptors() {
		k := d.Store + "/" + d.Key
		if other, ok := keys[k]; ok {
			t.Fatalf("%s and %s share backing key %s", other, d.Name, k)
		}
		keys[k] = d.Name
	}
}

func TestSchemaDefaultsIncludeProfileSlots(t *testing.T) {
	catalog := DefaultCatalog()
	ext := catalog.SchemaDefaults(DefaultStore)
	for i := 1; i <= MaxProfiles; i++ {
		if _, ok := ext[profileDataKey(i)]; !ok {
			t.Fatalf("expected profile slot %d declared", i)
		}
	}
	wm := catalog.SchemaDefaults(SchemaWMPreferences)
	if len(wm) != 2 || wm["num-workspaces"] != 4 {
		t.Fatalf("unexpected wm defaults %v", wm)
	}
	if _, ok := wm[profileDataKey(1)]; ok {
		t.Fatalf("expected profile slots only on the extension store")
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"boolean": KindBool, "b": KindBool,
		"int": KindInt, "i": KindInt,
		"string": KindString, "s": KindString,
		"string-list": KindStringList, "as": KindStringList,
		"double": KindUnknown,
	}
	for text, want := range cases {
		if got := ParseKind(text); got != want {
			t.Fatalf("ParseKind(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestCatalogSchemaDescriptors(t *testing.T) {
	doc, err := DefaultCatalog().Schema(nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if doc.Format != SchemaFormatDescriptors {
		t.Fatalf("expected descriptor format, got %s", doc.Format)
	}
	fields, ok := doc.Document.([]FieldDescriptor)
	if !ok {
		t.Fatalf("expected field descriptors, got %T", doc.Document)
	}
	var found bool
	for _, field := range fields {
		if field.Name == OptionNumWorkspaces {
			found = true
			if field.Type != "integer" || field.EnabledWhen != "!dynamicWorkspaces" || field.Store != SchemaWMPreferences {
				t.Fatalf("unexpected field %+v", field)
			}
		}
	}
	if !found {
		t.Fatalf("expected %s in schema", OptionNumWorkspaces)
	}

	empty, _ := DefaultSchemaGenerator().Generate(nil)
	if list, _ := empty.Document.([]FieldDescriptor); len(list) != 0 {
		t.Fatalf("expected empty schema for nil catalog")
	}
}
