package observe

import (
	"encoding/json"
	"testing"
)

func TestManifestDescriptors(t *testing.T) {
	type camera struct{ zoom float64 }
	exposure := New[camera]("exposure", 0.5).Doc("Exposure compensation in EV")
	zoom := NewAccessor[camera]("zoom", func(c *camera) any { return c.zoom })
	manifest := MustRegister(exposure, zoom)

	descriptors := manifest.Descriptors()
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].Name != "exposure" || descriptors[0].Type != "float64" || descriptors[0].ReadOnly {
		t.Fatalf("unexpected descriptor %+v", descriptors[0])
	}
	if descriptors[0].Doc == "" {
		t.Fatalf("expected doc carried through")
	}
	if !descriptors[1].ReadOnly || !descriptors[1].Accessor {
		t.Fatalf("expected zoom to be a read-only accessor, got %+v", descriptors[1])
	}

	doc := manifest.Document()
	if doc.Type == "" || len(doc.Properties) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}

	payload, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	var decoded DescriptorDocument
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Properties) != 2 {
		t.Fatalf("expected round-trippable document, got %+v", decoded)
	}
}
