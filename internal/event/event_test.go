package event

import (
	"testing"
)

func TestNewSeedsDomainTag(t *testing.T) {
	evt := New("Spring Bazaar")

	if evt.Name != "Spring Bazaar" {
		t.Errorf("expected name 'Spring Bazaar', got %q", evt.Name)
	}
	if len(evt.Type) != 1 || evt.Type[0] != DomainTag {
		t.Errorf("expected type to be seeded with %q, got %v", DomainTag, evt.Type)
	}
	if !evt.StartDate.IsZero() || !evt.EndDate.IsZero() {
		t.Error("expected start and end dates to default to zero epoch")
	}
}

func TestAddType(t *testing.T) {
	tests := []struct {
		name     string
		add      []string
		expected []string
	}{
		{
			name:     "new tags are appended in order",
			add:      []string{"craft fair", "market"},
			expected: []string{DomainTag, "craft fair", "market"},
		},
		{
			name:     "duplicate tags are ignored",
			add:      []string{"craft fair", "craft fair", DomainTag},
			expected: []string{DomainTag, "craft fair"},
		},
		{
			name:     "empty tags are ignored",
			add:      []string{""},
			expected: []string{DomainTag},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := New("Night Market")
			for _, tag := range tt.add {
				evt.AddType(tag)
			}

			if len(evt.Type) != len(tt.expected) {
				t.Fatalf("expected %d tags, got %d: %v", len(tt.expected), len(evt.Type), evt.Type)
			}
			for i, tag := range tt.expected {
				if evt.Type[i] != tag {
					t.Errorf("expected tag %d to be %q, got %q", i, tag, evt.Type[i])
				}
			}
		})
	}
}

func TestPrimaryType(t *testing.T) {
	evt := New("Night Market")
	evt.AddType("holiday")

	if got := evt.PrimaryType(); got != DomainTag {
		t.Errorf("expected primary type %q, got %q", DomainTag, got)
	}

	empty := &Event{}
	if got := empty.PrimaryType(); got != "" {
		t.Errorf("expected empty primary type for event without tags, got %q", got)
	}
}

func TestRawMerge(t *testing.T) {
	list := Raw{
		FieldName:  "Winter Fair",
		FieldImage: "https://example.com/list.jpg",
	}
	detail := Raw{
		FieldImage:       "https://example.com/detail.jpg",
		FieldDescription: "A seasonal market.",
	}

	list.Merge(detail)

	if list[FieldImage] != "https://example.com/list.jpg" {
		t.Errorf("merge must not overwrite populated fields, got %q", list[FieldImage])
	}
	if list[FieldDescription] != "A seasonal market." {
		t.Errorf("merge should fill absent fields, got %q", list[FieldDescription])
	}
}
