package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type testData struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestJSONWriter_Write(t *testing.T) {
	data := testData{Name: "test", Value: 42}

	t.Run("compact output", func(t *testing.T) {
		w := NewJSONWriter[testData]()
		var buf bytes.Buffer
		if err := w.Write(data, &buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		expected := `{"name":"test","value":42}` + "\n"
		if buf.String() != expected {
			t.Errorf("got %q, want %q", buf.String(), expected)
		}
	})

	t.Run("pretty output", func(t *testing.T) {
		w := NewPrettyJSONWriter[testData]()
		var buf bytes.Buffer
		if err := w.Write(data, &buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		var decoded testData
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode output: %v", err)
		}
		if decoded != data {
			t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
		}
		if !bytes.Contains(buf.Bytes(), []byte("\n  \"name\"")) {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})
}

func TestYAMLWriter_Write(t *testing.T) {
	w := NewYAMLWriter[testData]()
	var buf bytes.Buffer
	if err := w.Write(testData{Name: "test", Value: 42}, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "name: test\nvalue: 42\n"
	if buf.String() != expected {
		t.Errorf("got %q, want %q", buf.String(), expected)
	}
}

func TestWriter_WriteToFile(t *testing.T) {
	data := testData{Name: "file", Value: 7}

	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			w, err := New[testData](format)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			path := filepath.Join(t.TempDir(), "summary"+w.Extension())
			if err := w.WriteToFile(data, path); err != nil {
				t.Fatalf("WriteToFile failed: %v", err)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read file: %v", err)
			}

			var decoded testData
			if format == FormatJSON {
				err = json.Unmarshal(content, &decoded)
			} else {
				err = yaml.Unmarshal(content, &decoded)
			}
			if err != nil {
				t.Fatalf("Failed to decode file: %v", err)
			}
			if decoded != data {
				t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
			}
		})
	}
}

func TestWriter_WriteToFile_BadPath(t *testing.T) {
	w := NewJSONWriter[testData]()
	err := w.WriteToFile(testData{}, filepath.Join(t.TempDir(), "missing", "summary.json"))
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		ext     string
		wantErr bool
	}{
		{"", ".json", false},
		{"json", ".json", false},
		{"yaml", ".yaml", false},
		{"yml", ".yaml", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := New[testData](tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if w.Extension() != tt.ext {
				t.Errorf("got extension %q, want %q", w.Extension(), tt.ext)
			}
		})
	}
}
