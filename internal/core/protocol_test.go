package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stepgen/pkg/domain"
)

func simulateProtocol(t *testing.T, protocol domain.ProtocolFile) Timeline {
	t.Helper()
	initial, err := protocol.StartingState()
	if err != nil {
		t.Fatalf("starting state: %v", err)
	}
	steps := NewDefaultStepRegistry().BuildAll(protocol.Steps)
	return CommandCreatorsTimeline(steps, protocol.InvariantContext, initial, TimelineOptions{})
}

func TestLoadProtocolFileFormatsAgree(t *testing.T) {
	fromJSON, err := LoadProtocolFile(filepath.Join("testdata", "simple_transfer.json"))
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	fromYAML, err := LoadProtocolFile(filepath.Join("testdata", "simple_transfer.yaml"))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if fromJSON.Protocol.Name != "simple transfer" || fromYAML.Protocol.Author != "bench team" {
		t.Fatalf("unexpected metadata: %+v / %+v", fromJSON.Protocol, fromYAML.Protocol)
	}
	if diff := cmp.Diff(fromJSON.Protocol.InvariantContext, fromYAML.Protocol.InvariantContext); diff != "" {
		t.Fatalf("invariant context differs (-json +yaml):\n%s", diff)
	}
	if diff := cmp.Diff(fromJSON.Protocol.DeckSetup, fromYAML.Protocol.DeckSetup); diff != "" {
		t.Fatalf("deck setup differs (-json +yaml):\n%s", diff)
	}
	if fromJSON.ContentHash == fromYAML.ContentHash {
		t.Fatalf("different sources should hash differently")
	}

	jsonTimeline := simulateProtocol(t, fromJSON.Protocol)
	yamlTimeline := simulateProtocol(t, fromYAML.Protocol)
	if !jsonTimeline.OK() {
		t.Fatalf("unexpected errors: %+v", jsonTimeline.Errors)
	}
	want := []domain.CommandType{pickUp, aspirate, dispense, dropTip}
	if diff := cmp.Diff(want, commandTypes(jsonTimeline.Commands(false))); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(jsonTimeline.Commands(false), yamlTimeline.Commands(false)); diff != "" {
		t.Fatalf("formats simulate differently (-json +yaml):\n%s", diff)
	}
}

func TestFormatForPath(t *testing.T) {
	for path, want := range map[string]ProtocolFormat{
		"a.yaml":       FormatYAML,
		"dir/b.YML":    FormatYAML,
		"c.json":       FormatJSON,
		"no-extension": FormatJSON,
	} {
		if got := FormatForPath(path); got != want {
			t.Fatalf("FormatForPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestDecodeProtocol(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		format  ProtocolFormat
		wantErr string
	}{
		{name: "defaults schema version", data: `{"name":"x","invariantContext":{},"steps":[]}`, format: FormatJSON},
		{name: "unknown field", data: `{"name":"x","colour":"red"}`, format: FormatJSON, wantErr: "unknown field"},
		{name: "unsupported schema", data: `{"name":"x","schemaVersion":"stepgen/9"}`, format: FormatJSON, wantErr: "unsupported schema version"},
		{name: "bad yaml", data: "name: [unterminated", format: FormatYAML, wantErr: "decode yaml protocol"},
		{name: "yaml unknown field", data: "name: x\nextra: 1\n", format: FormatYAML, wantErr: "unknown field"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			protocol, err := DecodeProtocol([]byte(tc.data), tc.format)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if protocol.SchemaVersion != domain.ProtocolSchemaVersion {
				t.Fatalf("schema version = %q", protocol.SchemaVersion)
			}
		})
	}
}

func TestStartingStateRequiresDeck(t *testing.T) {
	_, err := domain.ProtocolFile{Name: "bare"}.StartingState()
	if err == nil || !strings.Contains(err.Error(), "bare") {
		t.Fatalf("expected error naming the protocol, got %v", err)
	}
}

func TestLoadProtocolFileErrors(t *testing.T) {
	if _, err := LoadProtocolFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"name":`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadProtocolFile(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming the file, got %v", err)
	}
}

func TestContentHash(t *testing.T) {
	h := ContentHash([]byte("protocol"))
	if len(h) != 64 || strings.Trim(h, "0123456789abcdef") != "" {
		t.Fatalf("unexpected hash %q", h)
	}
	if h != ContentHash([]byte("protocol")) || h == ContentHash([]byte("protocol2")) {
		t.Fatalf("hash must be deterministic and content sensitive")
	}
}
