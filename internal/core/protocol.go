package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stepgen/pkg/domain"
)

// ProtocolFormat identifies the encoding of a protocol document.
type ProtocolFormat string

// Supported protocol encodings.
const (
	FormatJSON ProtocolFormat = "json"
	FormatYAML ProtocolFormat = "yaml"
)

// FormatForPath picks a format from the file extension, defaulting to JSON.
func FormatForPath(path string) ProtocolFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadedProtocol is a decoded protocol together with the hash of its source.
type LoadedProtocol struct {
	Protocol    domain.ProtocolFile
	ContentHash string
}

// LoadProtocolFile reads and decodes the protocol at path.
func LoadProtocolFile(path string) (LoadedProtocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedProtocol{}, fmt.Errorf("read protocol: %w", err)
	}
	protocol, err := DecodeProtocol(data, FormatForPath(path))
	if err != nil {
		return LoadedProtocol{}, fmt.Errorf("%s: %w", path, err)
	}
	return LoadedProtocol{Protocol: protocol, ContentHash: ContentHash(data)}, nil
}

// DecodeProtocol parses a protocol document. YAML documents are converted to
// JSON first so both encodings share the same field names.
func DecodeProtocol(data []byte, format ProtocolFormat) (domain.ProtocolFile, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return domain.ProtocolFile{}, err
		}
		data = converted
	}
	var protocol domain.ProtocolFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&protocol); err != nil {
		return domain.ProtocolFile{}, fmt.Errorf("decode protocol: %w", err)
	}
	if protocol.SchemaVersion == "" {
		protocol.SchemaVersion = domain.ProtocolSchemaVersion
	}
	if protocol.SchemaVersion != domain.ProtocolSchemaVersion {
		return domain.ProtocolFile{}, fmt.Errorf("unsupported schema version %q", protocol.SchemaVersion)
	}
	return protocol, nil
}

// ContentHash fingerprints protocol source bytes for history lookups.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml protocol: %w", err)
	}
	normalized, err := normalizeYAML(doc)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("convert yaml protocol: %w", err)
	}
	return out, nil
}

// normalizeYAML rewrites maps with non-string keys, which encoding/json
// cannot marshal, into string-keyed maps.
func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			n, err := normalizeYAML(child)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			n, err := normalizeYAML(child)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []any:
		for i, child := range t {
			n, err := normalizeYAML(child)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}
