package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the decoder for a quiz file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported quiz format")

type rawOption struct {
	ID        string  `json:"id" yaml:"id"`
	Text      *string `json:"text" yaml:"text"`
	IsCorrect *bool   `json:"isCorrect" yaml:"isCorrect"`
}

type rawQuestion struct {
	ID              string      `json:"id" yaml:"id"`
	QuestionText    *string     `json:"questionText" yaml:"questionText"`
	QuestionType    string      `json:"questionType" yaml:"questionType"`
	Options         []rawOption `json:"options" yaml:"options"`
	ReferenceAnswer string      `json:"referenceAnswer" yaml:"referenceAnswer"`
	Category        string      `json:"category" yaml:"category"`
	Explanation     string      `json:"explanation" yaml:"explanation"`
}

type rawDocument struct {
	Title     *string        `json:"title" yaml:"title"`
	Questions *[]rawQuestion `json:"questions" yaml:"questions"`
}

// LoadFile reads and validates a quiz file. The format follows the file extension.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read quiz file: %w", err)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(data, format)
}

// FormatFromPath maps .json, .yaml and .yml extensions to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FormatFromContentType maps an HTTP Content-Type to a Format. An empty header means JSON.
func FormatFromContentType(contentType string) (Format, error) {
	if contentType == "" {
		return FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	switch mediaType {
	case "application/json", "text/json":
		return FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}
}

// Parse decodes and validates raw quiz text.
func Parse(data []byte, format Format) (Document, error) {
	var (
		raw rawDocument
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = parseJSON(data)
	case FormatYAML:
		raw, err = parseYAML(data)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Document{}, err
	}
	return normalize(raw)
}

func parseJSON(data []byte) (rawDocument, error) {
	var raw rawDocument
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return rawDocument{}, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return rawDocument{}, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return rawDocument{}, fmt.Errorf("parse json: %w", err)
	}
	return raw, nil
}

func parseYAML(data []byte) (rawDocument, error) {
	var raw rawDocument
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return rawDocument{}, fmt.Errorf("parse yaml: empty document")
		}
		return rawDocument{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return rawDocument{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return rawDocument{}, fmt.Errorf("parse yaml: %w", err)
	}
	return raw, nil
}
