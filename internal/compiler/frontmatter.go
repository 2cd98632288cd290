// Package compiler turns externally parsed document input into the
// engine's data model: it decodes the raw frontmatter the parser left on
// the AST into domain.Meta and deserializes whole documents from their
// JSON interchange form. It does not parse markdown itself; that is the
// external parser's job.
package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DecodeMeta decodes a raw frontmatter string (YAML) into Meta. Keys the
// engine does not interpret land in Meta.Extra for external collaborators.
func DecodeMeta(raw string) (domain.Meta, error) {
	var meta domain.Meta
	if raw == "" {
		return meta, nil
	}

	var generic map[string]any
	if err := yaml.Unmarshal([]byte(raw), &generic); err != nil {
		return meta, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &meta,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return meta, err
	}
	if err := decoder.Decode(generic); err != nil {
		return meta, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	return meta, nil
}

// DecodeDocument deserializes a document from its JSON interchange form:
// a fragment root whose first child may be a frontmatter node. The
// frontmatter node is consumed here and does not reach the renderer.
func DecodeDocument(data []byte) (*domain.Document, error) {
	var root domain.Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	nodes := root.Children
	if root.Kind != domain.KindFragment {
		nodes = []*domain.Node{&root}
	}

	doc := &domain.Document{}
	for _, n := range nodes {
		if n.Kind == domain.KindFrontmatter && len(doc.Nodes) == 0 {
			meta, err := DecodeMeta(n.Text)
			if err != nil {
				return nil, err
			}
			doc.Meta = meta
			continue
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc, nil
}
