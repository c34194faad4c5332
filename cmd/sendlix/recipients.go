package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sendlix/sendlix-go/pkg/email"
	"github.com/sendlix/sendlix-go/pkg/group"
)

// recipientEntry is either a bare address or a mapping with name and
// substitutions.
type recipientEntry struct {
	Email         string            `yaml:"email"`
	Name          string            `yaml:"name"`
	Substitutions map[string]string `yaml:"substitutions"`
}

func (r *recipientEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Email = value.Value
		return nil
	}
	type plain recipientEntry
	return value.Decode((*plain)(r))
}

type recipientFile struct {
	Recipients []recipientEntry `yaml:"recipients"`
}

// loadRecipients reads either a top level list or a document with a
// recipients key.
func loadRecipients(path string) ([]group.Recipient, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipients file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse recipients file %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var entries []recipientEntry
	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&entries)
	} else {
		var f recipientFile
		err = root.Decode(&f)
		entries = f.Recipients
	}
	if err != nil {
		return nil, fmt.Errorf("parse recipients file %s: %w", path, err)
	}

	out := make([]group.Recipient, len(entries))
	for i, e := range entries {
		out[i] = group.Recipient{
			Address:       email.Address{Email: e.Email, Name: e.Name},
			Substitutions: e.Substitutions,
		}
	}
	return out, nil
}
