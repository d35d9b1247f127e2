package formstore

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/taylordaughtry/formie/internal/ctxlog"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/variables"
)

func isFormFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".hcl":
		return true
	}
	return false
}

// LoadFS walks fsys and loads every YAML and HCL form definition, in
// lexical file order. Forms without an id are numbered after the highest
// explicit id; forms without a uid get a random one. Every form is checked
// for unresolvable positions.
func LoadFS(ctx context.Context, fsys fs.FS) ([]*form.Form, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	var docs []*Document
	var sources []string
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("formstore: read %s: %w", p, err)
		}
		if strings.HasSuffix(strings.ToLower(p), ".hcl") {
			parsed, err := parseHCL(parser, data, p)
			if err != nil {
				return err
			}
			for _, d := range parsed {
				docs = append(docs, d)
				sources = append(sources, p)
			}
			return nil
		}
		var d Document
		if err := yaml.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("formstore: parse %s: %w", p, err)
		}
		docs = append(docs, &d)
		sources = append(sources, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		logger.Warn("no form definitions found")
		return nil, nil
	}

	maxID := 0
	for _, d := range docs {
		if d.ID > maxID {
			maxID = d.ID
		}
	}

	forms := make([]*form.Form, 0, len(docs))
	seen := make(map[string]string)
	for i, d := range docs {
		if prev, ok := seen[d.Handle]; ok {
			return nil, fmt.Errorf("formstore: %s: form handle %q already defined in %s", sources[i], d.Handle, prev)
		}
		seen[d.Handle] = sources[i]
		if d.ID == 0 {
			maxID++
			d.ID = maxID
		}
		if d.UID == "" {
			d.UID = uuid.NewString()
		}
		f, err := d.Form()
		if err != nil {
			return nil, fmt.Errorf("formstore: %s: %w", sources[i], err)
		}
		if err := variables.CheckPositions(f); err != nil {
			return nil, fmt.Errorf("formstore: %s: %w", sources[i], err)
		}
		logger.Debug("loaded form", "form", f.Handle, "file", sources[i])
		forms = append(forms, f)
	}
	return forms, nil
}
