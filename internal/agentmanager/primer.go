package agentmanager

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrimerLoader resolves a specialist role's primer template by name,
// mirroring the teacher's load_template helper. Load returns an error when
// no template exists for name; callers fall back to a generated primer.
type PrimerLoader interface {
	Load(name string) (string, error)
}

// NoPrimers always reports no template found, forcing every specialist to
// use the generated-from-spec primer. Useful when no template directory is
// configured.
type NoPrimers struct{}

func (NoPrimers) Load(name string) (string, error) {
	return "", fmt.Errorf("agentmanager: no template %q (no primer directory configured)", name)
}

// FileTemplateLoader loads primer templates from <Dir>/<name>.txt, matching
// the teacher's templates/<name>.txt on-disk convention.
type FileTemplateLoader struct {
	Dir string
}

func (l FileTemplateLoader) Load(name string) (string, error) {
	path := filepath.Join(l.Dir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("agentmanager: template %q: %w", name, err)
	}
	return string(data), nil
}
