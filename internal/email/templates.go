package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

// TemplateManager - html шаблоны писем по имени файла без .html.
// Набор собирается в конструкторе и дальше не меняется.
type TemplateManager struct {
	templates map[string]*template.Template
}

// NewTemplateManager: встроенные шаблоны, поверх них файлы из dirPath, если он существует
func NewTemplateManager(dirPath string) (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}

	sources := []fs.FS{mustSub(builtinTemplates, "templates")}
	if dirPath != "" {
		if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
			sources = append(sources, os.DirFS(dirPath))
		}
	}
	for _, src := range sources {
		if err := tm.load(src); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tpl, ok := tm.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (tm *TemplateManager) load(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return err
	}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("read template %s: %w", file, err)
		}
		tpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", file, err)
		}
		tm.templates[name] = tpl
	}
	return nil
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
