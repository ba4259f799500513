// Package templating renders the Dockerfile and startup script fragments
// an image build is assembled from. Fragments are embedded Go templates,
// one per service plus a shared base layer and the entrypoint script.
package templating

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"text/template"

	"github.com/bnema/spawn/internal/catalog"
)

// BaseFragment is the well-known id of the image header fragment.
const BaseFragment = "base"

// Params carries the values a fragment may reference.
type Params struct {
	BaseImage string
	Timezone  string
	Port      int
	// ExtraEntrypoint is an optional user-supplied script block injected
	// into the startup script before any service starts.
	ExtraEntrypoint string
}

// Renderer resolves fragment references into rendered text.
type Renderer interface {
	RenderBuildFragment(id string, params Params) (string, error)
	RenderStartFragment(id string, params Params) (string, error)
	RenderEntrypoint(services []catalog.Service, params Params) (string, error)
}

// Engine renders fragments from an embedded template filesystem.
type Engine struct {
	fsys fs.FS
}

func NewEngine() *Engine {
	return &Engine{fsys: templatesFS}
}

// RenderBuildFragment renders the Dockerfile fragment for a fragment id.
func (e *Engine) RenderBuildFragment(id string, params Params) (string, error) {
	return e.render(fmt.Sprintf("templates/build/%s.tmpl", id), params)
}

// RenderStartFragment renders the startup snippet for a fragment id.
func (e *Engine) RenderStartFragment(id string, params Params) (string, error) {
	return e.render(fmt.Sprintf("templates/start/%s.tmpl", id), params)
}

// RenderEntrypoint renders the container startup script. Services start in
// the order given; each service's start fragment is rendered with its
// catalog port before being spliced into the script.
func (e *Engine) RenderEntrypoint(services []catalog.Service, params Params) (string, error) {
	blocks := make([]startBlock, 0, len(services))
	for _, svc := range services {
		p := params
		p.Port = svc.Port
		script, err := e.RenderStartFragment(svc.StartFragment, p)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, startBlock{ID: svc.ID, Script: script})
	}
	return e.render("templates/entrypoint.tmpl", entrypointData{
		Services: blocks,
		Extra:    params.ExtraEntrypoint,
	})
}

type startBlock struct {
	ID     string
	Script string
}

type entrypointData struct {
	Services []startBlock
	Extra    string
}

// ProxyParams carries the values the reverse proxy static config
// references.
type ProxyParams struct {
	Network  string
	LogLevel string
	// UseFileProvider mounts a dynamic config directory holding static
	// certificate declarations.
	UseFileProvider bool
	// UseLetsEncrypt enables the ACME resolver; Email is its account.
	UseLetsEncrypt bool
	Email          string
}

// CertFileParams names the certificate pair a static TLS declaration
// points at, relative to the mounted certs directory.
type CertFileParams struct {
	CertFile string
	KeyFile  string
}

// RenderProxyStatic renders the reverse proxy's static configuration.
func (e *Engine) RenderProxyStatic(params ProxyParams) (string, error) {
	return e.render("templates/proxy/traefik.yml.tmpl", params)
}

// RenderProxyCerts renders the dynamic config declaring a static
// certificate pair.
func (e *Engine) RenderProxyCerts(params CertFileParams) (string, error) {
	return e.render("templates/proxy/certs.yml.tmpl", params)
}

func (e *Engine) render(name string, data interface{}) (string, error) {
	content, err := fs.ReadFile(e.fsys, name)
	if err != nil {
		return "", fmt.Errorf("fragment %s not found: %w", name, err)
	}

	tmpl, err := template.New(path.Base(name)).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse fragment %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render fragment %s: %w", name, err)
	}
	return buf.String(), nil
}
