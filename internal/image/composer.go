// Package image composes spawn images: it derives canonical tags,
// assembles build contexts from template fragments, and drives the
// runtime's build operation.
package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/bnema/spawn/internal/catalog"
	"github.com/bnema/spawn/internal/templating"
)

// Runtime is the slice of the container runtime the composer needs.
type Runtime interface {
	ImageExists(ctx context.Context, tag string) (bool, error)
	BuildImage(ctx context.Context, contextDir, tag string, labels map[string]string, logw io.Writer) error
}

// Image labels stamped onto every composed image. LabelImage marks an
// image as spawn-built so listings can filter on it; the others record
// what went into the build.
const (
	LabelImage    = "spawn.image"
	LabelBase     = "spawn.base"
	LabelServices = "spawn.services"
)

// Customization carries the optional user-supplied build inputs, each a
// path to a file on the host. Empty fields are skipped.
type Customization struct {
	// EnvFile is a dotenv file turned into ENV instructions.
	EnvFile string
	// DockerfileChunk is raw Dockerfile text appended after the service
	// layers, so it can override anything they installed.
	DockerfileChunk string
	// EntrypointChunk is a script block injected into the startup
	// script before any service starts.
	EntrypointChunk string
}

// BuildInput describes one image to compose.
type BuildInput struct {
	BaseImage     string
	Services      []catalog.Service
	Customization Customization
	Timezone      string
}

// BuildError reports a failed image build. The full engine output is
// preserved at LogPath; LogTail holds its last lines for direct display.
type BuildError struct {
	Tag     string
	LogPath string
	LogTail string
	Cause   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed for image %s: %v (full log: %s)", e.Tag, e.Cause, e.LogPath)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// ImageNotFoundError reports that no local image carries the tag. The
// caller decides whether to build or abort.
type ImageNotFoundError struct {
	Tag string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image %s not found locally (build it first, or pass --build)", e.Tag)
}

// Composer assembles build contexts and drives image builds.
type Composer struct {
	runtime   Runtime
	renderer  templating.Renderer
	buildsDir string
}

func NewComposer(runtime Runtime, renderer templating.Renderer, buildsDir string) *Composer {
	return &Composer{
		runtime:   runtime,
		renderer:  renderer,
		buildsDir: buildsDir,
	}
}

// Exists reports whether the image for in is already present.
func (c *Composer) Exists(ctx context.Context, in BuildInput) (bool, error) {
	return c.runtime.ImageExists(ctx, c.Tag(in))
}

// Tag returns the canonical tag for in.
func (c *Composer) Tag(in BuildInput) string {
	ids := make([]string, len(in.Services))
	for i, svc := range in.Services {
		ids[i] = svc.ID
	}
	return ComputeTag(in.BaseImage, ids)
}

// Ensure returns the tag for in, building the image when it is absent
// and allowBuild permits. With allowBuild false an absent image is an
// ImageNotFoundError.
func (c *Composer) Ensure(ctx context.Context, in BuildInput, allowBuild bool) (string, error) {
	tag := c.Tag(in)

	exists, err := c.runtime.ImageExists(ctx, tag)
	if err != nil {
		return "", err
	}
	if exists {
		log.Debug("Image already present", "tag", tag)
		return tag, nil
	}

	if !allowBuild {
		return "", &ImageNotFoundError{Tag: tag}
	}
	return c.Build(ctx, in)
}

// Build assembles a build context for in and triggers the runtime
// build. The context is written under the builds directory and removed
// afterwards; the build log is kept only when the build fails. A failed
// build leaves no image under the tag, so retrying is always safe.
func (c *Composer) Build(ctx context.Context, in BuildInput) (string, error) {
	tag := c.Tag(in)

	services := make([]catalog.Service, len(in.Services))
	copy(services, in.Services)
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })

	contextID := uuid.New().String()
	contextDir := filepath.Join(c.buildsDir, contextID)
	if err := os.MkdirAll(contextDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create build context directory: %w", err)
	}
	defer os.RemoveAll(contextDir)

	dockerfile, err := c.assembleDockerfile(in.BaseImage, services, in.Customization, in.Timezone)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(contextDir, "Dockerfile"), []byte(dockerfile), 0o644); err != nil {
		return "", fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	entrypoint, err := c.renderEntrypoint(services, in.Customization)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(contextDir, "entrypoint.sh"), []byte(entrypoint), 0o755); err != nil {
		return "", fmt.Errorf("failed to write entrypoint script: %w", err)
	}

	logPath := filepath.Join(c.buildsDir, contextID+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create build log: %w", err)
	}

	log.Info("Building image", "tag", tag, "base", in.BaseImage, "services", len(services))

	ids := make([]string, len(services))
	for i, svc := range services {
		ids[i] = svc.ID
	}
	labels := map[string]string{
		LabelImage:    "true",
		LabelBase:     in.BaseImage,
		LabelServices: strings.Join(ids, ","),
	}

	buildErr := c.runtime.BuildImage(ctx, contextDir, tag, labels, logFile)
	if closeErr := logFile.Close(); closeErr != nil && buildErr == nil {
		buildErr = closeErr
	}

	if buildErr != nil {
		return "", &BuildError{
			Tag:     tag,
			LogPath: logPath,
			LogTail: tailOfFile(logPath, 20),
			Cause:   buildErr,
		}
	}

	// The log only matters when the build failed.
	_ = os.Remove(logPath)

	log.Info("Image built", "tag", tag)
	return tag, nil
}

// assembleDockerfile concatenates the base fragment, each service's
// build fragment in sorted id order, the user customization, and the
// entrypoint footer, in that order. The footer comes last so nothing
// can override the startup wiring.
func (c *Composer) assembleDockerfile(baseImage string, services []catalog.Service, custom Customization, timezone string) (string, error) {
	params := templating.Params{
		BaseImage: baseImage,
		Timezone:  timezone,
	}

	var sb strings.Builder

	base, err := c.renderer.RenderBuildFragment(templating.BaseFragment, params)
	if err != nil {
		return "", err
	}
	sb.WriteString(base)

	for _, svc := range services {
		fragment, err := c.renderer.RenderBuildFragment(svc.BuildFragment, params)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n")
		sb.WriteString(fragment)
	}

	envLines, err := renderEnvInstructions(custom.EnvFile)
	if err != nil {
		return "", err
	}
	if envLines != "" {
		sb.WriteString("\n")
		sb.WriteString(envLines)
	}

	if custom.DockerfileChunk != "" {
		chunk, err := os.ReadFile(custom.DockerfileChunk)
		if err != nil {
			return "", fmt.Errorf("failed to read Dockerfile chunk: %w", err)
		}
		sb.WriteString("\n# User-supplied build customization.\n")
		sb.Write(chunk)
		if !strings.HasSuffix(string(chunk), "\n") {
			sb.WriteString("\n")
		}
	}

	sb.WriteString(entrypointFooter)
	return sb.String(), nil
}

// entrypointFooter wires the generated startup script into the image.
const entrypointFooter = `
COPY entrypoint.sh /usr/local/bin/spawn-entrypoint
RUN chmod 755 /usr/local/bin/spawn-entrypoint
ENTRYPOINT ["/usr/local/bin/spawn-entrypoint"]
`

func (c *Composer) renderEntrypoint(services []catalog.Service, custom Customization) (string, error) {
	params := templating.Params{}
	if custom.EntrypointChunk != "" {
		chunk, err := os.ReadFile(custom.EntrypointChunk)
		if err != nil {
			return "", fmt.Errorf("failed to read entrypoint chunk: %w", err)
		}
		params.ExtraEntrypoint = strings.TrimRight(string(chunk), "\n")
	}
	return c.renderer.RenderEntrypoint(services, params)
}

// renderEnvInstructions turns a dotenv file into ENV instructions,
// sorted by key so the produced Dockerfile is deterministic.
func renderEnvInstructions(envFile string) (string, error) {
	if envFile == "" {
		return "", nil
	}

	env, err := godotenv.Read(envFile)
	if err != nil {
		return "", fmt.Errorf("failed to read environment file: %w", err)
	}
	if len(env) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("# Environment from user env file.\n")
	for _, key := range keys {
		sb.WriteString("ENV ")
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(strconv.Quote(env[key]))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func tailOfFile(path string, lines int) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	all := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}
