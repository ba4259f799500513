package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/spawn/internal/catalog"
	"github.com/bnema/spawn/internal/common"
)

func testConfig() *common.Config {
	cfg := &common.Config{}
	cfg.General.InstallMode = common.InstallModeUser
	cfg.General.Mode = common.ModeLocal
	cfg.General.Prefix = "spawn"
	cfg.General.Domain = "spawn.localhost"
	cfg.Network.Name = "spawn_internal"
	cfg.Network.Subnet = "172.30.0.0/24"
	cfg.Network.DNS = []string{"8.8.8.8"}
	return cfg
}

func lookupServices(t *testing.T, ids ...string) []catalog.Service {
	t.Helper()
	services := make([]catalog.Service, 0, len(ids))
	for _, id := range ids {
		svc, err := catalog.Lookup(id)
		require.NoError(t, err)
		services = append(services, svc)
	}
	return services
}

func TestBuildLabels_IdentificationAndRouting(t *testing.T) {
	cfg := testConfig()
	services := lookupServices(t, catalog.ServiceJupyter, catalog.ServiceVSCode)

	labels := buildLabels("mydev", services, cfg)

	assert.Equal(t, "mydev", labels["spawn.container"])
	assert.Equal(t, "spawn.localhost", labels["spawn.domain"])
	assert.Equal(t, "true", labels["spawn.service.jupyter"])
	assert.Equal(t, "8888", labels["spawn.port.jupyter"])
	assert.Equal(t, "true", labels["spawn.service.vscode"])
	assert.Equal(t, "8842", labels["spawn.port.vscode"])

	assert.Equal(t, "true", labels["traefik.enable"])
	assert.Equal(t, "https", labels["traefik.http.middlewares.redirect-to-https.redirectscheme.scheme"])
	assert.Equal(t, "true", labels["traefik.http.middlewares.redirect-to-https.redirectscheme.permanent"])

	assert.Equal(t, "Host(`jupyter-mydev.spawn.localhost`)", labels["traefik.http.routers.jupyter-mydev.rule"])
	assert.Equal(t, "websecure", labels["traefik.http.routers.jupyter-mydev.entrypoints"])
	assert.Equal(t, "redirect-to-https", labels["traefik.http.routers.jupyter-mydev.middlewares"])
	assert.Equal(t, "8888", labels["traefik.http.services.jupyter-mydev.loadbalancer.server.port"])
	assert.Equal(t, "8842", labels["traefik.http.services.vscode-mydev.loadbalancer.server.port"])
}

func TestBuildLabels_LocalModeUsesStaticTLS(t *testing.T) {
	cfg := testConfig()
	services := lookupServices(t, catalog.ServiceRStudio)

	labels := buildLabels("mydev", services, cfg)

	assert.Equal(t, "true", labels["traefik.http.routers.rstudio-mydev.tls"])
	assert.NotContains(t, labels, "traefik.http.routers.rstudio-mydev.tls.certresolver")
}

func TestBuildLabels_RemoteLetsEncryptUsesResolver(t *testing.T) {
	cfg := testConfig()
	cfg.General.Mode = common.ModeRemote
	cfg.General.Domain = "dev.example.com"
	cfg.Certs.Mode = common.CertModeLetsEncrypt
	services := lookupServices(t, catalog.ServiceRStudio)

	labels := buildLabels("mydev", services, cfg)

	assert.Equal(t, "letsencrypt", labels["traefik.http.routers.rstudio-mydev.tls.certresolver"])
	assert.NotContains(t, labels, "traefik.http.routers.rstudio-mydev.tls")
	assert.Equal(t, "Host(`rstudio-mydev.dev.example.com`)", labels["traefik.http.routers.rstudio-mydev.rule"])
}

func TestBuildLabels_RemoteProvidedCertsUseStaticTLS(t *testing.T) {
	cfg := testConfig()
	cfg.General.Mode = common.ModeRemote
	cfg.Certs.Mode = common.CertModeProvided
	services := lookupServices(t, catalog.ServiceVSCode)

	labels := buildLabels("mydev", services, cfg)

	assert.Equal(t, "true", labels["traefik.http.routers.vscode-mydev.tls"])
	assert.NotContains(t, labels, "traefik.http.routers.vscode-mydev.tls.certresolver")
}

func TestServicesFromLabels_RoundTrip(t *testing.T) {
	cfg := testConfig()
	services := lookupServices(t, catalog.ServiceVSCode, catalog.ServiceJupyter)

	labels := buildLabels("mydev", services, cfg)

	assert.Equal(t, []string{"jupyter", "vscode"}, servicesFromLabels(labels))
}

func TestServicesFromLabels_IgnoresUnrelatedLabels(t *testing.T) {
	labels := map[string]string{
		"spawn.container":       "mydev",
		"spawn.service.jupyter": "true",
		"spawn.port.jupyter":    "8888",
		"traefik.enable":        "true",
	}

	assert.Equal(t, []string{"jupyter"}, servicesFromLabels(labels))
}

func TestServiceURLs_TokenOnlyForTokenAuthServices(t *testing.T) {
	services := lookupServices(t, catalog.ServiceJupyter, catalog.ServiceRStudio, catalog.ServiceVSCode)

	urls := serviceURLs("mydev", "spawn.localhost", services, "s3cret")

	require.Len(t, urls, 3)
	assert.Equal(t, "jupyter", urls[0].Service)
	assert.Equal(t, "https://jupyter-mydev.spawn.localhost?token=s3cret", urls[0].URL)
	assert.Equal(t, "https://rstudio-mydev.spawn.localhost", urls[1].URL)
	assert.Equal(t, "https://vscode-mydev.spawn.localhost", urls[2].URL)
}

func TestServiceURLs_EmptyPasswordOmitsToken(t *testing.T) {
	services := lookupServices(t, catalog.ServiceJupyterLab)

	urls := serviceURLs("mydev", "spawn.localhost", services, "")

	require.Len(t, urls, 1)
	assert.Equal(t, "https://jupyterlab-mydev.spawn.localhost", urls[0].URL)
}

func TestURLsFromLabels_RebuildsWithoutToken(t *testing.T) {
	cfg := testConfig()
	services := lookupServices(t, catalog.ServiceJupyter, catalog.ServiceVSCode)
	labels := buildLabels("mydev", services, cfg)

	urls := urlsFromLabels("mydev", labels, "fallback.localhost")

	require.Len(t, urls, 2)
	assert.Equal(t, "https://jupyter-mydev.spawn.localhost", urls[0].URL)
	assert.Equal(t, "https://vscode-mydev.spawn.localhost", urls[1].URL)
}

func TestURLsFromLabels_FallbackDomain(t *testing.T) {
	labels := map[string]string{
		"spawn.service.rstudio": "true",
	}

	urls := urlsFromLabels("mydev", labels, "fallback.localhost")

	require.Len(t, urls, 1)
	assert.Equal(t, "https://rstudio-mydev.fallback.localhost", urls[0].URL)
}

func TestURLsFromLabels_UnknownServiceKeepsURL(t *testing.T) {
	labels := map[string]string{
		"spawn.domain":           "spawn.localhost",
		"spawn.service.zeppelin": "true",
	}

	urls := urlsFromLabels("mydev", labels, "")

	require.Len(t, urls, 1)
	assert.Equal(t, "zeppelin", urls[0].Service)
	assert.Equal(t, "https://zeppelin-mydev.spawn.localhost", urls[0].URL)
}
