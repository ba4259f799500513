package spawn

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/spawn/internal/catalog"
	"github.com/bnema/spawn/internal/common"
)

// Identification labels. Everything the orchestrator needs to recognize
// and describe a spawn later is recorded on the container itself.
const (
	labelContainer     = "spawn.container"
	labelDomain        = "spawn.domain"
	labelServicePrefix = "spawn.service."
	labelPortPrefix    = "spawn.port."
)

// buildLabels constructs the identification and routing labels for one
// spawn container. Routing labels follow the reverse proxy's docker
// provider conventions: one router and one backend per service, named
// <svc>-<name>.
func buildLabels(name string, services []catalog.Service, cfg *common.Config) map[string]string {
	labels := map[string]string{
		labelContainer:   name,
		labelDomain:      cfg.General.Domain,
		"traefik.enable": "true",
		"traefik.http.middlewares.redirect-to-https.redirectscheme.scheme":    "https",
		"traefik.http.middlewares.redirect-to-https.redirectscheme.permanent": "true",
	}

	useResolver := !cfg.IsLocal() && cfg.Certs.Mode == common.CertModeLetsEncrypt

	for _, svc := range services {
		host := svc.ID + "-" + name
		baseRouter := "traefik.http.routers." + host
		baseService := "traefik.http.services." + host

		labels[labelServicePrefix+svc.ID] = "true"
		labels[labelPortPrefix+svc.ID] = strconv.Itoa(svc.Port)
		labels[baseRouter+".rule"] = fmt.Sprintf("Host(`%s.%s`)", host, cfg.General.Domain)
		labels[baseRouter+".entrypoints"] = "websecure"
		labels[baseRouter+".middlewares"] = "redirect-to-https"
		labels[baseService+".loadbalancer.server.port"] = strconv.Itoa(svc.Port)

		if useResolver {
			labels[baseRouter+".tls.certresolver"] = "letsencrypt"
		} else {
			labels[baseRouter+".tls"] = "true"
		}
	}

	return labels
}

// servicesFromLabels recovers the service ids recorded on a container,
// sorted for stable output.
func servicesFromLabels(labels map[string]string) []string {
	var ids []string
	for key, value := range labels {
		if strings.HasPrefix(key, labelServicePrefix) && value == "true" {
			ids = append(ids, strings.TrimPrefix(key, labelServicePrefix))
		}
	}
	sort.Strings(ids)
	return ids
}

// ServiceURL is one service's access point on a running spawn.
type ServiceURL struct {
	Service string
	URL     string
}

// serviceURLs builds the per-service access URLs for a spawn. Password
// is appended as a token query parameter for token-authenticated
// services; with an empty password the plain URL is returned (the
// password is never recorded on the container, so URLs rebuilt later
// cannot carry it).
func serviceURLs(name, domain string, services []catalog.Service, password string) []ServiceURL {
	urls := make([]ServiceURL, 0, len(services))
	for _, svc := range services {
		url := fmt.Sprintf("https://%s-%s.%s", svc.ID, name, domain)
		if svc.TokenAuth && password != "" {
			url += "?token=" + password
		}
		urls = append(urls, ServiceURL{Service: svc.ID, URL: url})
	}
	return urls
}

// urlsFromLabels rebuilds service URLs from a container's labels alone.
func urlsFromLabels(name string, labels map[string]string, fallbackDomain string) []ServiceURL {
	domain := labels[labelDomain]
	if domain == "" {
		domain = fallbackDomain
	}

	ids := servicesFromLabels(labels)
	services := make([]catalog.Service, 0, len(ids))
	for _, id := range ids {
		svc, err := catalog.Lookup(id)
		if err != nil {
			// A label from a newer or older build; keep the URL usable.
			svc = catalog.Service{ID: id}
		}
		services = append(services, svc)
	}

	return serviceURLs(name, domain, services, "")
}
