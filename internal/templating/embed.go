package templating

import (
	"embed"
)

// Embedded Dockerfile and startup script fragments.

//go:embed templates
var templatesFS embed.FS
