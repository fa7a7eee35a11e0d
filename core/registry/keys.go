package registry

// Core keys for GlobalRegistry.
const (
	// KeyRequestStart is the echo context key holding the request start time.
	KeyRequestStart = "request_start"

	// Extension registries (cmd, cron, api, routes), stored in GlobalRegistry
	KeyRegistryCmd    = "registry:cmd"
	KeyRegistryCron   = "registry:cron"
	KeyRegistryAPI    = "registry:api"
	KeyRegistryRoutes = "registry:routes"
)
