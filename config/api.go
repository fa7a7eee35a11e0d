package config

// GetAuthSkipperPaths returns a list of local API paths to skip authentication for
func GetAuthSkipperPaths() []string {
	return []string{"/health"}
}
