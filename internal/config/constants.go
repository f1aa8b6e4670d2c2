package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the CMS database
	DefaultDatabasePath = "./booklify.db"

	// DefaultTokenFile is where the console keeps its access token between runs
	DefaultTokenFile = "./.booklify-token.json"

	// DefaultBaseURL is the CMS API root the console talks to
	DefaultBaseURL = "http://localhost:8188/api/cms"
)
