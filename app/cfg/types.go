package cfg

type Cfg struct {
	// Rerun profile
	ProfilePath string

	// HTTP server
	Port         string
	APIAccessKey string

	// Rerun history database
	DBPath string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Once      bool
	Version   string
}
