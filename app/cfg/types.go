package cfg

type Cfg struct {
	// HTTP server configuration
	Port    string
	BaseUrl string

	// Database configuration
	DBPath string

	// PubSubHubbub configuration
	DefaultHub          string
	AlwaysUseDefaultHub bool
	VerifyToken         string
	VerifyIncomingPosts bool

	// Background task configuration
	WorkerCount     int
	RefreshInterval int
	MaxTaskRetries  int
	ExtractContent  bool

	// Storage limits
	MaxFetch int

	// Access control
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// CallbackUrl returns the endpoint the hub delivers verification challenges
// and content pushes to.
func (c *Cfg) CallbackUrl() string {
	return c.BaseUrl + "/posts"
}
