package config

// Addresses stores the listen addresses of the daemon servers. Setting an
// address to "none" disables that server.
type Addresses struct {
	// Admin is the admin API listen address.
	Admin string
	// Ingest is the event submission API listen address.
	Ingest string
	// IngestURL is the scheme and host clients use to reach the ingest
	// server, such as "https://sentry.example.com". It is used to build the
	// DSN of project keys. When empty it is derived from Ingest.
	IngestURL string `json:",omitempty"`
	// Metrics is the prometheus metrics listen address.
	Metrics string
}

// NewAddresses returns Addresses with values set to their defaults.
func NewAddresses() Addresses {
	return Addresses{
		Admin:   "127.0.0.1:3102",
		Ingest:  "0.0.0.0:3100",
		Metrics: "127.0.0.1:3103",
	}
}

// populateUnset replaces zero-values in the config with default values.
func (c *Addresses) populateUnset() {
	def := NewAddresses()

	if c.Admin == "" {
		c.Admin = def.Admin
	}
	if c.Ingest == "" {
		c.Ingest = def.Ingest
	}
	if c.Metrics == "" {
		c.Metrics = def.Metrics
	}
}
