package config

// Policy configures which projects may submit events.
type Policy struct {
	// Allow is either false or true, and determines whether a project is
	// allowed (true) or blocked (false), by default.
	Allow bool
	// Except is a list of project IDs that are an exception to the Allow
	// policy. If Allow is true, then all projects are allowed except those
	// listed in Except. If Allow is false, then no projects are allowed
	// except those listed in Except.
	Except []string
}

// NewPolicy returns Policy with values set to their defaults.
func NewPolicy() Policy {
	return Policy{
		Allow: true,
	}
}
