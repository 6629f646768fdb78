package v7

// User is the user affected by an event. Keys that are not known fields are
// kept in Other.
type User struct {
	ID        string     `json:"id,omitempty"`
	Email     string     `json:"email,omitempty"`
	IPAddress *IPAddress `json:"ip_address,omitempty"`
	Username  string     `json:"username,omitempty"`
	Other     Map        `json:"-" sentry:"flatten"`
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return marshalFlattened(plain(u), u.Other)
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	other, err := unmarshalFlattened(data, &p)
	if err != nil {
		return err
	}
	*u = User(p)
	u.Other = other
	return nil
}

// Request is the HTTP request that was being handled when the event
// happened.
type Request struct {
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	Data        Value             `json:"data,omitempty"`
	QueryString string            `json:"query_string,omitempty"`
	Cookies     string            `json:"cookies,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Other       Map               `json:"-" sentry:"flatten"`
}

func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	return marshalFlattened(plain(r), r.Other)
}

func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var p plain
	other, err := unmarshalFlattened(data, &p)
	if err != nil {
		return err
	}
	*r = Request(p)
	r.Other = other
	return nil
}

// LogEntry is a log message with optional format parameters.
type LogEntry struct {
	Message string  `json:"message"`
	Params  []Value `json:"params,omitempty"`
}

// RepoReference points at the revision of a repository that produced the
// code in an event.
type RepoReference struct {
	Name     string `json:"name"`
	Prefix   string `json:"prefix,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// ClientSdkInfo describes the SDK that sent an event.
type ClientSdkInfo struct {
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	Integrations []string           `json:"integrations,omitempty"`
	Packages     []ClientSdkPackage `json:"packages,omitempty"`
}

// ClientSdkPackage is a package that is part of an SDK.
type ClientSdkPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
