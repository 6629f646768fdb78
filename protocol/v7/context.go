package v7

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Context is one entry of an event's contexts. The concrete types are
// DeviceContext, OsContext, RuntimeContext, AppContext, BrowserContext and
// OtherContext.
type Context interface {
	ContextType() string
}

// DeviceContext describes the device that produced an event.
type DeviceContext struct {
	Name                string     `json:"name,omitempty"`
	Family              string     `json:"family,omitempty"`
	Model               string     `json:"model,omitempty"`
	ModelID             string     `json:"model_id,omitempty"`
	Arch                string     `json:"arch,omitempty"`
	BatteryLevel        *float64   `json:"battery_level,omitempty"`
	Orientation         string     `json:"orientation,omitempty"`
	Simulator           *bool      `json:"simulator,omitempty"`
	MemorySize          *uint64    `json:"memory_size,omitempty"`
	FreeMemory          *uint64    `json:"free_memory,omitempty"`
	UsableMemory        *uint64    `json:"usable_memory,omitempty"`
	StorageSize         *uint64    `json:"storage_size,omitempty"`
	FreeStorage         *uint64    `json:"free_storage,omitempty"`
	ExternalStorageSize *uint64    `json:"external_storage_size,omitempty"`
	ExternalFreeStorage *uint64    `json:"external_free_storage,omitempty"`
	BootTime            *Timestamp `json:"boot_time,omitempty"`
	Timezone            string     `json:"timezone,omitempty"`
	Other               Map        `json:"-" sentry:"flatten"`
}

func (*DeviceContext) ContextType() string { return "device" }

// OsContext describes the operating system.
type OsContext struct {
	Name          string `json:"name,omitempty"`
	Version       string `json:"version,omitempty"`
	Build         string `json:"build,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	Rooted        *bool  `json:"rooted,omitempty"`
	Other         Map    `json:"-" sentry:"flatten"`
}

func (*OsContext) ContextType() string { return "os" }

// RuntimeContext describes the language runtime.
type RuntimeContext struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Other   Map    `json:"-" sentry:"flatten"`
}

func (*RuntimeContext) ContextType() string { return "runtime" }

// AppContext describes the application.
type AppContext struct {
	AppStartTime  *Timestamp `json:"app_start_time,omitempty"`
	DeviceAppHash string     `json:"device_app_hash,omitempty"`
	BuildType     string     `json:"build_type,omitempty"`
	AppIdentifier string     `json:"app_identifier,omitempty"`
	AppName       string     `json:"app_name,omitempty"`
	AppVersion    string     `json:"app_version,omitempty"`
	AppBuild      string     `json:"app_build,omitempty"`
	Other         Map        `json:"-" sentry:"flatten"`
}

func (*AppContext) ContextType() string { return "app" }

// BrowserContext describes a web browser.
type BrowserContext struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Other   Map    `json:"-" sentry:"flatten"`
}

func (*BrowserContext) ContextType() string { return "browser" }

// OtherContext is a context of a type this package does not know.
type OtherContext struct {
	Type string `json:"-"`
	Data Map    `json:"-" sentry:"flatten"`
}

func (c *OtherContext) ContextType() string { return c.Type }

// Contexts maps context names to contexts. An entry without a "type" key
// takes its type from its name.
type Contexts map[string]Context

func newContext(typ string) Context {
	switch typ {
	case "device":
		return &DeviceContext{}
	case "os":
		return &OsContext{}
	case "runtime":
		return &RuntimeContext{}
	case "app":
		return &AppContext{}
	case "browser":
		return &BrowserContext{}
	}
	return nil
}

// UnionTag returns the key that names the type of a context.
func (Contexts) UnionTag() string {
	return "type"
}

// NewElement returns an empty context of type typ.
func (Contexts) NewElement(typ string) any {
	if ctx := newContext(typ); ctx != nil {
		return ctx
	}
	return &OtherContext{Type: typ}
}

// DecodeContext decodes a single context. defaultType is used when the
// object has no "type" key.
func DecodeContext(data []byte, defaultType string) (Context, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid context: %w", err)
	}
	typ := head.Type
	if typ == "" {
		typ = defaultType
	}
	ctx := newContext(typ)
	if ctx == nil {
		var fields Map
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		delete(fields, "type")
		return &OtherContext{Type: typ, Data: fields}, nil
	}
	other, err := unmarshalFlattened(data, ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid %s context: %w", typ, err)
	}
	delete(other, "type")
	if len(other) != 0 {
		setContextOther(ctx, other)
	}
	return ctx, nil
}

func setContextOther(ctx Context, other Map) {
	switch c := ctx.(type) {
	case *DeviceContext:
		c.Other = other
	case *OsContext:
		c.Other = other
	case *RuntimeContext:
		c.Other = other
	case *AppContext:
		c.Other = other
	case *BrowserContext:
		c.Other = other
	}
}

func contextOther(ctx Context) Map {
	switch c := ctx.(type) {
	case *DeviceContext:
		return c.Other
	case *OsContext:
		return c.Other
	case *RuntimeContext:
		return c.Other
	case *AppContext:
		return c.Other
	case *BrowserContext:
		return c.Other
	case *OtherContext:
		return c.Data
	}
	return nil
}

// EncodeContext writes ctx as an object with its "type" key.
func EncodeContext(ctx Context) ([]byte, error) {
	other := Map{"type": ctx.ContextType()}
	for k, v := range contextOther(ctx) {
		other[k] = v
	}
	if _, ok := ctx.(*OtherContext); ok {
		return json.Marshal(other)
	}
	return marshalFlattened(ctx, other)
}

func (c Contexts) MarshalJSON() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(c))
	for name, ctx := range c {
		if ctx == nil {
			continue
		}
		raw, err := EncodeContext(ctx)
		if err != nil {
			return nil, err
		}
		obj[name] = raw
	}
	return json.Marshal(obj)
}

func (c *Contexts) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	out := make(Contexts, len(obj))
	for name, raw := range obj {
		ctx, err := DecodeContext(raw, name)
		if err != nil {
			return fmt.Errorf("context %q: %w", name, err)
		}
		out[name] = ctx
	}
	*c = out
	return nil
}

// Names returns the context names, sorted.
func (c Contexts) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
