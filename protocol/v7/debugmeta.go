package v7

import (
	"encoding/json"
	"fmt"
)

// DebugMeta holds the debug information needed to symbolicate an event.
type DebugMeta struct {
	SdkInfo *SystemSdkInfo `json:"sdk_info,omitempty"`
	Images  DebugImages    `json:"images,omitempty"`
}

// IsEmpty returns true if there is no debug information.
func (d *DebugMeta) IsEmpty() bool {
	return d == nil || (d.SdkInfo == nil && len(d.Images) == 0)
}

// SystemSdkInfo describes the platform SDK of the device.
type SystemSdkInfo struct {
	SdkName      string `json:"sdk_name"`
	VersionMajor uint32 `json:"version_major"`
	VersionMinor uint32 `json:"version_minor"`
	VersionPatch uint32 `json:"version_patch"`
}

// DebugImage is a loaded binary image. The concrete types are
// AppleDebugImage, SymbolicDebugImage, ProguardDebugImage and
// OtherDebugImage.
type DebugImage interface {
	ImageType() string
}

// AppleDebugImage is a Mach-O image on Apple platforms.
type AppleDebugImage struct {
	Name        string `json:"name"`
	Arch        string `json:"arch,omitempty"`
	CPUType     uint32 `json:"cpu_type,omitempty"`
	CPUSubtype  uint32 `json:"cpu_subtype,omitempty"`
	ImageAddr   Addr   `json:"image_addr"`
	ImageSize   uint64 `json:"image_size"`
	ImageVMAddr Addr   `json:"image_vmaddr,omitempty"`
	UUID        string `json:"uuid"`
}

func (*AppleDebugImage) ImageType() string { return "apple" }

// SymbolicDebugImage is a native image that can be symbolicated.
type SymbolicDebugImage struct {
	Name        string `json:"name"`
	Arch        string `json:"arch,omitempty"`
	ImageAddr   Addr   `json:"image_addr"`
	ImageSize   uint64 `json:"image_size"`
	ImageVMAddr Addr   `json:"image_vmaddr,omitempty"`
	ID          string `json:"id"`
	CodeID      string `json:"code_id,omitempty"`
	DebugFile   string `json:"debug_file,omitempty"`
}

func (*SymbolicDebugImage) ImageType() string { return "symbolic" }

// ProguardDebugImage references a ProGuard mapping file.
type ProguardDebugImage struct {
	UUID string `json:"uuid"`
}

func (*ProguardDebugImage) ImageType() string { return "proguard" }

// OtherDebugImage is an image of a type this package does not know.
type OtherDebugImage struct {
	Type string `json:"-"`
	Data Map    `json:"-" sentry:"flatten"`
}

func (i *OtherDebugImage) ImageType() string { return i.Type }

// DebugImages is a list of images, each tagged with its "type".
type DebugImages []DebugImage

// DecodeDebugImage decodes a single image by its "type" key.
func DecodeDebugImage(data []byte) (DebugImage, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid debug image: %w", err)
	}
	img := newDebugImage(head.Type)
	if img == nil {
		var fields Map
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		delete(fields, "type")
		return &OtherDebugImage{Type: head.Type, Data: fields}, nil
	}
	if err := json.Unmarshal(data, img); err != nil {
		return nil, fmt.Errorf("invalid %s debug image: %w", head.Type, err)
	}
	return img, nil
}

func newDebugImage(typ string) DebugImage {
	switch typ {
	case "apple":
		return &AppleDebugImage{}
	case "symbolic":
		return &SymbolicDebugImage{}
	case "proguard":
		return &ProguardDebugImage{}
	}
	return nil
}

// UnionTag returns the key that names the type of an image.
func (DebugImages) UnionTag() string {
	return "type"
}

// NewElement returns an empty image of type typ.
func (DebugImages) NewElement(typ string) any {
	if img := newDebugImage(typ); img != nil {
		return img
	}
	return &OtherDebugImage{Type: typ}
}

// EncodeDebugImage writes img as an object with its "type" key.
func EncodeDebugImage(img DebugImage) ([]byte, error) {
	if other, ok := img.(*OtherDebugImage); ok {
		fields := Map{"type": other.Type}
		for k, v := range other.Data {
			fields[k] = v
		}
		return json.Marshal(fields)
	}
	return marshalFlattened(img, Map{"type": img.ImageType()})
}

func (d DebugImages) MarshalJSON() ([]byte, error) {
	list := make([]json.RawMessage, 0, len(d))
	for _, img := range d {
		if img == nil {
			continue
		}
		raw, err := EncodeDebugImage(img)
		if err != nil {
			return nil, err
		}
		list = append(list, raw)
	}
	return json.Marshal(list)
}

func (d *DebugImages) UnmarshalJSON(data []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make(DebugImages, 0, len(list))
	for i, raw := range list {
		img, err := DecodeDebugImage(raw)
		if err != nil {
			return fmt.Errorf("debug image %d: %w", i, err)
		}
		out = append(out, img)
	}
	*d = out
	return nil
}
