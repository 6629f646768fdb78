package v7

// Exception is a single exception, possibly one of a chain.
type Exception struct {
	Type          string      `json:"type"`
	Value         *string     `json:"value,omitempty"`
	Module        *string     `json:"module,omitempty"`
	Stacktrace    *Stacktrace `json:"stacktrace,omitempty"`
	RawStacktrace *Stacktrace `json:"raw_stacktrace,omitempty"`
	ThreadID      *ThreadID   `json:"thread_id,omitempty"`
	Mechanism     *Mechanism  `json:"mechanism,omitempty"`
}

// Mechanism describes how an exception was captured.
type Mechanism struct {
	Type        string         `json:"type"`
	Description *string        `json:"description,omitempty"`
	HelpLink    *string        `json:"help_link,omitempty"`
	Handled     *bool          `json:"handled,omitempty"`
	Data        Map            `json:"data,omitempty"`
	Meta        *MechanismMeta `json:"meta,omitempty"`
}

// MechanismMeta carries operating system level error information.
type MechanismMeta struct {
	Errno         *CError        `json:"errno,omitempty"`
	Signal        *PosixSignal   `json:"signal,omitempty"`
	MachException *MachException `json:"mach_exception,omitempty"`
}

// IsEmpty returns true if no field is set.
func (m *MechanismMeta) IsEmpty() bool {
	return m == nil || (m.Errno == nil && m.Signal == nil && m.MachException == nil)
}

// CError is a C errno value.
type CError struct {
	Number int32  `json:"number"`
	Name   string `json:"name,omitempty"`
}

// PosixSignal is a POSIX signal with an optional code.
type PosixSignal struct {
	Number   int32  `json:"number"`
	Code     *int32 `json:"code,omitempty"`
	Name     string `json:"name,omitempty"`
	CodeName string `json:"code_name,omitempty"`
}

// MachException is a Mach exception on Apple platforms.
type MachException struct {
	Exception int32  `json:"exception"`
	Code      uint64 `json:"code"`
	Subcode   uint64 `json:"subcode"`
	Name      string `json:"name,omitempty"`
}
