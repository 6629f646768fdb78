package v7

// Frame is a single frame of a stack trace.
type Frame struct {
	Function        string    `json:"function,omitempty"`
	Symbol          string    `json:"symbol,omitempty"`
	Module          string    `json:"module,omitempty"`
	Package         string    `json:"package,omitempty"`
	Filename        string    `json:"filename,omitempty"`
	AbsPath         string    `json:"abs_path,omitempty"`
	Lineno          uint64    `json:"lineno,omitempty"`
	Colno           uint64    `json:"colno,omitempty"`
	PreContext      []*string `json:"pre_context,omitempty"`
	ContextLine     *string   `json:"context_line,omitempty"`
	PostContext     []*string `json:"post_context,omitempty"`
	InApp           *bool     `json:"in_app,omitempty"`
	Vars            Map       `json:"vars,omitempty"`
	ImageAddr       Addr      `json:"image_addr,omitempty"`
	InstructionAddr Addr      `json:"instruction_addr,omitempty"`
	SymbolAddr      Addr      `json:"symbol_addr,omitempty"`
}

// Stacktrace holds frames ordered from the outermost call to the innermost.
type Stacktrace struct {
	Frames []Frame `json:"frames"`
	// FramesOmitted is the half-open range of frames that were dropped.
	FramesOmitted *[2]uint64      `json:"frames_omitted,omitempty"`
	Registers     map[string]Addr `json:"registers,omitempty"`
}

// IsEmpty returns true if the stack trace has no frames.
func (s *Stacktrace) IsEmpty() bool {
	return s == nil || len(s.Frames) == 0
}

// TemplateInfo locates an error inside a template.
type TemplateInfo struct {
	Filename    string    `json:"filename,omitempty"`
	AbsPath     string    `json:"abs_path,omitempty"`
	Lineno      uint64    `json:"lineno,omitempty"`
	Colno       uint64    `json:"colno,omitempty"`
	PreContext  []*string `json:"pre_context,omitempty"`
	ContextLine *string   `json:"context_line,omitempty"`
	PostContext []*string `json:"post_context,omitempty"`
}
