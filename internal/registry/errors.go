package registry

import "errors"

var (
	ErrBadSecret         = errors.New("secret key does not match")
	ErrKeyDisabled       = errors.New("project key is disabled")
	ErrKeyExists         = errors.New("project key already exists")
	ErrProjectMismatch   = errors.New("project key belongs to another project")
	ErrProjectNotAllowed = errors.New("project not allowed by policy")
	ErrUnknownKey        = errors.New("unknown project key")
)
