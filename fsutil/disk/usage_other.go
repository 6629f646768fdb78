//go:build !(freebsd || linux || darwin)

package disk

func usage(string) (*UsageStats, error) {
	return nil, ErrUnsupported
}
