//go:build !linux && !darwin && !freebsd

package backing

func mapAnon(int) ([]byte, error) {
	return nil, ErrMapUnsupported
}

func unmap([]byte) error {
	return nil
}
