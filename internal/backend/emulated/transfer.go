package emulated

import (
	"github.com/pkg/errors"

	"github.com/born-ml/tensorcore/internal/tensor"
)

func upload(src, dst tensor.Memory, nbytes int) error {
	host, ok := src.(tensor.HostMemory)
	if !ok {
		return errors.Errorf("emulated: upload from %s memory", src.Device())
	}
	return copyBytes(deviceBytes(dst), host, nbytes)
}

func download(src, dst tensor.Memory, nbytes int) error {
	host, ok := dst.(tensor.HostMemory)
	if !ok {
		return errors.Errorf("emulated: download to %s memory", dst.Device())
	}
	return copyBytes(host, deviceBytes(src), nbytes)
}

func copyBytes(dst, src []byte, nbytes int) error {
	if nbytes > len(src) || nbytes > len(dst) {
		return errors.Errorf("emulated: transfer of %d bytes exceeds region (src %d, dst %d)", nbytes, len(src), len(dst))
	}
	copy(dst[:nbytes], src[:nbytes])
	return nil
}
