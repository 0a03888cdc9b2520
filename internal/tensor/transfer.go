package tensor

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CopyAcross copies nbytes from src to dst where the two regions live on different
// devices. A pair without a direct route is staged through host memory. Blocks until done;
// a failed transfer is fatal.
func CopyAcross(src, dst Memory, nbytes int) {
	from, to := src.Device(), dst.Device()
	Expect(from != to, "cross-device copy within %s", from)

	log.WithFields(logrus.Fields{"src": from, "dst": to, "bytes": nbytes}).Debug("transfer")

	if fn, ok := transferFor(from, to); ok {
		Fatal(fn(src, dst, nbytes), "transfer "+from.String()+" -> "+to.String())
		return
	}

	down, okDown := transferFor(from, CPU)
	up, okUp := transferFor(CPU, to)
	Expect(okDown && okUp, "no transfer route from %s to %s", from, to)

	staging := make(HostMemory, nbytes)
	if err := down(src, staging, nbytes); err != nil {
		Fatal(errors.Wrap(err, "staging download"), "transfer "+from.String()+" -> "+to.String())
	}
	if err := up(staging, dst, nbytes); err != nil {
		Fatal(errors.Wrap(err, "staging upload"), "transfer "+from.String()+" -> "+to.String())
	}
}
