package tensor

import "sync"

// Table maps (device, dtype) pairs to statically typed specializations. Selection is two
// nested lookups, device first and then dtype. There is no fallback: requesting an
// unregistered combination is a contract violation.
//
// Example:
//
//	var ops tensor.Table[func(*tensor.Storage)]
//	ops.Register(tensor.CPU, tensor.Float32, scaleHost[float32])
//	ops.Lookup(s.Device(), s.DType())(s)
type Table[K any] struct {
	mu     sync.RWMutex
	leaves map[Device]map[DataType]K
}

// Register installs the specialization for (device, dtype), replacing any previous one.
func (t *Table[K]) Register(device Device, dtype DataType, leaf K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.leaves == nil {
		t.leaves = make(map[Device]map[DataType]K)
	}
	byType, ok := t.leaves[device]
	if !ok {
		byType = make(map[DataType]K)
		t.leaves[device] = byType
	}
	byType[dtype] = leaf
}

// Find returns the specialization for (device, dtype) and whether it exists.
func (t *Table[K]) Find(device Device, dtype DataType) (K, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var zero K
	byType, ok := t.leaves[device]
	if !ok {
		return zero, false
	}
	leaf, ok := byType[dtype]
	return leaf, ok
}

// Lookup returns the specialization for (device, dtype) and panics if there is none.
func (t *Table[K]) Lookup(device Device, dtype DataType) K {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byType, ok := t.leaves[device]
	if !ok {
		Violate("no specialization registered for device %s", device)
	}
	leaf, ok := byType[dtype]
	if !ok {
		Violate("no specialization registered for %s on device %s", dtype, device)
	}
	return leaf
}

// Devices returns the devices with at least one specialization, in enum order.
func (t *Table[K]) Devices() []Device {
	t.mu.RLock()
	defer t.mu.RUnlock()

	devices := make([]Device, 0, len(t.leaves))
	for d := range deviceNames {
		if _, ok := t.leaves[Device(d)]; ok {
			devices = append(devices, Device(d))
		}
	}
	return devices
}

// DataTypes returns the dtypes registered for device, in enum order.
func (t *Table[K]) DataTypes(device Device) []DataType {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var dtypes []DataType
	for _, dt := range DataTypes() {
		if _, ok := t.leaves[device][dt]; ok {
			dtypes = append(dtypes, dt)
		}
	}
	return dtypes
}
