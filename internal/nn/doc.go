// Package nn implements neural network operators over tensor storage. Each operator is
// specialised per (device, dtype) through a tensor.Table and composes the device
// primitives, optionally delegating a step to a vendor kernel.
package nn
