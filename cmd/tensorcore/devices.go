package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/tensorcore/backend/emulated"
	"github.com/born-ml/tensorcore/internal/tensor"
)

type deviceInfo struct {
	Device        string   `json:"device"`
	Backend       string   `json:"backend"`
	Host          bool     `json:"host"`
	DataTypes     []string `json:"dtypes"`
	VendorKernels []string `json:"vendor_kernels,omitempty"`

	Pool *emulated.PoolStats `json:"pool,omitempty"`
}

func devicesCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "devices",
		Usage: "List registered devices, their element types and vendor kernels",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			infos := deviceInfos()
			if asJSON {
				out, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(os.Stdout, string(out))
				return err
			}
			for _, info := range infos {
				fmt.Printf("%-9s backend=%-9s dtypes=%s", info.Device, info.Backend, strings.Join(info.DataTypes, ","))
				if len(info.VendorKernels) > 0 {
					fmt.Printf(" kernels=%s", strings.Join(info.VendorKernels, ","))
				}
				if info.Pool != nil {
					fmt.Printf(" pool(hits=%d misses=%d idle=%d)", info.Pool.Hits, info.Pool.Misses, info.Pool.Idle)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func deviceInfos() []deviceInfo {
	var infos []deviceInfo
	for _, d := range tensor.RegisteredDevices() {
		info := deviceInfo{
			Device:  d.String(),
			Backend: tensor.BackendName(d),
			Host:    d.IsHost(),
		}
		for _, dt := range tensor.SupportedDataTypes(d) {
			info.DataTypes = append(info.DataTypes, dt.String())
		}
		for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64} {
			if tensor.HasBatchNormKernel(d, dt) {
				info.VendorKernels = append(info.VendorKernels, vendorKernelName(d, dt))
			}
		}
		if d == tensor.Emulated {
			stats := emulated.Stats()
			info.Pool = &stats
		}
		infos = append(infos, info)
	}
	return infos
}

func vendorKernelName(d tensor.Device, dt tensor.DataType) string {
	var name string
	if dt == tensor.Float64 {
		k, _ := tensor.BatchNormKernelFor[float64](d)
		name = k.Name()
	} else {
		k, _ := tensor.BatchNormKernelFor[float32](d)
		name = k.Name()
	}
	return name + "/" + dt.String()
}
