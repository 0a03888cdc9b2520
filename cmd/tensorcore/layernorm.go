package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/tensorcore/internal/nn"
	"github.com/born-ml/tensorcore/internal/tensor"
)

type layerNormRun struct {
	Device  tensor.Device
	DType   tensor.DataType
	Batch   int
	Depth   int
	Generic bool
	Seed    uint64
}

type layerNormResult struct {
	Path         string
	MaxDeviation float64
	Elapsed      time.Duration
}

func layerNormCmd() *cli.Command {
	var (
		deviceName string
		dtypeName  string
		run        layerNormRun
	)

	return &cli.Command{
		Name:  "layernorm",
		Usage: "Run LayerNorm on a device and compare it with a float64 host reference",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "device (default from config)", Destination: &deviceName},
			&cli.StringFlag{Name: "dtype", Usage: "float32 or float64 (default from config)", Destination: &dtypeName},
			&cli.IntFlag{Name: "batch", Value: 8, Usage: "number of rows", Destination: &run.Batch},
			&cli.IntFlag{Name: "depth", Value: 64, Usage: "features per row", Destination: &run.Depth},
			&cli.BoolFlag{Name: "generic", Usage: "skip the vendor kernel", Destination: &run.Generic},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "random seed", Destination: &run.Seed},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			device, dtype, err := cfg.Targets()
			if err != nil {
				return err
			}
			if deviceName != "" {
				if device, err = tensor.ParseDevice(deviceName); err != nil {
					return err
				}
			}
			if dtypeName != "" {
				if dtype, err = tensor.ParseDataType(dtypeName); err != nil {
					return err
				}
			}
			run.Device, run.DType = device, dtype

			res, err := runLayerNorm(run)
			if err != nil {
				return err
			}
			fmt.Printf("device=%s dtype=%s path=%s batch=%d depth=%d max_deviation=%.3g elapsed=%s\n",
				run.Device, run.DType, res.Path, run.Batch, run.Depth, res.MaxDeviation, res.Elapsed)
			return nil
		},
	}
}

// runLayerNorm executes one LayerNorm and measures its largest deviation from an
// independent float64 reference. Contract violations come back as errors.
func runLayerNorm(r layerNormRun) (res layerNormResult, err error) {
	if !r.DType.IsFloat() {
		return res, errors.Errorf("layernorm needs float32 or float64, got %s", r.DType)
	}
	if !tensor.IsRegistered(r.Device) {
		return res, errors.Errorf("device %s is not available", r.Device)
	}
	defer func() {
		if v := recover(); v != nil {
			if !tensor.IsContractViolation(v) {
				panic(v)
			}
			err = v.(error)
		}
	}()

	rng := rand.New(rand.NewPCG(r.Seed, r.Seed^0x9e3779b97f4a7c15))
	x := randomValues(rng, r.Batch*r.Depth, 3, 1)
	gamma := randomValues(rng, r.Depth, 1, 1)
	beta := randomValues(rng, r.Depth, 1, 0)

	ctx := tensor.NewContext(r.Device)
	defer ctx.Close()

	shape := tensor.Shape{r.Batch, r.Depth}
	ln := &nn.LayerNorm{
		Gamma:   fromValues(tensor.Shape{r.Depth}, gamma, r.DType, r.Device),
		Beta:    fromValues(tensor.Shape{r.Depth}, beta, r.DType, r.Device),
		Generic: r.Generic,
	}
	input := fromValues(shape, x, r.DType, r.Device)
	output := tensor.New(shape, r.DType, r.Device)

	res.Path = "generic"
	if !r.Generic && tensor.HasBatchNormKernel(r.Device, r.DType) {
		res.Path = "vendor"
	}

	start := time.Now()
	ln.Forward(ctx, input, output)
	res.Elapsed = time.Since(start)

	got := toValues(output)
	want := reference(x, gamma, beta)
	for i := range want {
		res.MaxDeviation = math.Max(res.MaxDeviation, math.Abs(got[i]-want[i]))
	}

	logrus.WithFields(logrus.Fields{
		"device":  r.Device,
		"dtype":   r.DType,
		"path":    res.Path,
		"context": ctx.ID(),
	}).Debug("layernorm run complete")
	return res, nil
}

func randomValues(rng *rand.Rand, n int, scale, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()*scale + offset
	}
	return out
}

func fromValues(shape tensor.Shape, values []float64, dtype tensor.DataType, device tensor.Device) *tensor.Storage {
	if dtype == tensor.Float64 {
		return tensor.FromSlice(shape, values, device)
	}
	f32 := make([]float32, len(values))
	for i, v := range values {
		f32[i] = float32(v)
	}
	return tensor.FromSlice(shape, f32, device)
}

func toValues(s *tensor.Storage) []float64 {
	if s.DType() == tensor.Float64 {
		return tensor.ToSlice[float64](s)
	}
	f32 := tensor.ToSlice[float32](s)
	out := make([]float64, len(f32))
	for i, v := range f32 {
		out[i] = float64(v)
	}
	return out
}

func reference(x, gamma, beta []float64) []float64 {
	depth := len(gamma)
	out := make([]float64, len(x))
	for start := 0; start < len(x); start += depth {
		row := x[start : start+depth]
		var mean, sq float64
		for _, v := range row {
			mean += v
		}
		mean /= float64(depth)
		for _, v := range row {
			sq += (v - mean) * (v - mean)
		}
		inv := 1 / math.Sqrt(sq/float64(depth)+nn.MinEpsilon)
		for j, v := range row {
			out[start+j] = (v-mean)*inv*gamma[j] + beta[j]
		}
	}
	return out
}
