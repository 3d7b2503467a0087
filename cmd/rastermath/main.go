package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/airbusgeo/godal"
	"github.com/airbusgeo/osio"
	"github.com/museotools/rastermath"
	"github.com/museotools/rastermath/gdal"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func gsparse(file string) (bucket, object string) {
	if !strings.HasPrefix(file, "gs://") {
		return
	}
	file = file[5:]
	firstSlash := strings.Index(file, "/")
	if firstSlash == -1 {
		return
	}
	obj := strings.Trim(file[firstSlash:], "/")
	if obj == "" {
		return
	}
	bucket = file[0:firstSlash]
	object = obj
	return
}

func parseDataType(name string) (rastermath.DataType, error) {
	switch strings.ToLower(name) {
	case "":
		return rastermath.Unknown, nil
	case "byte", "uint8":
		return rastermath.Byte, nil
	case "uint16":
		return rastermath.UInt16, nil
	case "int16":
		return rastermath.Int16, nil
	case "uint32":
		return rastermath.UInt32, nil
	case "int32":
		return rastermath.Int32, nil
	case "float32", "float":
		return rastermath.Float32, nil
	case "float64", "double":
		return rastermath.Float64, nil
	default:
		return rastermath.Unknown, fmt.Errorf("unknown datatype %q", name)
	}
}

// builtins maps the --function flag to a transform over the valid pixels
// of each window.
var builtins = map[string]rastermath.Function{
	"mean": func(x *mat.Dense, args rastermath.Args) (mat.Matrix, error) {
		r, c := x.Dims()
		out := mat.NewVecDense(r, nil)
		for i := 0; i < r; i++ {
			s := 0.0
			for j := 0; j < c; j++ {
				s += x.At(i, j)
			}
			out.SetVec(i, s/float64(c))
		}
		return out, nil
	},
	"sum": func(x *mat.Dense, args rastermath.Args) (mat.Matrix, error) {
		r, c := x.Dims()
		out := mat.NewVecDense(r, nil)
		for i := 0; i < r; i++ {
			s := 0.0
			for j := 0; j < c; j++ {
				s += x.At(i, j)
			}
			out.SetVec(i, s)
		}
		return out, nil
	},
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Update(position, total int) {
	if p.bar == nil {
		p.bar = progressbar.Default(int64(total), "processing")
	}
	_ = p.bar.Set(position)
}

var (
	outfile         string
	maskfile        string
	function        string
	dtypeName       string
	seed            int64
	blockSize       string
	numCachedBlocks int
)

func init() {
	mathCommand.Flags().StringVarP(&outfile, "out", "o", "out.tif", "output raster name")
	mathCommand.Flags().StringVarP(&maskfile, "mask", "m", "", "optional mask raster (nodata pixels are skipped)")
	mathCommand.Flags().StringVarP(&function, "function", "f", "mean", "function to apply (mean, sum)")
	mathCommand.Flags().StringVar(&dtypeName, "dtype", "", "output datatype (inferred when empty)")
	mathCommand.Flags().Int64Var(&seed, "seed", 0, "seed for inference sampling (0 for random)")
	mathCommand.Flags().StringVarP(&blockSize, "gs.blocksize", "b", "512k", "gs:// block size")
	mathCommand.Flags().IntVarP(&numCachedBlocks, "gs.numblocks", "n", 512, "number of gs:// blocks to cache")
}

func main() {
	err := mathCommand.Execute()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var mathCommand = &cobra.Command{
	Use:   "rastermath [flags] -- infile",
	Short: "apply a function to a raster block by block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		infile := args[0]

		fn, ok := builtins[function]
		if !ok {
			return fmt.Errorf("unknown function %q", function)
		}
		dtype, err := parseDataType(dtypeName)
		if err != nil {
			return err
		}

		if ib, _ := gsparse(infile); ib != "" {
			stcl, err := storage.NewClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create gcs storage client: %w", err)
			}
			gs, err := osio.GCSHandle(ctx, osio.GCSClient(stcl))
			if err != nil {
				return fmt.Errorf("osio.gcshandle: %w", err)
			}
			gsa, err := osio.NewAdapter(gs, osio.BlockSize(blockSize), osio.NumCachedBlocks(numCachedBlocks))
			if err != nil {
				return fmt.Errorf("osio.newadapter: %w", err)
			}
			if err := godal.RegisterVSIAdapter("gs://", gsa); err != nil {
				return fmt.Errorf("register vsi adapter: %w", err)
			}
		}
		godal.RegisterAll()

		ds, err := gdal.Open(infile)
		if err != nil {
			return err
		}
		defer ds.Close()

		eopts := []rastermath.EngineOption{
			rastermath.Logger(slog.Default()),
			rastermath.Notify(&barProgress{}),
		}
		if seed != 0 {
			eopts = append(eopts, rastermath.Seed(seed))
		}
		if maskfile != "" {
			mask, err := gdal.Open(maskfile)
			if err != nil {
				return err
			}
			defer mask.Close()
			eopts = append(eopts, rastermath.Mask(mask))
		}

		eng, err := rastermath.New(ds, gdal.Driver{}, eopts...)
		if err != nil {
			return err
		}
		ropts := []rastermath.RegisterOption{}
		if dtype != rastermath.Unknown {
			ropts = append(ropts, rastermath.OutputType(dtype))
		}
		if err := eng.Register(function, fn, outfile, ropts...); err != nil {
			return err
		}
		if err := eng.Run(ctx); err != nil {
			return err
		}
		if eng.State() == rastermath.Cancelled {
			slog.Warn("run cancelled", "out", outfile)
		}
		return nil
	},
}
