// cmd_run.go - Interpolation eines Frame-Paars auf der Kommandozeile
// Hauptfunktionen: RunHandler, loadInputs, loadDepth, writeFlow
package cmd

import (
	"encoding/binary"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pyrflow/pyrflow/envconfig"
	"github.com/pyrflow/pyrflow/logutil"
	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/model"
	"github.com/pyrflow/pyrflow/model/models/rgbd"
	"github.com/pyrflow/pyrflow/vision"
)

// RunHandler - Laedt das Modell und interpoliert ein Frame-Paar
func RunHandler(cmd *cobra.Command, args []string) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))

	timePeriod, _ := cmd.Flags().GetFloat32("time")
	output, _ := cmd.Flags().GetString("output")
	flowPath, _ := cmd.Flags().GetString("flow")

	m, err := model.New(args[0], ml.BackendParams{NumThreads: runtime.NumCPU()})
	if err != nil {
		return err
	}
	defer m.Backend().Close()

	rm, ok := m.(*rgbd.Model)
	if !ok {
		return fmt.Errorf("model %q is not an interpolation model", args[0])
	}

	opts := *rm.Options
	if cmd.Flags().Changed("levels") {
		opts.PyramidLevels, _ = cmd.Flags().GetInt("levels")
	}
	if cmd.Flags().Changed("skip") {
		opts.SkippedLevels, _ = cmd.Flags().GetInt("skip")
	}

	img0, img1, err := loadInputs(cmd, opts.PyramidLevels)
	if err != nil {
		return err
	}

	ctx := m.Backend().NewContext()
	defer ctx.Close()

	t0 := vision.ImageToTensor(ctx, img0)
	t1 := vision.ImageToTensor(ctx, img1)

	d0, err := loadDepth(cmd, ctx, "depth0", img0)
	if err != nil {
		return err
	}
	d1, err := loadDepth(cmd, ctx, "depth1", img1)
	if err != nil {
		return err
	}

	slog.Debug("interpolating", "width", img0.Width, "height", img0.Height,
		"time", timePeriod, "levels", opts.PyramidLevels, "skip", opts.SkippedLevels)

	res, err := rm.Interpolate(ctx, t0, t1, d0, d1, timePeriod, &opts)
	if err != nil {
		return err
	}

	out, err := vision.TensorToImage(res.Frame)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, out); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)

	if flowPath != "" {
		if err := writeFlow(flowPath, res.Flow); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", flowPath)
	}

	return nil
}

// loadInputs laedt beide Frames, richtet Frame 0 an der Pyramiden-Teilbarkeit
// aus und bringt Frame 1 auf dieselbe Groesse
func loadInputs(cmd *cobra.Command, levels int) (*vision.ImageInput, *vision.ImageInput, error) {
	p0, _ := cmd.Flags().GetString("img0")
	p1, _ := cmd.Flags().GetString("img1")

	img0, err := vision.LoadImage(p0)
	if err != nil {
		return nil, nil, err
	}
	img1, err := vision.LoadImage(p1)
	if err != nil {
		return nil, nil, err
	}

	img0, err = vision.AlignToPyramid(img0, 1<<(levels+2))
	if err != nil {
		return nil, nil, err
	}
	if img1.Width != img0.Width || img1.Height != img0.Height {
		img1, err = vision.ResizeImage(img1, img0.Width, img0.Height)
		if err != nil {
			return nil, nil, err
		}
	}

	return img0, img1, nil
}

// loadDepth liest ein optionales Tiefenbild; fehlt das Flag, wird die
// Luminanz des RGB-Frames als Ersatz-Tiefe verwendet
func loadDepth(cmd *cobra.Command, ctx ml.Context, flag string, rgb *vision.ImageInput) (ml.Tensor, error) {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" {
		return vision.DepthFromLuminance(ctx, rgb), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t, err := vision.DepthToTensor(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Tiefe auf die Frame-Groesse bringen
	if t.Dim(2) != rgb.Height || t.Dim(3) != rgb.Width {
		t = t.Interpolate(ctx, [4]int{1, 3, rgb.Height, rgb.Width}, ml.SamplingModeBilinear)
	}

	return t, nil
}

// writeFlow schreibt den bidirektionalen Fluss als Binaerdatei:
// 4 uint32 Dimensionen (n, c, h, w), danach float32-Werte little-endian
func writeFlow(path string, flow ml.Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dims := [4]uint32{
		uint32(flow.Dim(0)), uint32(flow.Dim(1)),
		uint32(flow.Dim(2)), uint32(flow.Dim(3)),
	}
	if err := binary.Write(f, binary.LittleEndian, dims); err != nil {
		return err
	}

	return binary.Write(f, binary.LittleEndian, flow.Floats())
}

// newRunCmd - Erstellt den run Command
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run MODEL",
		Short: "Interpolate a frame between two images",
		Args:  cobra.ExactArgs(1),
		RunE:  RunHandler,
	}

	runCmd.Flags().String("img0", "", "Path to the first frame (required)")
	runCmd.Flags().String("img1", "", "Path to the second frame (required)")
	runCmd.Flags().String("depth0", "", "Depth map for the first frame (16-bit grayscale PNG)")
	runCmd.Flags().String("depth1", "", "Depth map for the second frame (16-bit grayscale PNG)")
	runCmd.Flags().Float32P("time", "t", 0.5, "Target time between the frames, in (0, 1)")
	runCmd.Flags().StringP("output", "o", "out.png", "Output path for the interpolated frame")
	runCmd.Flags().Int("levels", 0, "Override the pyramid depth")
	runCmd.Flags().Int("skip", 0, "Override the number of skipped levels")
	runCmd.Flags().String("flow", "", "Also write the bidirectional flow to this file")

	runCmd.MarkFlagRequired("img0") //nolint:errcheck
	runCmd.MarkFlagRequired("img1") //nolint:errcheck

	return runCmd
}
