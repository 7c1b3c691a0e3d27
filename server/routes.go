// routes.go - HTTP-Router und Handler des Interpolations-Servers
// Enthaelt: Server, GenerateRoutes, InterpolateHandler

package server

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pyrflow/pyrflow/api"
	"github.com/pyrflow/pyrflow/envconfig"
	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/model"
	"github.com/pyrflow/pyrflow/model/models/rgbd"
	"github.com/pyrflow/pyrflow/version"
	"github.com/pyrflow/pyrflow/vision"
)

// Server haelt das geladene Modell und die Listener-Adresse
type Server struct {
	addr  net.Addr
	model *rgbd.Model
}

// NewServer laedt das Modell und erstellt den Server
func NewServer(modelPath string, addr net.Addr) (*Server, error) {
	m, err := model.New(modelPath, ml.BackendParams{})
	if err != nil {
		return nil, err
	}

	rm, ok := m.(*rgbd.Model)
	if !ok {
		return nil, fmt.Errorf("modell %q ist keine interpolations-architektur", modelPath)
	}

	return &Server{addr: addr, model: rm}, nil
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
		requestLogger(),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "Pyrflow is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Pyrflow is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version}) })

	// Inference
	r.POST("/api/interpolate", s.InterpolateHandler)

	return r
}

// InterpolateHandler verarbeitet eine Interpolations-Anfrage:
// Multipart-Dateien img0/img1 (optional depth0/depth1), Formular-Felder
// time/levels/skip; Antwort ist das PNG des interpolierten Frames
func (s *Server) InterpolateHandler(c *gin.Context) {
	timePeriod := float32(0.5)
	if v := c.PostForm("time"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "time ist keine zahl"})
			return
		}
		timePeriod = float32(f)
	}

	opts := *s.model.Options
	if v := c.PostForm("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "levels ist keine zahl"})
			return
		}
		opts.PyramidLevels = n
	}
	if v := c.PostForm("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "skip ist keine zahl"})
			return
		}
		opts.SkippedLevels = n
	}

	img0, err := formImage(c, "img0")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	img1, err := formImage(c, "img1")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	// beide Frames auf dieselbe pyramiden-taugliche Groesse bringen
	divisor := 1 << (opts.PyramidLevels + 2)
	img0, err = vision.AlignToPyramid(img0, divisor)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if img1.Width != img0.Width || img1.Height != img0.Height {
		img1, err = vision.ResizeImage(img1, img0.Width, img0.Height)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	ctx := s.model.Backend().NewContext()
	defer ctx.Close()

	t0 := vision.ImageToTensor(ctx, img0)
	t1 := vision.ImageToTensor(ctx, img1)

	d0, err := formDepth(c, ctx, "depth0", img0)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	d1, err := formDepth(c, ctx, "depth1", img1)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := s.model.Interpolate(ctx, t0, t1, d0, d1, timePeriod, &opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rgbd.ErrShapeViolation) ||
			errors.Is(err, rgbd.ErrPyramidConfig) ||
			errors.Is(err, rgbd.ErrTimePeriod) {
			status = http.StatusBadRequest
		}
		c.JSON(status, api.ErrorResponse{Error: err.Error()})
		return
	}

	out, err := vision.TensorToImage(res.Frame)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// formImage liest und dekodiert eine Multipart-Bilddatei
func formImage(c *gin.Context, field string) (*vision.ImageInput, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("feld %q fehlt", field)
	}

	data, err := readFormFile(file)
	if err != nil {
		return nil, err
	}

	img, err := vision.LoadImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("feld %q: %w", field, err)
	}

	return img, nil
}

// formDepth liest ein optionales Tiefenbild; fehlt es, wird die Luminanz
// des zugehoerigen RGB-Frames als Ersatz-Tiefe verwendet
func formDepth(c *gin.Context, ctx ml.Context, field string, rgb *vision.ImageInput) (ml.Tensor, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return vision.DepthFromLuminance(ctx, rgb), nil
	}

	data, err := readFormFile(file)
	if err != nil {
		return nil, err
	}

	t, err := vision.DepthToTensor(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("feld %q: %w", field, err)
	}

	// Tiefe auf die Frame-Groesse bringen
	if t.Dim(2) != rgb.Height || t.Dim(3) != rgb.Width {
		t = t.Interpolate(ctx, [4]int{1, 3, rgb.Height, rgb.Width}, ml.SamplingModeBilinear)
	}

	return t, nil
}

// readFormFile liest den Inhalt einer Multipart-Datei
func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
