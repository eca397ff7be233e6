package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/config"
	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/exporter"
	"github.com/zlabs/elu_browser/metrics"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/utils"
)

func main() {
	var in, out, configPath string
	var trace, embed bool
	flag.StringVar(&in, "in", "", "Model file to convert")
	flag.StringVar(&out, "out", "", "Output file, format by extension: .glb .gltf .fbx .zip")
	flag.StringVar(&configPath, "config", config.DefaultFileName, "Path to yaml config")
	flag.BoolVar(&trace, "trace", false, "Write decode offsets to the trace directory")
	flag.BoolVar(&embed, "embed", false, "Embed images into glTF output")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		return
	}
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".glb"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := config.MustLogger(cfg.Log)
	defer log.Sync()

	if err := convert(cfg, log, in, out, trace, embed); err != nil {
		log.Fatal("Conversion failed", zap.String("in", in), zap.String("out", out), zap.Error(err))
	}
}

func convert(cfg *config.Config, log *zap.Logger, in, out string, trace, embed bool) error {
	format, err := exporter.FormatFromPath(out)
	if err != nil {
		return err
	}
	enc, err := config.LookupEncoding(cfg.Encoding)
	if err != nil {
		return err
	}

	opts := &elu.Options{
		Encoding: enc,
		BoneTail: cfg.BoneTailVec(),
		Logger:   log,
	}
	if trace {
		if err := os.MkdirAll(cfg.Log.TraceDir, 0777); err != nil {
			return err
		}
		tf, err := os.Create(filepath.Join(cfg.Log.TraceDir, filepath.Base(in)+".log"))
		if err != nil {
			return err
		}
		defer tf.Close()
		tw := bufio.NewWriter(tf)
		defer tw.Flush()
		opts.Trace = &utils.Logger{Writer: tw}
	}

	start := time.Now()
	s, err := elu.DecodeFile(in, opts)
	metrics.ObserveDecode(s, err, time.Since(start))
	if err != nil {
		return err
	}
	for _, w := range s.Warnings {
		log.Warn(w.Message, zap.Stringer("kind", w.Kind), zap.Int("mesh", w.Mesh), zap.Int("offset", w.Offset))
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	err = exporter.Export(f, s, format, exporter.Options{
		Scene: scene.Options{
			BaseDir:     filepath.Dir(in),
			TextureDirs: cfg.TextureDirectories,
		},
		EmbedImages: embed,
		RelativeTo:  filepath.Dir(out),
		Logger:      log,
	})
	if err != nil {
		return err
	}

	log.Info("Converted",
		zap.String("in", in),
		zap.String("out", out),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("warnings", len(s.Warnings)))
	return nil
}
