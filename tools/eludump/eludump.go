package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zlabs/elu_browser/config"
	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/utils"
)

func main() {
	var in, configPath, mode string
	flag.StringVar(&in, "in", "", "Model file to dump")
	flag.StringVar(&configPath, "config", config.DefaultFileName, "Path to yaml config")
	flag.StringVar(&mode, "mode", "spew", "spew, yaml, warnings or calls (sink calls a converter would make)")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		return
	}

	if err := dump(in, configPath, mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(in, configPath, mode string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	enc, err := config.LookupEncoding(cfg.Encoding)
	if err != nil {
		return err
	}
	log := config.MustLogger(cfg.Log)
	defer log.Sync()

	s, err := elu.DecodeFile(in, &elu.Options{
		Encoding: enc,
		BoneTail: cfg.BoneTailVec(),
		Logger:   log,
	})
	if err != nil {
		return err
	}

	switch mode {
	case "spew":
		utils.FDump(os.Stdout, s)
	case "yaml":
		e := yaml.NewEncoder(os.Stdout)
		e.SetIndent(2)
		if err := e.Encode(s); err != nil {
			return err
		}
		return e.Close()
	case "warnings":
		for _, w := range s.Warnings {
			fmt.Println(w)
		}
	case "calls":
		rec := scene.NewRecorder()
		rec.Exists = func(path string) bool {
			st, err := os.Stat(path)
			return err == nil && !st.IsDir()
		}
		if _, err := scene.Materialize(s, rec, scene.Options{
			BaseDir:     filepath.Dir(in),
			TextureDirs: cfg.TextureDirectories,
			Logger:      log,
		}); err != nil {
			return err
		}
		for _, c := range rec.Calls {
			fmt.Println(c)
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	return nil
}
