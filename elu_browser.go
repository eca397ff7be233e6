package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/config"
	"github.com/zlabs/elu_browser/pack"
	"github.com/zlabs/elu_browser/status"
	"github.com/zlabs/elu_browser/vfs"
	"github.com/zlabs/elu_browser/web"
)

func main() {
	var addr, dir, iso, configPath, webPath string
	var check bool
	flag.StringVar(&addr, "i", "", "Address of server (overrides config)")
	flag.StringVar(&dir, "dir", "", "Path to folder with models and textures")
	flag.StringVar(&iso, "iso", "", "Path to iso file with models")
	flag.StringVar(&configPath, "config", config.DefaultFileName, "Path to yaml config")
	flag.StringVar(&webPath, "web", "web", "Path to browser static files")
	flag.BoolVar(&check, "check", false, "Decode every model once, print warnings and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Web.Addr = addr
	}

	log := config.MustLogger(cfg.Log)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	var root vfs.Directory
	switch {
	case iso != "":
		f := vfs.NewDirectoryDriverFile(iso)
		isoDriver, err := vfs.NewIsoDriver(f, log)
		if err != nil {
			log.Fatal("Cannot open iso", zap.String("iso", iso), zap.Error(err))
		}
		defer isoDriver.Close()
		root = isoDriver
	case dir != "":
		root = vfs.NewDirectoryDriver(dir)
	case cfg.Web.Root != "":
		root = vfs.NewDirectoryDriver(cfg.Web.Root)
	default:
		flag.PrintDefaults()
		return
	}

	opts, err := pack.OptionsFromConfig(cfg, log)
	if err != nil {
		log.Fatal("Invalid config", zap.Error(err))
	}

	if check {
		if failed := parseCheck(pack.NewPack(root, opts), log); failed != 0 {
			os.Exit(1)
		}
		return
	}

	hub := status.NewHub(log)
	defer hub.Close()
	opts.Status = hub

	if err := web.StartServer(cfg.Web.Addr, pack.NewPack(root, opts), hub, webPath, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
