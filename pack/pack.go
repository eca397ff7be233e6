package pack

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/config"
	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/metrics"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/status"
	"github.com/zlabs/elu_browser/vfs"
)

const ModelExt = ".elu"

type Options struct {
	Decode elu.Options
	// searched after the model directory, host paths
	TextureDirs []string
	Logger      *zap.Logger
	// optional, receives decode progress and warnings
	Status *status.Hub
}

// OptionsFromConfig maps the config file onto loader options.
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) (Options, error) {
	enc, err := config.LookupEncoding(cfg.Encoding)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Decode: elu.Options{
			Encoding: enc,
			BoneTail: cfg.BoneTailVec(),
			Logger:   log,
		},
		TextureDirs: cfg.TextureDirectories,
		Logger:      log,
	}, nil
}

type Instance struct {
	Name  string
	Size  int64
	Scene *elu.Scene
	Took  time.Duration
}

// Pack loads models from a vfs directory and keeps decoded scenes around.
type Pack struct {
	d     vfs.Directory
	opts  Options
	log   *zap.Logger
	lock  sync.Mutex
	cache map[string]*Instance
}

func NewPack(d vfs.Directory, opts Options) *Pack {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pack{
		d:     d,
		opts:  opts,
		log:   log.Named("pack"),
		cache: make(map[string]*Instance),
	}
}

func (p *Pack) Directory() vfs.Directory { return p.d }

// List returns every model path under the root.
func (p *Pack) List() ([]string, error) {
	return vfs.Walk(p.d, ModelExt)
}

func cleanName(name string) string {
	return strings.Trim(path.Clean("/"+filepath.ToSlash(name)), "/")
}

func (p *Pack) load(name string) (*Instance, error) {
	f, err := vfs.DirectoryGetFile(p.d, name)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get file '%s'", name)
	}
	data, err := vfs.ReadFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot read '%s'", name)
	}

	opts := p.opts.Decode
	opts.Name = name
	if opts.Logger == nil {
		opts.Logger = p.log
	}

	start := time.Now()
	s, err := elu.Decode(data, &opts)
	took := time.Since(start)
	metrics.ObserveDecode(s, err, took)
	if err != nil {
		if p.opts.Status != nil {
			p.opts.Status.Error("%s: %v", name, err)
		}
		return nil, err
	}

	if p.opts.Status != nil {
		for _, w := range s.Warnings {
			p.opts.Status.Warning(name, w)
		}
		p.opts.Status.Info("%s decoded: %d meshes, %d warnings", name, len(s.Meshes), len(s.Warnings))
	}
	p.log.Debug("decoded",
		zap.String("file", name),
		zap.Stringer("version", s.Version),
		zap.Int("meshes", len(s.Meshes)),
		zap.Duration("took", took))

	return &Instance{Name: name, Size: int64(len(data)), Scene: s, Took: took}, nil
}

// Instance decodes name once, later calls share the result.
// Failed decodes are not cached.
func (p *Pack) Instance(name string) (*Instance, error) {
	name = cleanName(name)

	p.lock.Lock()
	defer p.lock.Unlock()
	if inst, ok := p.cache[name]; ok {
		return inst, nil
	}
	inst, err := p.load(name)
	if err != nil {
		return nil, err
	}
	p.cache[name] = inst
	return inst, nil
}

func (p *Pack) Scene(name string) (*elu.Scene, error) {
	inst, err := p.Instance(name)
	if err != nil {
		return nil, err
	}
	return inst.Scene, nil
}

func (p *Pack) Invalidate(name string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.cache, cleanName(name))
}

func (p *Pack) Cached() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	result := make([]string, 0, len(p.cache))
	for name := range p.cache {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// SceneOptions searches textures next to the model first.
func (p *Pack) SceneOptions(name string) scene.Options {
	return scene.Options{
		BaseDir:     path.Dir(cleanName(name)),
		TextureDirs: p.opts.TextureDirs,
		Logger:      p.log,
	}
}

// TextureExists checks the vfs first, then the host for absolute paths
// coming from the texture directories.
func (p *Pack) TextureExists(name string) bool {
	if vfs.Exists(p.d, name) {
		return true
	}
	if filepath.IsAbs(name) {
		st, err := os.Stat(name)
		return err == nil && !st.IsDir()
	}
	return false
}

func (p *Pack) ReadTexture(name string) ([]byte, error) {
	data, err := vfs.DirectoryReadFile(p.d, name)
	if err == nil {
		return data, nil
	}
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	return nil, err
}
