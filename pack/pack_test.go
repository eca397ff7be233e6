package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlabs/elu_browser/config"
	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/elu/elutest"
	"github.com/zlabs/elu_browser/vfs"
)

func testPack(t *testing.T) (*Pack, string) {
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "model"), 0755))
	files := map[string][]byte{
		"model/hero.elu": elutest.Triangles("Body", "Head"),
		"model/hero.png": []byte("png"),
		"empty.elu":      elutest.Empty(),
		"broken.elu":     elutest.BadMagic(),
		"notes.txt":      []byte("text"),
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), data, 0644))
	}
	return NewPack(vfs.NewDirectoryDriver(dir), Options{}), dir
}

func TestList(t *testing.T) {
	p, _ := testPack(t)
	files, err := p.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.elu", "empty.elu", "model/hero.elu"}, files)
}

func TestInstanceIsCached(t *testing.T) {
	p, _ := testPack(t)

	a, err := p.Instance("model/hero.elu")
	require.NoError(t, err)
	require.Len(t, a.Scene.Meshes, 2)
	assert.Equal(t, "model/hero.elu", a.Scene.Name)
	assert.Equal(t, elu.Version5011, a.Scene.Version)

	b, err := p.Instance("/model//hero.elu")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"model/hero.elu"}, p.Cached())

	p.Invalidate("model/hero.elu")
	assert.Empty(t, p.Cached())
	c, err := p.Instance("model/hero.elu")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestFailedDecodeNotCached(t *testing.T) {
	p, _ := testPack(t)
	s, err := p.Scene("broken.elu")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, elu.ErrBadMagic)
	assert.Empty(t, p.Cached())

	_, err = p.Scene("missing.elu")
	assert.Error(t, err)
}

func TestTextures(t *testing.T) {
	p, dir := testPack(t)

	opts := p.SceneOptions("model/hero.elu")
	assert.Equal(t, "model", opts.BaseDir)
	assert.Equal(t, ".", p.SceneOptions("empty.elu").BaseDir)

	assert.True(t, p.TextureExists(filepath.Join("model", "hero.png")))
	assert.False(t, p.TextureExists("model/hero.dds"))
	assert.False(t, p.TextureExists("model"))

	abs := filepath.Join(dir, "notes.txt")
	assert.True(t, p.TextureExists(abs))
	data, err := p.ReadTexture(abs)
	require.NoError(t, err)
	assert.Equal(t, "text", string(data))

	data, err = p.ReadTexture("model/hero.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.TextureDirectories = []string{"/textures"}
	cfg.BoneTail = [3]float32{0, 0, 1}

	opts, err := OptionsFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/textures"}, opts.TextureDirs)
	assert.Equal(t, float32(1), opts.Decode.BoneTail[2])
	assert.Nil(t, opts.Decode.Encoding)

	cfg.Encoding = "no such charset"
	_, err = OptionsFromConfig(cfg, nil)
	assert.Error(t, err)
}
