package vfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mogaika/udf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const SectorSize = 2048

// IsoDriver exposes the root directory of a (possibly dual layer) udf disc image.
type IsoDriver struct {
	f                File
	log              *zap.Logger
	layers           [2]*udf.Udf
	secondLayerStart int64
}

func (iso *IsoDriver) Init(parent Directory) {}
func (iso *IsoDriver) Name() string          { return iso.f.Name() }
func (iso *IsoDriver) IsDirectory() bool     { return true }

func (iso *IsoDriver) List() ([]string, error) {
	result := make([]string, 0, 48)
	for _, layer := range iso.layers {
		if layer != nil {
			for _, file := range layer.ReadDir(nil) {
				result = append(result, file.Name())
			}
		}
	}
	return result, nil
}

func (iso *IsoDriver) GetElement(name string) (Element, error) {
	for _, layer := range iso.layers {
		if layer != nil {
			dir := layer.ReadDir(nil)
			for i := range dir {
				if strings.EqualFold(dir[i].Name(), name) {
					return &IsoDriverFile{
						iso: iso,
						f:   dir[i]}, nil
				}
			}
		}
	}
	return nil, os.ErrNotExist
}

func (iso *IsoDriver) OpenStreams() error {
	if err := iso.f.Open(); err != nil {
		return errors.Wrapf(err, "Cannot open iso '%s'", iso.f.Name())
	}
	iso.layers[0] = udf.NewUdfFromReader(iso.f)

	var volSizeBuf [4]byte
	// primary volume description sector + offset of volume space size
	if _, err := iso.f.ReadAt(volSizeBuf[:], 0x10*SectorSize+80); err != nil {
		iso.log.Warn("second layer detection failed", zap.Error(err))
		return nil
	}
	// minus 16 boot sectors, because they do not replicated over layers (volumes)
	volumeSize := int64(binary.LittleEndian.Uint32(volSizeBuf[:])-16) * SectorSize
	if volumeSize+32*SectorSize < iso.f.Size() {
		iso.layers[1] = udf.NewUdfFromReader(io.NewSectionReader(iso.f, volumeSize, iso.f.Size()-volumeSize))
		iso.log.Info("detected second layer of disk",
			zap.String("start", fmt.Sprintf("0x%x", volumeSize+16*SectorSize)))
		iso.secondLayerStart = volumeSize
	}
	return nil
}

func (iso *IsoDriver) Close() error {
	return iso.f.Close()
}

func NewIsoDriver(f File, log *zap.Logger) (*IsoDriver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	iso := &IsoDriver{f: f, log: log.With(zap.String("iso", f.Name()))}
	return iso, iso.OpenStreams()
}

type IsoDriverFile struct {
	iso *IsoDriver
	f   udf.File
}

func (f *IsoDriverFile) Init(parent Directory) {}
func (f *IsoDriverFile) Name() string          { return f.f.Name() }
func (f *IsoDriverFile) IsDirectory() bool     { return f.f.IsDir() }
func (f *IsoDriverFile) Size() int64           { return f.f.Size() }
func (f *IsoDriverFile) Open() error           { return nil }
func (f *IsoDriverFile) Close() error          { return nil }
func (f *IsoDriverFile) Reader() (*io.SectionReader, error) {
	return f.f.NewReader(), nil
}
func (f *IsoDriverFile) ReadAt(b []byte, off int64) (n int, err error) {
	return f.f.NewReader().ReadAt(b, off)
}
