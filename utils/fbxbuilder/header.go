package fbxbuilder

import (
	"path/filepath"
	"sort"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
)

// Application identifies the writer in the document header.
type Application struct {
	Vendor  string
	Name    string
	Version string
}

var DefaultApplication = Application{Vendor: "zlabs", Name: "elu_browser", Version: "1.0"}

const sdkCreator = "FBX SDK/FBX Plugins version 2013.3 build=20121223"

// Timestamps are pinned so exports of the same model are byte identical.
const (
	epochGMT      = "01/01/1970 00:00:00.000"
	epochCreation = "1970-01-01 10:00:00:000"
)

var fileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1,
}

func str(name, value string) *fbx.Node { return bfbx73.P(name, "KString", "", "", value) }
func flag(name string, on bool) *fbx.Node {
	v := int32(0)
	if on {
		v = 1
	}
	return bfbx73.P(name, "bool", "", "", v)
}
func enum(name string, v int32) *fbx.Node    { return bfbx73.P(name, "enum", "", "", v) }
func integer(name string, v int32) *fbx.Node { return bfbx73.P(name, "int", "Integer", "", v) }
func number(name string, v float64) *fbx.Node {
	return bfbx73.P(name, "Number", "", "A", v)
}
func color(name string, v float64) *fbx.Node {
	return bfbx73.P(name, "Color", "", "A", v, v, v)
}

// documentInfo stamps the application twice, as the original writer
// and as the last one to save.
func (a Application) documentInfo(filename string) *fbx.Node {
	props := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
	)
	for _, stamp := range []string{"Original", "LastSaved"} {
		props.AddNodes(
			bfbx73.P(stamp, "Compound", "", ""),
			str(stamp+"|ApplicationVendor", a.Vendor),
			str(stamp+"|ApplicationName", a.Name),
			str(stamp+"|ApplicationVersion", a.Version),
			bfbx73.P(stamp+"|DateTime_GMT", "DateTime", "", "", epochGMT),
		)
		if stamp == "Original" {
			props.AddNodes(str("Original|FileName", filepath.Base(filename)))
		}
	}

	meta := bfbx73.MetaData().AddNodes(bfbx73.Version(100))
	for _, field := range []func(string) *fbx.Node{
		bfbx73.Title, bfbx73.Subject, bfbx73.Author, bfbx73.Keywords, bfbx73.Revision, bfbx73.Comment,
	} {
		meta.AddNodes(field(""))
	}

	return bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
		bfbx73.Type("UserData"),
		bfbx73.Version(100),
		meta,
		props,
	)
}

func (a Application) headerExtension(filename string) *fbx.Node {
	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(7400),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970), bfbx73.Month(1), bfbx73.Day(1),
			bfbx73.Hour(10), bfbx73.Minute(0), bfbx73.Second(0), bfbx73.Millisecond(0),
		),
		bfbx73.Creator(sdkCreator),
		a.documentInfo(filename),
	)
}

// globalSettings declares the elu axes: z up, -y forward, meters.
func globalSettings() *fbx.Node {
	props := bfbx73.Properties70()
	for _, axis := range []struct {
		name       string
		index, dir int32
	}{
		{"UpAxis", 2, 1},
		{"FrontAxis", 1, -1},
		{"CoordAxis", 0, 1},
		{"OriginalUpAxis", 2, 1},
	} {
		props.AddNodes(integer(axis.name, axis.index), integer(axis.name+"Sign", axis.dir))
	}
	props.AddNodes(
		bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
		bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
		bfbx73.P("AmbientColor", "ColorRGB", "Color", "", float64(0), float64(0), float64(0)),
	)
	return bfbx73.GlobalSettings().AddNodes(bfbx73.Version(1000), props)
}

func sceneDocument(id int64) *fbx.Node {
	return bfbx73.Documents().AddNodes(
		bfbx73.Count(1),
		bfbx73.Document(id, "Scene", "Scene").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("SourceObject", "object", "", ""),
				str("ActiveAnimStackName", ""),
			),
			bfbx73.RootNode(0),
		),
	)
}

// propertyTemplate returns the defaults importers assume for objects of
// the given type, nil for types written without a template.
func propertyTemplate(objectType string) *fbx.Node {
	var class string
	var props []*fbx.Node
	switch objectType {
	case "Model":
		class = "FbxNode"
		props = []*fbx.Node{
			enum("QuaternionInterpolate", 0),
			flag("Show", true),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
			bfbx73.P("Visibility Inheritance", "Visibility Inheritance", "", "", int32(1)),
		}
	case "Material":
		class = "FbxSurfacePhong"
		props = []*fbx.Node{str("ShadingModel", "Phong"), flag("MultiLayer", false)}
		for _, c := range []struct {
			name  string
			value float64
		}{{"Emissive", 0}, {"Ambient", 0.2}, {"Diffuse", 1}, {"Specular", 0.2}} {
			props = append(props, color(c.name+"Color", c.value), number(c.name+"Factor", 1))
		}
	case "Texture":
		class = "FbxFileTexture"
		props = []*fbx.Node{
			enum("TextureTypeUse", 0),
			number("Texture alpha", 1),
			enum("CurrentMappingType", 0),
			enum("WrapModeU", 0),
			enum("WrapModeV", 0),
			flag("UVSwap", false),
			flag("PremultiplyAlpha", true),
			flag("UseMaterial", false),
			flag("UseMipMap", false),
		}
	case "Video":
		class = "FbxVideo"
		props = []*fbx.Node{
			flag("ImageSequence", false),
			integer("Width", 0),
			integer("Height", 0),
			bfbx73.P("Path", "KString", "XRefUrl", "", ""),
		}
	case "Geometry":
		class = "FbxMesh"
		props = []*fbx.Node{
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
			flag("Primary Visibility", true),
			flag("Casts Shadows", true),
			flag("Receive Shadows", true),
		}
	case "NodeAttribute":
		class = "FbxNull"
		props = []*fbx.Node{
			bfbx73.P("Size", "double", "Number", "", float64(100)),
			enum("Look", 1),
		}
	default:
		return nil
	}
	return bfbx73.PropertyTemplate(class).AddNodes(bfbx73.Properties70().AddNodes(props...))
}

// definitions counts the objects by type. GlobalSettings is always
// declared once.
func definitions(objects *fbx.Node) []*fbx.Node {
	counts := make(map[string]int32)
	for _, object := range objects.Nodes {
		counts[object.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	total := int32(1)
	types := []*fbx.Node{bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1))}
	for _, name := range names {
		total += counts[name]
		ot := bfbx73.ObjectType(name).AddNodes(bfbx73.Count(counts[name]))
		if tmpl := propertyTemplate(name); tmpl != nil {
			ot.AddNodes(tmpl)
		}
		types = append(types, ot)
	}
	return append([]*fbx.Node{bfbx73.Version(100), bfbx73.Count(total)}, types...)
}
