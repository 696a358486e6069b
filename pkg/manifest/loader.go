package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
)

// DefaultFileName is the manifest file name unless configured otherwise
const DefaultFileName = "mum.json"

// Loader reads manifests from project directories
type Loader struct {
	fs       afero.Fs
	fileName string
}

// NewLoader creates a loader reading fileName from each project directory
func NewLoader(fs afero.Fs, fileName string) *Loader {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Loader{fs: fs, fileName: fileName}
}

// FileName returns the manifest file name
func (l *Loader) FileName() string {
	return l.fileName
}

// Load reads the manifest of the project in dir and merges overrides over
// it. A missing file, or a file holding valid JSON that is not an object,
// yields the defaults.
func (l *Loader) Load(dir string, overrides map[string]interface{}) (*Manifest, error) {
	path := filepath.Join(dir, l.fileName)
	logger := logging.GetLogger("manifest").With().Str("path", path).Logger()

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "cannot read manifest %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Msg("No manifest, using defaults")
		data = nil
	}

	m, err := Parse(data, overrides)
	if err != nil {
		var mumErr *errors.MumError
		if errors.As(err, &mumErr) {
			mumErr.Message = path + ": " + mumErr.Message
			mumErr.WithDetail("path", path)
		}
		return nil, err
	}

	logger.Debug().
		Str("name", m.Name).
		Int("maps", len(m.Install.Map)).
		Int("dependencies", len(m.Dependencies)).
		Msg("Loaded manifest")
	return m, nil
}

// Parse builds a manifest from raw JSON (nil means no file) and overrides.
func Parse(data []byte, overrides map[string]interface{}) (*Manifest, error) {
	k := koanf.New(".")

	trimmed := bytes.TrimSpace(data)
	switch {
	case data == nil:
	case len(trimmed) > 0 && trimmed[0] != '{' && json.Valid(trimmed):
		// not an object: ignored
	default:
		if err := k.Load(&rawBytesProvider{bytes: trimmed}, kjson.Parser()); err != nil {
			return nil, errors.Wrap(err, errors.ErrManifestInvalid, "manifest is not valid JSON")
		}
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, ""), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrManifestInvalid, "cannot merge dependency config")
		}
	}

	return decode(k.Raw())
}

type rawMapEntry struct {
	Source    string   `mapstructure:"source"`
	Target    string   `mapstructure:"target"`
	InstallTo string   `mapstructure:"installTo"`
	Excludes  []string `mapstructure:"excludes"`
}

type rawScripts struct {
	BeforeInstall []string `mapstructure:"beforeInstall"`
	BeforeSync    []string `mapstructure:"beforeSync"`
	AfterSync     []string `mapstructure:"afterSync"`
	AfterInstall  []string `mapstructure:"afterInstall"`
	Cleanup       []string `mapstructure:"cleanup"`
}

type rawDependency struct {
	Name      string                 `mapstructure:"name"`
	Source    string                 `mapstructure:"source"`
	Target    string                 `mapstructure:"target"`
	InstallTo string                 `mapstructure:"installTo"`
	Config    map[string]interface{} `mapstructure:"config"`
}

type rawManifest struct {
	Name    string `mapstructure:"name"`
	Install struct {
		Map      []rawMapEntry `mapstructure:"map"`
		Scripts  rawScripts    `mapstructure:"scripts"`
		Excludes []string      `mapstructure:"excludes"`
	} `mapstructure:"install"`
	Dependencies []rawDependency `mapstructure:"dependencies"`
}

func decode(raw map[string]interface{}) (*Manifest, error) {
	if err := checkShapes(raw); err != nil {
		return nil, err
	}

	var rm rawManifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &rm,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot build manifest decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestInvalid, "invalid manifest")
	}

	m := Default()
	m.Name = rm.Name
	m.Install.Excludes = nonNil(rm.Install.Excludes)
	m.Install.Scripts = Scripts{
		BeforeInstall: nonNil(rm.Install.Scripts.BeforeInstall),
		BeforeSync:    nonNil(rm.Install.Scripts.BeforeSync),
		AfterSync:     nonNil(rm.Install.Scripts.AfterSync),
		AfterInstall:  nonNil(rm.Install.Scripts.AfterInstall),
		Cleanup:       nonNil(rm.Install.Scripts.Cleanup),
	}

	if len(rm.Install.Map) > 0 {
		m.Install.DefaultMap = false
		m.Install.Map = make([]MapEntry, 0, len(rm.Install.Map))
		for _, e := range rm.Install.Map {
			target := e.Target
			if target == "" {
				target = e.InstallTo
			}
			m.Install.Map = append(m.Install.Map, MapEntry{
				Source:   orDefault(e.Source),
				Target:   orDefault(target),
				Excludes: nonNil(e.Excludes),
			})
		}
	}

	for i, d := range rm.Dependencies {
		if d.Source == "" {
			return nil, errors.Newf(errors.ErrManifestInvalid, "dependencies[%d]: source is required", i)
		}
		target := d.Target
		if target == "" {
			target = d.InstallTo
		}
		cfg := d.Config
		if cfg == nil {
			cfg = map[string]interface{}{}
		}
		m.Dependencies = append(m.Dependencies, Dependency{
			Name:   d.Name,
			Source: d.Source,
			Target: orDefault(target),
			Config: cfg,
		})
	}

	return m, nil
}

// checkShapes reports the structural errors with the field at fault.
func checkShapes(raw map[string]interface{}) error {
	if v, ok := raw["install"]; ok && v != nil {
		install, isMap := v.(map[string]interface{})
		if !isMap {
			return errors.New(errors.ErrManifestInvalid, "install must be an object")
		}
		if v, ok := install["map"]; ok && v != nil {
			entries, isList := v.([]interface{})
			if !isList {
				return errors.New(errors.ErrManifestInvalid, "install.map must be a list of {source, target} objects")
			}
			for i, e := range entries {
				if _, isObj := e.(map[string]interface{}); !isObj {
					return errors.Newf(errors.ErrManifestInvalid, "install.map[%d] must be an object", i)
				}
			}
		}
		if v, ok := install["scripts"]; ok {
			scripts, isMap := v.(map[string]interface{})
			if !isMap {
				return errors.New(errors.ErrManifestInvalid, "install.scripts must be an object of script lists")
			}
			for phase, list := range scripts {
				if err := checkStrings("install.scripts."+phase, list); err != nil {
					return err
				}
			}
		}
		if v, ok := install["excludes"]; ok {
			if err := checkStrings("install.excludes", v); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["dependencies"]; ok && v != nil {
		deps, isList := v.([]interface{})
		if !isList {
			return errors.New(errors.ErrManifestInvalid, "dependencies must be a list")
		}
		for i, d := range deps {
			if _, isObj := d.(map[string]interface{}); !isObj {
				return errors.Newf(errors.ErrManifestInvalid, "dependencies[%d] must be an object", i)
			}
		}
	}
	return nil
}

func checkStrings(field string, v interface{}) error {
	list, isList := v.([]interface{})
	if !isList {
		return errors.Newf(errors.ErrManifestInvalid, "%s must be a list of strings", field)
	}
	for i, item := range list {
		if _, isStr := item.(string); !isStr {
			return errors.Newf(errors.ErrManifestInvalid, "%s[%d] must be a string", field, i)
		}
	}
	return nil
}

func orDefault(p string) string {
	if p == "" {
		return DefaultPath
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}
