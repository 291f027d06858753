package debug

import (
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/pod-runtime/errors"
)

// Registry names object types, object ids, property keys and Id values so
// dumps can show them symbolically. A nil *Registry names nothing.
type Registry struct {
	objects map[uint32]*ObjectInfo
}

// ObjectInfo describes one object type.
type ObjectInfo struct {
	Name  string
	IDs   map[uint32]string
	Props map[uint32]*PropInfo
}

// PropInfo describes one property key of an object type. Values names the
// Id values the property may take.
type PropInfo struct {
	Name   string
	Values map[uint32]string
}

func NewRegistry() *Registry {
	return &Registry{objects: make(map[uint32]*ObjectInfo)}
}

// Object returns the info for typ, creating it if needed. A non-empty name
// replaces the current one.
func (r *Registry) Object(typ uint32, name string) *ObjectInfo {
	o, ok := r.objects[typ]
	if !ok {
		o = &ObjectInfo{IDs: map[uint32]string{}, Props: map[uint32]*PropInfo{}}
		r.objects[typ] = o
	}
	if name != "" {
		o.Name = name
	}
	return o
}

// Prop returns the info for key, creating it if needed.
func (o *ObjectInfo) Prop(key uint32, name string) *PropInfo {
	p, ok := o.Props[key]
	if !ok {
		p = &PropInfo{Values: map[uint32]string{}}
		o.Props[key] = p
	}
	if name != "" {
		p.Name = name
	}
	return p
}

func (r *Registry) lookup(typ uint32) *ObjectInfo {
	if r == nil {
		return nil
	}
	return r.objects[typ]
}

func (r *Registry) prop(typ, key uint32) *PropInfo {
	if o := r.lookup(typ); o != nil {
		return o.Props[key]
	}
	return nil
}

// ObjectName returns the name of object type typ.
func (r *Registry) ObjectName(typ uint32) (string, bool) {
	if o := r.lookup(typ); o != nil && o.Name != "" {
		return o.Name, true
	}
	return "", false
}

// IDName returns the name of object id within object type typ.
func (r *Registry) IDName(typ, id uint32) (string, bool) {
	if o := r.lookup(typ); o != nil {
		name, ok := o.IDs[id]
		return name, ok
	}
	return "", false
}

// PropName returns the name of property key within object type typ.
func (r *Registry) PropName(typ, key uint32) (string, bool) {
	if p := r.prop(typ, key); p != nil && p.Name != "" {
		return p.Name, true
	}
	return "", false
}

// ValueName returns the name of Id value v of property key.
func (r *Registry) ValueName(typ, key, v uint32) (string, bool) {
	if p := r.prop(typ, key); p != nil {
		name, ok := p.Values[v]
		return name, ok
	}
	return "", false
}

type tomlRegistry struct {
	Objects map[string]tomlObject `toml:"objects"`
}

type tomlObject struct {
	Name  string              `toml:"name"`
	IDs   map[string]string   `toml:"ids"`
	Props map[string]tomlProp `toml:"props"`
}

type tomlProp struct {
	Name   string            `toml:"name"`
	Values map[string]string `toml:"values"`
}

// LoadTOML merges names from a TOML document into r. Table keys are numbers
// in any Go integer syntax:
//
//	[objects.0x40003]
//	name = "Format"
//	ids = { 3 = "EnumFormat", 4 = "Format" }
//
//	[objects.0x40003.props.1]
//	name = "mediaType"
//	values = { 1 = "audio", 2 = "video" }
func (r *Registry) LoadTOML(rd io.Reader) error {
	var raw tomlRegistry
	meta, err := toml.NewDecoder(rd).Decode(&raw)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode registry")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.InvalidData(errors.PhaseConfig, nil, "unknown keys: "+strings.Join(keys, ", "))
	}

	for typKey, obj := range raw.Objects {
		typ, err := parseKey(typKey, "objects")
		if err != nil {
			return err
		}
		info := r.Object(typ, obj.Name)
		for idKey, name := range obj.IDs {
			id, err := parseKey(idKey, "objects", typKey, "ids")
			if err != nil {
				return err
			}
			info.IDs[id] = name
		}
		for propKey, prop := range obj.Props {
			key, err := parseKey(propKey, "objects", typKey, "props")
			if err != nil {
				return err
			}
			p := info.Prop(key, prop.Name)
			for valKey, name := range prop.Values {
				v, err := parseKey(valKey, "objects", typKey, "props", propKey, "values")
				if err != nil {
					return err
				}
				p.Values[v] = name
			}
		}
	}
	return nil
}

func parseKey(s string, path ...string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(append(path, s)...).
			Detail("key is not a uint32").
			Cause(err).
			Build()
	}
	return uint32(v), nil
}
