package debug

// Well-known object types.
const (
	ObjectPropInfo            uint32 = 0x40001
	ObjectProps               uint32 = 0x40002
	ObjectFormat              uint32 = 0x40003
	ObjectParamBuffers        uint32 = 0x40004
	ObjectParamMeta           uint32 = 0x40005
	ObjectParamIO             uint32 = 0x40006
	ObjectParamProfile        uint32 = 0x40007
	ObjectParamPortConfig     uint32 = 0x40008
	ObjectParamRoute          uint32 = 0x40009
	ObjectProfiler            uint32 = 0x4000a
	ObjectParamLatency        uint32 = 0x4000b
	ObjectParamProcessLatency uint32 = 0x4000c
)

// Format property keys.
const (
	FormatMediaType      uint32 = 1
	FormatMediaSubtype   uint32 = 2
	FormatAudioFormat    uint32 = 0x10001
	FormatAudioFlags     uint32 = 0x10002
	FormatAudioRate      uint32 = 0x10003
	FormatAudioChannels  uint32 = 0x10004
	FormatAudioPosition  uint32 = 0x10005
	FormatVideoFormat    uint32 = 0x20001
	FormatVideoModifier  uint32 = 0x20002
	FormatVideoSize      uint32 = 0x20003
	FormatVideoFramerate uint32 = 0x20004
	FormatVideoMaxRate   uint32 = 0x20005
)

var objectNames = map[uint32]string{
	ObjectPropInfo:            "PropInfo",
	ObjectProps:               "Props",
	ObjectFormat:              "Format",
	ObjectParamBuffers:        "ParamBuffers",
	ObjectParamMeta:           "ParamMeta",
	ObjectParamIO:             "ParamIO",
	ObjectParamProfile:        "ParamProfile",
	ObjectParamPortConfig:     "ParamPortConfig",
	ObjectParamRoute:          "ParamRoute",
	ObjectProfiler:            "Profiler",
	ObjectParamLatency:        "ParamLatency",
	ObjectParamProcessLatency: "ParamProcessLatency",
}

// param ids, used as the object id of every param object
var paramIDs = map[uint32]string{
	0:  "Invalid",
	1:  "PropInfo",
	2:  "Props",
	3:  "EnumFormat",
	4:  "Format",
	5:  "Buffers",
	6:  "Meta",
	7:  "IO",
	8:  "EnumProfile",
	9:  "Profile",
	10: "EnumPortConfig",
	11: "PortConfig",
	12: "EnumRoute",
	13: "Route",
	14: "Control",
	15: "Latency",
	16: "ProcessLatency",
}

var formatProps = map[uint32]string{
	FormatMediaType:      "mediaType",
	FormatMediaSubtype:   "mediaSubtype",
	FormatAudioFormat:    "format",
	FormatAudioFlags:     "flags",
	FormatAudioRate:      "rate",
	FormatAudioChannels:  "channels",
	FormatAudioPosition:  "position",
	FormatVideoFormat:    "format",
	FormatVideoModifier:  "modifier",
	FormatVideoSize:      "size",
	FormatVideoFramerate: "framerate",
	FormatVideoMaxRate:   "maxFramerate",
}

var mediaTypes = map[uint32]string{
	1: "audio",
	2: "video",
	3: "image",
	4: "binary",
	5: "stream",
	6: "application",
}

var mediaSubtypes = map[uint32]string{
	1: "raw",
	2: "dsp",
}

// DefaultRegistry returns a registry preloaded with the common object types,
// param ids and format keys.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for typ, name := range objectNames {
		o := r.Object(typ, name)
		for id, idName := range paramIDs {
			o.IDs[id] = idName
		}
	}

	format := r.Object(ObjectFormat, "")
	for key, name := range formatProps {
		format.Prop(key, name)
	}
	for v, name := range mediaTypes {
		format.Props[FormatMediaType].Values[v] = name
	}
	for v, name := range mediaSubtypes {
		format.Props[FormatMediaSubtype].Values[v] = name
	}
	return r
}
