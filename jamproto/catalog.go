package jamproto

// Connectionless is the first id in the CLM_* range; ids at or above this
// are never acknowledged. AcknID is the id of ACKN itself; a message
// requires acknowledgement iff AcknID < id < Connectionless.
const (
	AcknID        = 1
	Connectionless = 1000
)

// registerServerSchema is shared, in prefixed form, by CLM_REGISTER_SERVER,
// CLM_REGISTER_SERVER_EX and (with an ip field prepended) CLM_SERVER_LIST.
var registerServerSchema = Schema{
	{"port", U16},
	{"country_id", U16},
	{"max_clients", U8},
	{"permanent", U8},
	{"name", Str2},
	{"internal_address", Str2},
	{"city", Str2},
}

var registerServerExSchema = append(append(Schema{}, registerServerSchema...), Schema{
	{"os", U8},
	{"version", Str2},
}...)

var serverListSchema = append(Schema{{"ip", IPv4}}, registerServerSchema...)

// clientInfoSchema is shared by CONN_CLIENTS_LIST and CLM_CONN_CLIENTS_LIST.
var clientInfoSchema = Schema{
	{"id", U8},
	{"country", U16},
	{"instrument", U32},
	{"skill", U8},
	{"zero", U32},
	{"name", Str2},
	{"city", Str2},
}

// Kind is one entry in the static message catalog: a symbolic name, its
// numeric id, its payload schema, and whether it decodes as a repeated
// list of records rather than a single one.
type Kind struct {
	Name       string
	ID         uint16
	Schema     Schema
	Repeatable bool
}

// catalog is the full set of message kinds this codec knows, built once at
// init time. AUDIO is handled specially by the endpoint layer (it carries
// no main frame) and is not part of this table.
var catalog = []Kind{
	{"ACKN", 1, Schema{{"id", U16}}, false},

	{"JITT_BUF_SIZE", 10, Schema{{"blocks", U16}}, false},
	{"REQ_JITT_BUF_SIZE", 11, Schema{}, false},
	{"CHANNEL_GAIN", 13, Schema{{"id", U8}, {"gain", U16}}, false},
	{"REQ_CONN_CLIENTS_LIST", 16, Schema{}, false},
	{"CHAT_TEXT", 18, Schema{{"string", Str2}}, false},
	{"NETW_TRANSPORT_PROPS", 20, Schema{
		{"base_netw_size", U32},
		{"block_size_fact", U16},
		{"num_chan", U8},
		{"sam_rate", U32},
		{"audiocod_type", U16},
		{"flags", U16},
		{"audiocod_arg", U32},
	}, false},
	{"REQ_NETW_TRANSPORT_PROPS", 21, Schema{}, false},
	{"REQ_CHANNEL_INFOS", 23, Schema{}, false},
	{"CONN_CLIENTS_LIST", 24, clientInfoSchema, true},
	{"CHANNEL_INFOS", 25, Schema{
		{"country", U16},
		{"instrument", U32},
		{"skill", U8},
		{"name", Str2},
		{"city", Str2},
	}, false},
	{"OPUS_SUPPORTED", 26, Schema{}, false},
	{"LICENCE_REQUIRED", 27, Schema{{"licence_type", U8}}, false},
	{"REQ_CHANNEL_LEVEL_LIST", 28, Schema{{"data", U8}}, false},
	{"VERSION_AND_OS", 29, Schema{{"os", U8}, {"version", Str2}}, false},
	{"CHANNEL_PAN", 30, Schema{{"id", U8}, {"panning", U16}}, false},
	{"MUTE_STATE_CHANGED", 31, Schema{{"id", U8}, {"muted", U8}}, false},
	{"CLIENT_ID", 32, Schema{{"id", U8}}, false},
	{"RECORDER_STATE", 33, Schema{{"state", U8}}, false},
	{"REQ_SPLIT_MESS_SUPPORT", 34, Schema{}, false},
	{"SPLIT_MESS_SUPPORTED", 35, Schema{}, false},

	{"CLM_PING_MS", 1001, Schema{{"time", U32}}, false},
	{"CLM_PING_MS_WITHNUMCLIENTS", 1002, Schema{{"time", U32}, {"clients", U8}}, false},
	{"CLM_SERVER_FULL", 1003, Schema{}, false},
	{"CLM_REGISTER_SERVER", 1004, registerServerSchema, false},
	{"CLM_UNREGISTER_SERVER", 1005, Schema{}, false},
	{"CLM_SERVER_LIST", 1006, serverListSchema, true},
	{"CLM_REQ_SERVER_LIST", 1007, Schema{}, false},
	{"CLM_SEND_EMPTY_MESSAGE", 1008, Schema{{"ip", IPv4}, {"port", U16}}, false},
	{"CLM_EMPTY_MESSAGE", 1009, Schema{}, false},
	{"CLM_DISCONNECTION", 1010, Schema{}, false},
	{"CLM_VERSION_AND_OS", 1011, Schema{{"os", U8}, {"version", Str2}}, false},
	{"CLM_REQ_VERSION_AND_OS", 1012, Schema{}, false},
	{"CLM_CONN_CLIENTS_LIST", 1013, clientInfoSchema, true},
	{"CLM_REQ_CONN_CLIENTS_LIST", 1014, Schema{}, false},
	{"CLM_CHANNEL_LEVEL_LIST", 1015, Schema{{"levels", Rest}}, false},
	{"CLM_REGISTER_SERVER_RESP", 1016, Schema{{"status", U8}}, false},
	{"CLM_REGISTER_SERVER_EX", 1017, registerServerExSchema, false},
	{"CLM_RED_SERVER_LIST", 1018, Schema{{"ip", IPv4}, {"port", U16}, {"name", Str1}}, true},
}

var (
	byName = map[string]Kind{}
	byID   = map[uint16]Kind{}
)

func init() {
	for _, k := range catalog {
		byName[k.Name] = k
		byID[k.ID] = k
	}
}

// KindByName looks up a message kind by its symbolic name.
func KindByName(name string) (Kind, bool) {
	k, ok := byName[name]
	return k, ok
}

// KindByID looks up a message kind by its numeric wire id. Id 0 and any id
// with no catalog entry both report ok=false.
func KindByID(id uint16) (Kind, bool) {
	if id == 0 {
		return Kind{}, false
	}
	k, ok := byID[id]
	return k, ok
}

// RequiresAck reports whether an inbound message with this id should
// trigger an automatic ACKN: true iff AcknID < id < Connectionless.
func RequiresAck(id uint16) bool {
	return id > AcknID && id < Connectionless
}
