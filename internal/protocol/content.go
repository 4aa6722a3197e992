package protocol

import "fmt"

// Content is implemented by every packet body variant. encodeBody never
// fails (serialization is total per the wire format); decoding is done
// by the package-level decodeContent dispatcher below.
type Content interface {
	Tag() Tag
	encodeBody() []byte
}

// ConnectionType distinguishes a fresh handshake from a reconnect.
type ConnectionType uint32

const (
	ConnectionFirst     ConnectionType = 0
	ConnectionReconnect ConnectionType = 1
)

// Unknown is produced for tag 0 and for any tag this codec does not
// recognize. Its body is preserved verbatim but otherwise ignored by
// the relay.
type Unknown struct {
	Raw []byte
}

func (Unknown) Tag() Tag                { return TagUnknown }
func (u Unknown) encodeBody() []byte    { return append([]byte(nil), u.Raw...) }
func decodeUnknown(body []byte) Content { return Unknown{Raw: append([]byte(nil), body...)} }

// Init announces the server's configured player cap to a newly accepted
// (not yet handshaken) connection.
type Init struct {
	MaxPlayer int16
}

func (Init) Tag() Tag { return TagInit }
func (c Init) encodeBody() []byte {
	buf := make([]byte, 2)
	putUint16(buf[0:2], uint16(c.MaxPlayer))
	return buf
}
func decodeInit(body []byte) (Content, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("protocol: Init body too short: %d bytes", len(body))
	}
	return Init{MaxPlayer: int16(getUint16(body[0:2]))}, nil
}

// PlayerPose carries a player's transform, blend weights, and current
// animation action/sub-action. This is the highest-frequency packet.
type PlayerPose struct {
	Position     Vec3
	Rotation     Quat
	BlendWeights [6]float32
	Act          uint16
	Subact       uint16
}

func (PlayerPose) Tag() Tag { return TagPlayer }
func (c PlayerPose) encodeBody() []byte {
	buf := make([]byte, 56)
	putVec3(buf[0:12], c.Position)
	putQuat(buf[12:28], c.Rotation)
	for i, w := range c.BlendWeights {
		putFloat32(buf[28+i*4:32+i*4], w)
	}
	putUint16(buf[52:54], c.Act)
	putUint16(buf[54:56], c.Subact)
	return buf
}
func decodePlayerPose(body []byte) (Content, error) {
	if len(body) < 56 {
		return nil, fmt.Errorf("protocol: Player body too short: %d bytes", len(body))
	}
	var c PlayerPose
	c.Position = getVec3(body[0:12])
	c.Rotation = getQuat(body[12:28])
	for i := range c.BlendWeights {
		c.BlendWeights[i] = getFloat32(body[28+i*4 : 32+i*4])
	}
	c.Act = getUint16(body[52:54])
	c.Subact = getUint16(body[54:56])
	return c, nil
}

// Cap carries the thrown cap's transform and its current animation clip.
type Cap struct {
	Position Vec3
	Rotation Quat
	CapOut   uint8
	CapAnim  [0x30]byte
}

func (Cap) Tag() Tag { return TagCap }
func (c Cap) encodeBody() []byte {
	buf := make([]byte, 12+16+1+0x30)
	putVec3(buf[0:12], c.Position)
	putQuat(buf[12:28], c.Rotation)
	buf[28] = c.CapOut
	copy(buf[29:29+0x30], c.CapAnim[:])
	return buf
}
func decodeCap(body []byte) (Content, error) {
	const want = 12 + 16 + 1 + 0x30
	if len(body) < want {
		return nil, fmt.Errorf("protocol: Cap body too short: %d bytes", len(body))
	}
	var c Cap
	c.Position = getVec3(body[0:12])
	c.Rotation = getQuat(body[12:28])
	c.CapOut = body[28]
	copy(c.CapAnim[:], body[29:29+0x30])
	return c, nil
}

// Game carries the sender's dimensionality, scenario number, and stage.
type Game struct {
	Is2D     bool
	Scenario uint8
	Stage    string
}

func (Game) Tag() Tag { return TagGame }
func (c Game) encodeBody() []byte {
	buf := make([]byte, 1+1+0x40)
	if c.Is2D {
		buf[0] = 1
	}
	buf[1] = c.Scenario
	putFixedString(buf[2:2+0x40], c.Stage)
	return buf
}
func decodeGame(body []byte) (Content, error) {
	const want = 1 + 1 + 0x40
	if len(body) < want {
		return nil, fmt.Errorf("protocol: Game body too short: %d bytes", len(body))
	}
	stage, err := getFixedString(body[2 : 2+0x40])
	if err != nil {
		return nil, err
	}
	return Game{Is2D: body[0] != 0, Scenario: body[1], Stage: stage}, nil
}

// Tag mode update bitmask bits.
const (
	TagUpdateTime  uint8 = 0x1
	TagUpdateState uint8 = 0x2
)

// TagState is the hide-and-seek state update: which fields are present
// (UpdateMask), whether the sender is "it", and the sender's clock.
//
// Two body layouts exist in the wild: the current 6-byte layout (u8
// mask + u8 is_it + u16 seconds + u16 minutes) and a legacy 5-byte
// layout (u8 mask + u8 is_it + u8 seconds + u16 minutes). Decode must
// switch on body length; encode always emits the 6-byte layout.
type TagState struct {
	UpdateMask uint8
	IsIt       bool
	Seconds    uint16
	Minutes    uint16
}

func (TagState) Tag() Tag { return TagTag }
func (c TagState) encodeBody() []byte {
	buf := make([]byte, 6)
	buf[0] = c.UpdateMask
	if c.IsIt {
		buf[1] = 1
	}
	putUint16(buf[2:4], c.Seconds)
	putUint16(buf[4:6], c.Minutes)
	return buf
}
func decodeTagState(body []byte) (Content, error) {
	switch {
	case len(body) >= 6:
		return TagState{
			UpdateMask: body[0],
			IsIt:       body[1] != 0,
			Seconds:    getUint16(body[2:4]),
			Minutes:    getUint16(body[4:6]),
		}, nil
	case len(body) >= 5:
		// Legacy layout: u8 seconds widened to u16 per spec's testable property.
		return TagState{
			UpdateMask: body[0],
			IsIt:       body[1] != 0,
			Seconds:    uint16(body[2]),
			Minutes:    getUint16(body[3:5]),
		}, nil
	default:
		return nil, fmt.Errorf("protocol: Tag body too short: %d bytes", len(body))
	}
}

// Connect is the mandatory first packet of every connection.
type Connect struct {
	ConnectionType ConnectionType
	MaxPlayer      uint16
	ClientName     string
}

func (Connect) Tag() Tag { return TagConnect }
func (c Connect) encodeBody() []byte {
	buf := make([]byte, 4+2+0x20)
	putUint32(buf[0:4], uint32(c.ConnectionType))
	putUint16(buf[4:6], c.MaxPlayer)
	putFixedString(buf[6:6+0x20], c.ClientName)
	return buf
}
func decodeConnect(body []byte) (Content, error) {
	const want = 4 + 2 + 0x20
	if len(body) < want {
		return nil, fmt.Errorf("protocol: Connect body too short: %d bytes", len(body))
	}
	name, err := getFixedString(body[6 : 6+0x20])
	if err != nil {
		return nil, err
	}
	return Connect{
		ConnectionType: ConnectionType(getUint32(body[0:4])),
		MaxPlayer:      getUint16(body[4:6]),
		ClientName:     name,
	}, nil
}

// Disconnect has an empty body; its arrival ends the steady-state loop.
type Disconnect struct{}

func (Disconnect) Tag() Tag             { return TagDisconnect }
func (Disconnect) encodeBody() []byte   { return nil }
func decodeDisconnect([]byte) (Content, error) { return Disconnect{}, nil }

// Costume carries the player's currently equipped body and cap names.
type Costume struct {
	Body string
	Cap  string
}

func (Costume) Tag() Tag { return TagCostume }
func (c Costume) encodeBody() []byte {
	buf := make([]byte, 0x20+0x20)
	putFixedString(buf[0:0x20], c.Body)
	putFixedString(buf[0x20:0x40], c.Cap)
	return buf
}
func decodeCostume(body []byte) (Content, error) {
	const want = 0x20 + 0x20
	if len(body) < want {
		return nil, fmt.Errorf("protocol: Costume body too short: %d bytes", len(body))
	}
	b, err := getFixedString(body[0:0x20])
	if err != nil {
		return nil, err
	}
	cp, err := getFixedString(body[0x20:0x40])
	if err != nil {
		return nil, err
	}
	return Costume{Body: b, Cap: cp}, nil
}

// Shine announces that the sender collected the moon with the given ID.
type Shine struct {
	ID int32
}

func (Shine) Tag() Tag { return TagShine }
func (c Shine) encodeBody() []byte {
	buf := make([]byte, 4)
	putUint32(buf[0:4], uint32(c.ID))
	return buf
}
func decodeShine(body []byte) (Content, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("protocol: Shine body too short: %d bytes", len(body))
	}
	return Shine{ID: int32(getUint32(body[0:4]))}, nil
}

// Capture carries the captured enemy's model name (cappy capture).
type Capture struct {
	ModelName string
}

func (Capture) Tag() Tag { return TagCapture }
func (c Capture) encodeBody() []byte {
	buf := make([]byte, 0x20)
	putFixedString(buf, c.ModelName)
	return buf
}
func decodeCapture(body []byte) (Content, error) {
	if len(body) < 0x20 {
		return nil, fmt.Errorf("protocol: Capture body too short: %d bytes", len(body))
	}
	name, err := getFixedString(body[0:0x20])
	if err != nil {
		return nil, err
	}
	return Capture{ModelName: name}, nil
}

// ChangeStage instructs the recipient to load a given stage/scenario.
// The console's "crash" and "send" verbs synthesize these server-side.
type ChangeStage struct {
	Stage       string
	ID          string
	Scenario    int8
	SubScenario uint8
}

func (ChangeStage) Tag() Tag { return TagChangeStage }
func (c ChangeStage) encodeBody() []byte {
	buf := make([]byte, 0x30+0x10+1+1)
	putFixedString(buf[0:0x30], c.Stage)
	putFixedString(buf[0x30:0x30+0x10], c.ID)
	buf[0x40] = byte(c.Scenario)
	buf[0x41] = c.SubScenario
	return buf
}
func decodeChangeStage(body []byte) (Content, error) {
	const want = 0x30 + 0x10 + 1 + 1
	if len(body) < want {
		return nil, fmt.Errorf("protocol: ChangeStage body too short: %d bytes", len(body))
	}
	stage, err := getFixedString(body[0:0x30])
	if err != nil {
		return nil, err
	}
	id, err := getFixedString(body[0x30 : 0x30+0x10])
	if err != nil {
		return nil, err
	}
	return ChangeStage{
		Stage:       stage,
		ID:          id,
		Scenario:    int8(body[0x40]),
		SubScenario: body[0x41],
	}, nil
}

// decodeContent dispatches on tag, falling back to Unknown for any tag
// this codec doesn't recognize rather than failing.
func decodeContent(tag Tag, body []byte) (Content, error) {
	switch tag {
	case TagUnknown:
		return decodeUnknown(body), nil
	case TagInit:
		return decodeInit(body)
	case TagPlayer:
		return decodePlayerPose(body)
	case TagCap:
		return decodeCap(body)
	case TagGame:
		return decodeGame(body)
	case TagTag:
		return decodeTagState(body)
	case TagConnect:
		return decodeConnect(body)
	case TagDisconnect:
		return decodeDisconnect(body)
	case TagCostume:
		return decodeCostume(body)
	case TagShine:
		return decodeShine(body)
	case TagCapture:
		return decodeCapture(body)
	case TagChangeStage:
		return decodeChangeStage(body)
	default:
		return decodeUnknown(body), nil
	}
}

// IsConnect reports whether c is a Connect variant.
func IsConnect(c Content) bool { _, ok := c.(Connect); return ok }

// IsDisconnect reports whether c is a Disconnect variant.
func IsDisconnect(c Content) bool { _, ok := c.(Disconnect); return ok }
