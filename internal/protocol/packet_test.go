package protocol

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRoundTripVariants(t *testing.T) {
	id := uuid.New()

	variants := []Content{
		Init{MaxPlayer: 8},
		PlayerPose{
			Position:     Vec3{X: 1, Y: 2, Z: 3},
			Rotation:     Quat{X: 0, Y: 0, Z: 0, W: 1},
			BlendWeights: [6]float32{0, 0.1, 0.2, 0.3, 0.4, 0.5},
			Act:          1,
			Subact:       2,
		},
		Cap{Position: Vec3{X: 1, Y: 2, Z: 3}, Rotation: Quat{W: 1}, CapOut: 1},
		Game{Is2D: true, Scenario: 7, Stage: "CapWorldHomeStage"},
		TagState{UpdateMask: TagUpdateTime | TagUpdateState, IsIt: true, Seconds: 30, Minutes: 600},
		Connect{ConnectionType: ConnectionFirst, MaxPlayer: 8, ClientName: "a"},
		Disconnect{},
		Costume{Body: "body1", Cap: "cap1"},
		Shine{ID: 42},
		Capture{ModelName: "Chappy"},
		ChangeStage{Stage: "WaterfallWorldHomeStage", ID: "", Scenario: -1, SubScenario: 0},
	}

	for _, v := range variants {
		p := NewPacket(id, v)
		var buf bytes.Buffer
		_, err := p.WriteTo(&buf)
		require.NoError(t, err)

		got, err := ReadPacket(&buf)
		require.NoError(t, err)
		require.Equal(t, id, got.ID)
		require.Equal(t, v, got.Content)
	}
}

func TestTagLegacyFiveByteBody(t *testing.T) {
	// Legacy layout: u8 mask, u8 is_it, u8 seconds, u16 minutes (5 bytes total).
	body := []byte{0x3, 1, 45, 0x2, 0x0}
	c, err := decodeTagState(body)
	require.NoError(t, err)
	require.Equal(t, TagState{UpdateMask: 0x3, IsIt: true, Seconds: 45, Minutes: 2}, c)
}

func TestUnknownTagDoesNotFail(t *testing.T) {
	id := uuid.New()
	hdr := Header{ID: id, Tag: Tag(999), Length: 3}
	buf := make([]byte, HeaderSize+3)
	encodeHeader(buf, hdr)
	copy(buf[HeaderSize:], []byte{1, 2, 3})

	p, err := ReadPacket(bytes.NewReader(buf))
	require.NoError(t, err)
	u, ok := p.Content.(Unknown)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, u.Raw)
}

func TestMalformedHeaderFails(t *testing.T) {
	_, err := ReadPacket(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestInvalidUTF8Fails(t *testing.T) {
	id := uuid.New()
	body := make([]byte, 0x20+0x20)
	body[0] = 0xFF // invalid UTF-8 lead byte in Costume.Body field
	hdr := Header{ID: id, Tag: TagCostume, Length: int16(len(body))}
	buf := make([]byte, HeaderSize+len(body))
	encodeHeader(buf, hdr)
	copy(buf[HeaderSize:], body)

	_, err := ReadPacket(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestZeroBodyLengthIsValid(t *testing.T) {
	id := uuid.New()
	p := NewPacket(id, Disconnect{})
	buf := p.Encode()
	require.Equal(t, HeaderSize, len(buf))

	got, err := ReadPacket(bytes.NewReader(buf))
	require.NoError(t, err)
	require.True(t, IsDisconnect(got.Content))
	require.False(t, IsConnect(got.Content))
}
