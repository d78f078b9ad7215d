package protocol

import (
	"encoding/binary"
	"fmt"
)

// Discovery packet types
const (
	TypeDiscoverRequest uint16 = 0x0002
	TypeDiscoverReply   uint16 = 0x0003
)

// Payload field tags
const (
	TagDeviceType byte = 0x01
	TagDeviceID   byte = 0x02
)

// Wildcard values used in discover requests to match any device
const (
	DeviceTypeWildcard uint32 = 0xFFFFFFFF
	DeviceIDWildcard   uint32 = 0xFFFFFFFF
)

// DiscoverPort is the UDP port tuners listen on for discovery datagrams.
const DiscoverPort = 65001

// maxPayloadLength bounds the declared payload size of a parsed packet.
// Discovery payloads are a handful of small fields; anything large is junk.
const maxPayloadLength = 1024

// Field is one tag-length-value entry of a discovery packet payload.
type Field struct {
	Tag   byte
	Value []byte
}

// Packet is a discovery datagram: a 16-bit type, a 16-bit payload length,
// and a sequence of TLV fields. All integers are big-endian on the wire.
type Packet struct {
	Type   uint16
	Fields []Field
}

// Encode serializes the packet into wire format.
func (p *Packet) Encode() []byte {
	payloadLen := 0
	for _, f := range p.Fields {
		payloadLen += 2 + len(f.Value)
	}

	buf := make([]byte, 4, 4+payloadLen)
	binary.BigEndian.PutUint16(buf[0:2], p.Type)
	binary.BigEndian.PutUint16(buf[2:4], uint16(payloadLen))

	for _, f := range p.Fields {
		buf = append(buf, f.Tag, byte(len(f.Value)))
		buf = append(buf, f.Value...)
	}

	return buf
}

// Field returns the value of the first field with the given tag, or nil.
func (p *Packet) Field(tag byte) []byte {
	for _, f := range p.Fields {
		if f.Tag == tag {
			return f.Value
		}
	}
	return nil
}

// DeviceID returns the device ID field formatted as the 8-digit hex string
// devices print on their labels, or "" when the field is absent.
func (p *Packet) DeviceID() string {
	v := p.Field(TagDeviceID)
	if len(v) != 4 {
		return ""
	}
	return fmt.Sprintf("%08X", binary.BigEndian.Uint32(v))
}

// EncodeDiscoverRequest builds the wildcard discover request datagram:
// any device type, any device ID.
func EncodeDiscoverRequest() []byte {
	return encodeDiscoverRequest(DeviceTypeWildcard, DeviceIDWildcard)
}

func encodeDiscoverRequest(deviceType, deviceID uint32) []byte {
	typeVal := make([]byte, 4)
	binary.BigEndian.PutUint32(typeVal, deviceType)
	idVal := make([]byte, 4)
	binary.BigEndian.PutUint32(idVal, deviceID)

	p := &Packet{
		Type: TypeDiscoverRequest,
		Fields: []Field{
			{Tag: TagDeviceType, Value: typeVal},
			{Tag: TagDeviceID, Value: idVal},
		},
	}
	return p.Encode()
}

// ParsePacket decodes a discovery datagram. It validates the declared
// payload length against the data actually present and rejects truncated
// TLV fields.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("packet too short: %d bytes", len(data))
	}

	p := &Packet{Type: binary.BigEndian.Uint16(data[0:2])}
	payloadLen := int(binary.BigEndian.Uint16(data[2:4]))

	if payloadLen > maxPayloadLength {
		return nil, fmt.Errorf("declared payload length %d exceeds limit", payloadLen)
	}
	if len(data) < 4+payloadLen {
		return nil, fmt.Errorf("payload truncated: declared %d bytes, have %d", payloadLen, len(data)-4)
	}

	payload := data[4 : 4+payloadLen]
	for len(payload) > 0 {
		if len(payload) < 2 {
			return nil, fmt.Errorf("truncated field header")
		}
		tag := payload[0]
		vlen := int(payload[1])
		if len(payload) < 2+vlen {
			return nil, fmt.Errorf("truncated field value for tag 0x%02x", tag)
		}
		value := make([]byte, vlen)
		copy(value, payload[2:2+vlen])
		p.Fields = append(p.Fields, Field{Tag: tag, Value: value})
		payload = payload[2+vlen:]
	}

	return p, nil
}
