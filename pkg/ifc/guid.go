package ifc

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// guidChars is the IFC base64 alphabet. It is not the RFC 4648 alphabet.
const guidChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// GUIDLength is the length of a compressed GlobalId.
const GUIDLength = 22

// IDSource yields the UUIDs behind GlobalIds.
type IDSource func() uuid.UUID

// RandomIDs draws version 4 UUIDs.
func RandomIDs() uuid.UUID { return uuid.New() }

// SeededIDs returns a source that yields the same sequence of name-based
// UUIDs for the same seed, so repeated emissions are identical.
func SeededIDs(seed string) IDSource {
	n := 0
	return func() uuid.UUID {
		n++
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("stairkit:%s#%d", seed, n)))
	}
}

// Compress encodes u as a 22 character GlobalId: the first byte in two
// characters, then five groups of three bytes in four characters each.
func Compress(u uuid.UUID) string {
	var b strings.Builder
	b.Grow(GUIDLength)
	b.WriteString(b64(uint32(u[0]), 2))
	for i := 1; i < 16; i += 3 {
		b.WriteString(b64(uint32(u[i])<<16|uint32(u[i+1])<<8|uint32(u[i+2]), 4))
	}
	return b.String()
}

func b64(v uint32, n int) string {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = guidChars[v%64]
		v /= 64
	}
	return string(out)
}

// Expand reverses Compress.
func Expand(g string) (uuid.UUID, error) {
	var u uuid.UUID
	if len(g) != GUIDLength {
		return u, fmt.Errorf("ifc: GlobalId %q has %d characters, want %d", g, len(g), GUIDLength)
	}
	decode := func(s string) (uint32, error) {
		var v uint32
		for i := 0; i < len(s); i++ {
			d := strings.IndexByte(guidChars, s[i])
			if d < 0 {
				return 0, fmt.Errorf("ifc: bad GlobalId character %q", s[i])
			}
			v = v*64 + uint32(d)
		}
		return v, nil
	}
	v, err := decode(g[:2])
	if err != nil {
		return u, err
	}
	if v > 0xff {
		return u, fmt.Errorf("ifc: GlobalId %q out of range", g)
	}
	u[0] = byte(v)
	for k, i := 0, 1; i < 16; k, i = k+1, i+3 {
		v, err := decode(g[2+4*k : 6+4*k])
		if err != nil {
			return u, err
		}
		u[i], u[i+1], u[i+2] = byte(v>>16), byte(v>>8), byte(v)
	}
	return u, nil
}
