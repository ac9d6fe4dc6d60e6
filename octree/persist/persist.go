// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package persist reads and writes octrees as byte streams.
//
// A stream starts with the identifier "Inexor Octree" and a little endian
// uint32 version. The cubes follow in pre-order: one type tag byte per cube,
// normal cubes add their twelve indentation uids packed into 9 bytes and
// octants are followed by their eight children. Size and position of the
// root are not part of the stream.
package persist

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Identifier starts every octree stream.
const Identifier = "Inexor Octree"

// Version is the format version written by this package.
const Version uint32 = 0

const packedIndentations = 9

// package errors
var (
	ErrIdentifier = errors.New("persist: not an octree stream")
	ErrVersion    = errors.New("persist: unsupported octree version")
	ErrTruncated  = errors.New("persist: octree stream ended early")
	ErrCorrupt    = errors.New("persist: corrupted octree stream")
)

// Serialize encodes the tree below cube.
func Serialize(cube *octree.Cube) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, cube); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a tree whose root has the given size and position.
func Deserialize(data []byte, size float32, position glm.Vec3) (*octree.Cube, error) {
	return Decode(bytes.NewReader(data), size, position)
}

// Encode writes the tree below cube to w.
func Encode(w io.Writer, cube *octree.Cube) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Identifier); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, Version); err != nil {
		return err
	}
	if err := encodeCube(bw, cube); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeCube(w *bufio.Writer, cube *octree.Cube) error {
	t := cube.Type()
	if err := w.WriteByte(byte(t)); err != nil {
		return err
	}
	switch t {
	case octree.Normal:
		packed := packIndentations(cube.Indentations())
		if _, err := w.Write(packed[:]); err != nil {
			return err
		}
	case octree.Octant:
		for _, child := range cube.Children() {
			if err := encodeCube(w, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode reads a tree from r. The root gets the given size and position.
func Decode(r io.Reader, size float32, position glm.Vec3) (*octree.Cube, error) {
	br := bufio.NewReader(r)

	id := make([]byte, len(Identifier))
	if _, err := io.ReadFull(br, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentifier, err)
	}
	if string(id) != Identifier {
		return nil, ErrIdentifier
	}

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, truncated(err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	root := octree.NewCube(octree.Empty, size, position)
	if err := decodeCube(br, root); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeCube(r *bufio.Reader, cube *octree.Cube) error {
	tag, err := r.ReadByte()
	if err != nil {
		return truncated(err)
	}
	t := octree.Type(tag)
	switch t {
	case octree.Empty, octree.Solid:
		cube.SetType(t)
	case octree.Normal:
		var packed [packedIndentations]byte
		if _, err := io.ReadFull(r, packed[:]); err != nil {
			return truncated(err)
		}
		ind, err := unpackIndentations(packed)
		if err != nil {
			return err
		}
		cube.SetType(octree.Normal)
		cube.SetIndentations(ind)
	case octree.Octant:
		cube.SetType(octree.Octant)
		for _, child := range cube.Children() {
			if err := decodeCube(r, child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown cube type %d", ErrCorrupt, tag)
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// packIndentations stores the 6 bit uids of twelve indentations,
// four of them in every three bytes.
func packIndentations(ind [octree.Edges]octree.Indentation) [packedIndentations]byte {
	var out [packedIndentations]byte
	for g := 0; g < 3; g++ {
		u0, u1, u2, u3 := ind[4*g].UID(), ind[4*g+1].UID(), ind[4*g+2].UID(), ind[4*g+3].UID()
		out[3*g] = u0<<2 | u1>>4
		out[3*g+1] = u1<<4 | u2>>2
		out[3*g+2] = u2<<6 | u3
	}
	return out
}

func unpackIndentations(in [packedIndentations]byte) ([octree.Edges]octree.Indentation, error) {
	var ind [octree.Edges]octree.Indentation
	for g := 0; g < 3; g++ {
		b0, b1, b2 := in[3*g], in[3*g+1], in[3*g+2]
		uids := [4]uint8{
			b0 >> 2,
			(b0&0x03)<<4 | b1>>4,
			(b1&0x0f)<<2 | b2>>6,
			b2 & 0x3f,
		}
		for i, uid := range uids {
			if uid > octree.MaxUID {
				return ind, fmt.Errorf("%w: indentation uid %d", ErrCorrupt, uid)
			}
			ind[4*g+i] = octree.IndentationFromUID(uid)
		}
	}
	return ind, nil
}
