package serialization

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

const (
	// maxItemsPerMessage bounds every decoded list length so that a
	// hostile length prefix can't force a huge allocation.
	maxItemsPerMessage = 1_000_000

	// maxVarBytesLength bounds every decoded script or witness item.
	maxVarBytesLength = 4_000_000
)

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var buf []byte
	switch e := element.(type) {
	case uint8:
		buf = []byte{e}
	case int32:
		buf = make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(e))
	case uint32:
		buf = make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, e)
	case uint64:
		buf = make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, e)
	case externalapi.DomainHash:
		buf = e[:]
	case *externalapi.DomainHash:
		buf = e[:]
	case externalapi.DomainTransactionID:
		buf = e[:]
	default:
		return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
	}
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = buf[0]
	case *int32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = int32(binary.LittleEndian.Uint32(buf[:]))
	case *uint32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = binary.LittleEndian.Uint32(buf[:])
	case *uint64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = binary.LittleEndian.Uint64(buf[:])
	case *externalapi.DomainHash:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return errors.WithStack(err)
		}
	case *externalapi.DomainTransactionID:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return errors.WithStack(err)
		}
	default:
		return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
	}
	return nil
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteVarInt serializes val to w using the CompactSize encoding.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		return WriteElement(w, uint8(val))
	case val <= 0xffff:
		var buf [3]byte
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf[:])
		return errors.WithStack(err)
	case val <= 0xffffffff:
		return WriteElements(w, uint8(0xfe), uint32(val))
	default:
		return WriteElements(w, uint8(0xff), val)
	}
}

// ReadVarInt reads a CompactSize encoded integer from r. Encodings that are
// not the shortest possible for their value are rejected.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant uint8
	if err := ReadElement(r, &discriminant); err != nil {
		return 0, err
	}

	var rv, min uint64
	switch discriminant {
	case 0xff:
		if err := ReadElement(r, &rv); err != nil {
			return 0, err
		}
		min = 0x100000000
	case 0xfe:
		var v uint32
		if err := ReadElement(r, &v); err != nil {
			return 0, err
		}
		rv, min = uint64(v), 0x10000
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, errors.WithStack(err)
		}
		rv, min = uint64(binary.LittleEndian.Uint16(buf[:])), 0xfd
	default:
		return uint64(discriminant), nil
	}

	if rv < min {
		return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant %x must "+
			"encode a value greater than %x", rv, discriminant, min)
	}
	return rv, nil
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	}
	return 9
}

// WriteVarBytes serializes a variable length byte array to w as a varint
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, bytes []byte) error {
	err := WriteVarInt(w, uint64(len(bytes)))
	if err != nil {
		return err
	}
	_, err = w.Write(bytes)
	return errors.WithStack(err)
}

// ReadVarBytes reads a variable length byte array written by WriteVarBytes.
// fieldName is used in the error returned when the length is too large.
func ReadVarBytes(r io.Reader, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxVarBytesLength {
		return nil, errors.Wrapf(errMalformed, "%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxVarBytesLength)
	}
	bytes := make([]byte, count)
	if _, err := io.ReadFull(r, bytes); err != nil {
		return nil, errors.WithStack(err)
	}
	return bytes, nil
}

func readCount(r io.Reader, fieldName string) (uint64, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return 0, err
	}
	if count > maxItemsPerMessage {
		return 0, errors.Wrapf(errMalformed, "too many %s [count %d, max %d]",
			fieldName, count, maxItemsPerMessage)
	}
	return count, nil
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}
