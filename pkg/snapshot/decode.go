package snapshot

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// decoder walks buf with a cursor, mirroring encodeValue's layout field by
// field so every read knows exactly how many bytes to consume without a
// schema.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, fmt.Errorf("unexpected end of snapshot data")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) uvarint() (uint64, error) {
	x, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("malformed varint at offset %d", d.pos)
	}
	d.pos += n
	return x, nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, fmt.Errorf("snapshot data truncated: need %d bytes at offset %d", n, d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) lenPrefixed() ([]byte, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	return d.bytes(int(n))
}

func (d *decoder) bigInt() (*big.Int, error) {
	sign, err := d.byte()
	if err != nil {
		return nil, err
	}
	mag, err := d.lenPrefixed()
	if err != nil {
		return nil, err
	}
	bi := new(big.Int).SetBytes(mag)
	if sign == 0 {
		bi.Neg(bi)
	}
	return bi, nil
}

// decodeValue decodes into v, which must be addressable and settable --
// every call site either owns a fresh reflect.New'd value or a field of
// one.
func (d *decoder) decodeValue(v reflect.Value) error {
	if v.Type() == bigIntPtrType {
		bi, err := d.bigInt()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(bi))
		return nil
	}

	if v.Type() == signersSeenType {
		return d.decodeSignerSet(v)
	}

	switch v.Kind() {
	case reflect.Ptr:
		tag, err := d.byte()
		if err != nil {
			return err
		}
		if tag == tagAbsent {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		elem := reflect.New(v.Type().Elem())
		if err := d.decodeValue(elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
		return nil

	case reflect.Interface:
		tag, err := d.byte()
		if err != nil {
			return err
		}
		if tag == tagAbsent {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		return fmt.Errorf("cannot decode into interface field of unknown concrete type %s", v.Type())

	case reflect.Struct:
		return d.decodeStruct(v)

	case reflect.Map:
		return d.decodeMap(v)

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := d.lenPrefixed()
			if err != nil {
				return err
			}
			v.SetBytes(append([]byte{}, b...))
			return nil
		}
		n, err := d.uvarint()
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(v.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			if err := d.decodeValue(out.Index(i)); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			raw, err := d.bytes(v.Len())
			if err != nil {
				return err
			}
			reflect.Copy(v, reflect.ValueOf(raw))
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := d.decodeValue(v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.String:
		b, err := d.lenPrefixed()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil

	case reflect.Bool:
		b, err := d.byte()
		if err != nil {
			return err
		}
		v.SetBool(b != 0)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, err := d.uvarint()
		if err != nil {
			return err
		}
		v.SetInt(zigzagDecode(x))
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		x, err := d.uvarint()
		if err != nil {
			return err
		}
		v.SetUint(x)
		return nil

	default:
		return fmt.Errorf("canonical binary decoding: unsupported kind %s (type %s)", v.Kind(), v.Type())
	}
}

func (d *decoder) decodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		if err := d.decodeValue(v.Field(i)); err != nil {
			return fmt.Errorf("field %s.%s: %w", t.Name(), t.Field(i).Name, err)
		}
	}
	return nil
}

func (d *decoder) decodeMap(v reflect.Value) error {
	n, err := d.uvarint()
	if err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(v.Type(), int(n))
	keyType := v.Type().Key()
	valType := v.Type().Elem()
	for i := 0; i < int(n); i++ {
		key := reflect.New(keyType).Elem()
		if err := d.decodeValue(key); err != nil {
			return fmt.Errorf("map key %d: %w", i, err)
		}
		val := reflect.New(valType).Elem()
		if err := d.decodeValue(val); err != nil {
			return fmt.Errorf("map value %d: %w", i, err)
		}
		out.SetMapIndex(key, val)
	}
	v.Set(out)
	return nil
}

func (d *decoder) decodeSignerSet(v reflect.Value) error {
	n, err := d.uvarint()
	if err != nil {
		return err
	}
	items := make([]([32]byte), n)
	for i := range items {
		raw, err := d.bytes(32)
		if err != nil {
			return err
		}
		copy(items[i][:], raw)
	}
	v.Set(reflect.ValueOf(mapset.NewSet[[32]byte](items...)))
	return nil
}
