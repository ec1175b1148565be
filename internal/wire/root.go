package wire

import (
	"bytes"
	"fmt"

	"github.com/ravelin-dev/structom/internal/varint"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// EncodeRoot writes the top-level envelope of spec §4.4.1/§6.3: a
// decl_path string, and then either a root_typeid + schema-encoded value
// (declPath non-empty) or a bare dynamic (`any`) encoding (declPath
// empty, rootType ignored).
func EncodeRoot(declPath string, rootType *stomtypes.TypeId, v stomtypes.Value, prov stomtypes.Provider) ([]byte, error) {
	var buf bytes.Buffer
	encodeStrBody(&buf, declPath)
	if declPath == "" {
		if err := EncodeAny(&buf, v, prov); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if rootType == nil {
		return nil, fmt.Errorf("wire: non-empty decl_path requires a root typeid")
	}
	buf.Write(varint.EncodeUint(nil, uint64(rootType.ID)))
	if err := EncodeBody(&buf, *rootType, v, prov); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRoot is EncodeRoot's inverse. It returns the decl_path (empty for
// a dynamic payload), the resolved root typeid (nil for a dynamic
// payload), and the decoded value.
func DecodeRoot(data []byte, prov stomtypes.Provider) (string, *stomtypes.TypeId, stomtypes.Value, error) {
	declPath, n, err := decodeStrBody(data)
	if err != nil {
		return "", nil, stomtypes.Value{}, err
	}
	pos := n

	if declPath == "" {
		v, consumed, err := DecodeAny(data[pos:], prov)
		if err != nil {
			return "", nil, stomtypes.Value{}, err
		}
		pos += consumed
		if pos != len(data) {
			return "", nil, stomtypes.Value{}, decodeErrf("root: trailing bytes after dynamic payload")
		}
		return "", nil, v, nil
	}

	file, importErr := prov.Load(declPath)
	if importErr != nil {
		return "", nil, stomtypes.Value{}, decodeErrf("root: load %q: %v", declPath, importErr)
	}
	id, idn, err := varint.DecodeUint(data[pos:])
	if err != nil {
		return "", nil, stomtypes.Value{}, decodeErrf("root_typeid: %v", err)
	}
	pos += idn
	rootType := file.TypeIDOf(uint16(id))
	v, consumed, err := DecodeBody(data[pos:], rootType, prov)
	if err != nil {
		return "", nil, stomtypes.Value{}, err
	}
	pos += consumed
	if pos != len(data) {
		return "", nil, stomtypes.Value{}, decodeErrf("root: trailing bytes after value")
	}
	return declPath, &rootType, v, nil
}
