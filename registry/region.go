package registry

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/baremetal-ci/kt-harness/types"
)

// ErrRegionCorrupt marks an inconsistent descriptor region. It is an
// unrecoverable configuration error: the suite must not run on a registry
// that cannot be scanned exactly.
var ErrRegionCorrupt = errors.New("test registry region corrupt")

// Record layout, big endian, no gaps:
//
//	kind     uint32  (kindSync | kindAsync)
//	nameOff  uint32  offset into the string table
//	nameLen  uint32
//	entry    uint32  index into the link table
//
// The region holds zero or more of these back to back between its start and
// end markers; the count is (end-start)/recordSize and nothing else stores
// it.
const recordSize = 16

const (
	kindSync  uint32 = 1
	kindAsync uint32 = 2
)

// TruncateRegion chops n bytes off the end of the record region. It is a
// fault injection hook: the scanner's refusal to run on a damaged region is
// a tested property, and this simulates the damage.
func (r *Registry) TruncateRegion(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > len(r.region) {
		n = len(r.region)
	}
	r.region = r.region[:len(r.region)-n]
}

// appendRecord encodes d at the end of the region. Caller holds r.mu.
func (r *Registry) appendRecord(d Descriptor) {
	var rec [recordSize]byte
	kind := kindSync
	if d.Kind == types.KindAsync {
		kind = kindAsync
	}
	binary.BigEndian.PutUint32(rec[0:4], kind)
	binary.BigEndian.PutUint32(rec[4:8], uint32(len(r.names)))
	binary.BigEndian.PutUint32(rec[8:12], uint32(len(d.Name)))
	binary.BigEndian.PutUint32(rec[12:16], uint32(len(r.entries)-1))
	r.names = append(r.names, d.Name...)
	r.region = append(r.region, rec[:]...)
}

// scan decodes the whole region. Caller holds r.mu.
func (r *Registry) scan() ([]Descriptor, error) {
	span := len(r.region) // end marker minus start marker
	if span%recordSize != 0 {
		return nil, fmt.Errorf("%w: region span %d is not a multiple of record size %d",
			ErrRegionCorrupt, span, recordSize)
	}
	count := span / recordSize
	descs := make([]Descriptor, 0, count)
	for i := 0; i < count; i++ {
		d, err := r.decodeRecord(i)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (r *Registry) decodeRecord(i int) (Descriptor, error) {
	rec := r.region[i*recordSize : (i+1)*recordSize]
	kind := binary.BigEndian.Uint32(rec[0:4])
	nameOff := binary.BigEndian.Uint32(rec[4:8])
	nameLen := binary.BigEndian.Uint32(rec[8:12])
	entry := binary.BigEndian.Uint32(rec[12:16])

	if int(nameOff)+int(nameLen) > len(r.names) {
		return Descriptor{}, fmt.Errorf("%w: record %d: name reference [%d:%d] outside string table of %d bytes",
			ErrRegionCorrupt, i, nameOff, nameOff+nameLen, len(r.names))
	}
	name := string(r.names[nameOff : nameOff+nameLen])

	if int(entry) >= len(r.entries) {
		return Descriptor{}, fmt.Errorf("%w: record %d (%s): entry reference %d not resolvable against link table of %d",
			ErrRegionCorrupt, i, name, entry, len(r.entries))
	}
	link := r.entries[entry]

	switch kind {
	case kindSync:
		if link.sync == nil {
			return Descriptor{}, fmt.Errorf("%w: record %d (%s): sync entry reference resolves to nothing",
				ErrRegionCorrupt, i, name)
		}
		return Descriptor{Name: name, Kind: types.KindSync, Sync: link.sync}, nil
	case kindAsync:
		if link.async == nil {
			return Descriptor{}, fmt.Errorf("%w: record %d (%s): async entry reference resolves to nothing",
				ErrRegionCorrupt, i, name)
		}
		return Descriptor{Name: name, Kind: types.KindAsync, Async: link.async}, nil
	default:
		return Descriptor{}, fmt.Errorf("%w: record %d (%s): unknown kind tag %d",
			ErrRegionCorrupt, i, name, kind)
	}
}
