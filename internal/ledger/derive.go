package ledger

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Seed prefixes for the two record kinds. Changing either one moves every
// existing record to a different address.
const (
	CollectionSeed = "pass-collection"
	PassSeed       = "user-pass"
)

// addressDomainKey separates derived addresses from any other BLAKE3
// keyed hash. ASCII "entrypass.address", zero-padded to 32 bytes.
var addressDomainKey = [32]byte{
	'e', 'n', 't', 'r', 'y', 'p', 'a', 's', 's', '.', 'a', 'd', 'd', 'r', 'e', 's',
	's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// DeriveAddress maps an ordered list of seeds to a record address. It is
// a pure function: the same seeds always produce the same address, which
// is how uniqueness is enforced without a separate index.
//
// Each seed is length-prefixed, so ("ab", "c") and ("a", "bc") derive
// different addresses.
func DeriveAddress(seeds ...[]byte) Address {
	hasher, err := blake3.NewKeyed(addressDomainKey[:])
	if err != nil {
		// Only returned for a key of the wrong length.
		panic("ledger: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var prefix [4]byte
	for _, seed := range seeds {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(seed)))
		_, _ = hasher.Write(prefix[:])
		_, _ = hasher.Write(seed)
	}

	var out Address
	copy(out[:], hasher.Sum(nil))
	return out
}

// CollectionAddress is where the collection named name created by
// organizer lives.
func CollectionAddress(organizer Address, name string) Address {
	return DeriveAddress([]byte(CollectionSeed), organizer[:], []byte(name))
}

// PassAddress is where owner's pass for collection lives. One owner can
// therefore hold at most one pass per collection.
func PassAddress(collection, owner Address) Address {
	return DeriveAddress([]byte(PassSeed), collection[:], owner[:])
}
