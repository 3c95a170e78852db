package components

import "fmt"

// Kind is the entity category packed into a Tag.
type Kind uint8

const (
	KindNone Kind = iota
	KindPlanet
	KindPlatform
	KindTank
	KindShell
)

func (k Kind) String() string {
	switch k {
	case KindPlanet:
		return "planet"
	case KindPlatform:
		return "platform"
	case KindTank:
		return "tank"
	case KindShell:
		return "shell"
	}
	return "none"
}

// Tag identifies the owner of a physics shape: a 4-bit kind above a 24-bit id.
type Tag uint32

const (
	tagIDBits = 24
	tagIDMask = 1<<tagIDBits - 1
	maxKind   = 1<<4 - 1
)

// MakeTag packs kind and id. Ids past 24 bits or kinds past 4 bits panic.
func MakeTag(k Kind, id uint32) Tag {
	if k > maxKind {
		panic(fmt.Sprintf("components: tag kind %d overflows 4 bits", k))
	}
	if id > tagIDMask {
		panic(fmt.Sprintf("components: tag id %d overflows 24 bits", id))
	}
	return Tag(uint32(k)<<tagIDBits | id)
}

// Kind returns the packed kind.
func (t Tag) Kind() Kind { return Kind(t >> tagIDBits) }

// ID returns the packed id.
func (t Tag) ID() uint32 { return uint32(t) & tagIDMask }

func (t Tag) String() string {
	return fmt.Sprintf("%s#%d", t.Kind(), t.ID())
}
