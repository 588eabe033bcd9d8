package core

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// EntryType tags the three kinds of filesystem node the tree can hold.
type EntryType string

// The three entry kinds.
const (
	EntryTypeDir     EntryType = "dir"
	EntryTypeFile    EntryType = "file"
	EntryTypeSymlink EntryType = "symlink"
)

// ErrNoID is returned when converting an entry to an FsHash record before
// it has been hashed.
var ErrNoID = errors.New("entry has no id yet: not hashed")

// ErrMismatchHashType is returned when narrowing an FsHash or FsEntry to a
// specific variant that does not match its actual type.
var ErrMismatchHashType = errors.New("entry is not of the requested type")

// Attributes describes the final path component of an entry and its
// metadata. Distinct Attributes values are ordered lexicographically by
// Name, then ReadOnly, then Modified.
type Attributes struct {
	Name     string    `json:"name"`
	ReadOnly bool      `json:"readonly"`
	Modified Timestamp `json:"modified"`
}

// Compare returns -1, 0, or 1 as a sorts before, equal to, or after b.
func (a Attributes) Compare(b Attributes) int {
	if a.Name != b.Name {
		if a.Name < b.Name {
			return -1
		}

		return 1
	}

	if a.ReadOnly != b.ReadOnly {
		if !a.ReadOnly {
			return -1
		}

		return 1
	}

	switch {
	case a.Modified.Unix() < b.Modified.Unix():
		return -1
	case a.Modified.Unix() > b.Modified.Unix():
		return 1
	default:
		return 0
	}
}

// Entry is implemented by *DirEntry, *FileEntry, and *SymlinkEntry.
type Entry interface {
	// ID returns the entry's content hash and true, or ("", false) if the
	// entry has not yet been hashed.
	ID() (HashID, bool)
	// Attr returns the entry's attributes.
	Attr() Attributes
	// EntryType reports which of the three variants this is.
	EntryType() EntryType

	setID(HashID)
}

// FsHash is a reference to a child entry stored inside a DirEntry's
// children list: the child's type tag, attributes, and content hash.
type FsHash struct {
	Type EntryType
	Attr Attributes
	ID   HashID
}

type fsHashWire struct {
	Type EntryType  `json:"type"`
	Attr Attributes `json:"attr"`
	ID   HashID     `json:"id"`
}

// MarshalJSON renders the FsHash in the flat {"type","attr","id"} wire shape.
func (h FsHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(fsHashWire{Type: h.Type, Attr: h.Attr, ID: h.ID})
}

// UnmarshalJSON parses the flat {"type","attr","id"} wire shape.
func (h *FsHash) UnmarshalJSON(data []byte) error {
	var w fsHashWire
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "decoding fs hash")
	}

	h.Type, h.Attr, h.ID = w.Type, w.Attr, w.ID

	return nil
}

// Compare returns -1, 0, or 1 by the canonical (attr, then id) child order.
func (h FsHash) Compare(other FsHash) int {
	if c := h.Attr.Compare(other.Attr); c != 0 {
		return c
	}

	switch {
	case h.ID < other.ID:
		return -1
	case h.ID > other.ID:
		return 1
	default:
		return 0
	}
}

// ToHash narrows an already-hashed Entry down to its FsHash child reference.
// Fails with ErrNoID if e has not been hashed yet.
func ToHash(e Entry) (FsHash, error) {
	id, ok := e.ID()
	if !ok {
		return FsHash{}, ErrNoID
	}

	return FsHash{Type: e.EntryType(), Attr: e.Attr(), ID: id}, nil
}

// DirEntry is a directory node: its attributes plus the canonically
// ordered list of child references.
type DirEntry struct {
	id       *HashID
	attr     Attributes
	children []FsHash
}

// NewDirEntryBuilder starts building a new directory entry for attr.
func NewDirEntryBuilder(attr Attributes) *DirEntryBuilder {
	return &DirEntryBuilder{attr: attr}
}

// DirEntryBuilder accumulates children before producing a canonically
// ordered DirEntry.
type DirEntryBuilder struct {
	attr     Attributes
	children []FsHash
}

// Append adds a child reference.
func (b *DirEntryBuilder) Append(ch FsHash) {
	b.children = append(b.children, ch)
}

// Build sorts the accumulated children into canonical order and returns
// the (not yet hashed) DirEntry.
func (b *DirEntryBuilder) Build() *DirEntry {
	children := append([]FsHash(nil), b.children...)
	sort.Slice(children, func(i, j int) bool {
		return children[i].Compare(children[j]) < 0
	})

	return &DirEntry{attr: b.attr, children: children}
}

// ID implements Entry.
func (d *DirEntry) ID() (HashID, bool) {
	if d.id == nil {
		return "", false
	}

	return *d.id, true
}

func (d *DirEntry) setID(id HashID) { d.id = &id }

// Attr implements Entry.
func (d *DirEntry) Attr() Attributes { return d.attr }

// EntryType implements Entry.
func (d *DirEntry) EntryType() EntryType { return EntryTypeDir }

// Children returns the canonically ordered child references.
func (d *DirEntry) Children() []FsHash {
	return d.children
}

// FindChild returns the child named name, if any.
func (d *DirEntry) FindChild(name string) (FsHash, bool) {
	for _, c := range d.children {
		if c.Attr.Name == name {
			return c, true
		}
	}

	return FsHash{}, false
}

// FileEntry is a file node: only its attributes. Its content lives in a
// separate object whose id is the entry's own id.
type FileEntry struct {
	id   *HashID
	attr Attributes
}

// NewFileEntry constructs a (not yet hashed) FileEntry.
func NewFileEntry(attr Attributes) *FileEntry {
	return &FileEntry{attr: attr}
}

// ID implements Entry.
func (f *FileEntry) ID() (HashID, bool) {
	if f.id == nil {
		return "", false
	}

	return *f.id, true
}

func (f *FileEntry) setID(id HashID) { f.id = &id }

// Attr implements Entry.
func (f *FileEntry) Attr() Attributes { return f.attr }

// EntryType implements Entry.
func (f *FileEntry) EntryType() EntryType { return EntryTypeFile }

// SymlinkEntry is a symbolic link node: attributes, its target path text,
// and whether the target (at scan time) was a directory.
type SymlinkEntry struct {
	id     *HashID
	attr   Attributes
	target string
	isDir  bool
}

// NewSymlinkEntry constructs a (not yet hashed) SymlinkEntry.
func NewSymlinkEntry(attr Attributes, target string, isDir bool) *SymlinkEntry {
	return &SymlinkEntry{attr: attr, target: target, isDir: isDir}
}

// ID implements Entry.
func (s *SymlinkEntry) ID() (HashID, bool) {
	if s.id == nil {
		return "", false
	}

	return *s.id, true
}

func (s *SymlinkEntry) setID(id HashID) { s.id = &id }

// Attr implements Entry.
func (s *SymlinkEntry) Attr() Attributes { return s.attr }

// EntryType implements Entry.
func (s *SymlinkEntry) EntryType() EntryType { return EntryTypeSymlink }

// Target returns the raw link target text.
func (s *SymlinkEntry) Target() string { return s.target }

// IsDir reports whether the link's target resolved to a directory at scan time.
func (s *SymlinkEntry) IsDir() bool { return s.isDir }

// AsDir narrows e to *DirEntry, failing with ErrMismatchHashType otherwise.
func AsDir(e Entry) (*DirEntry, error) {
	d, ok := e.(*DirEntry)
	if !ok {
		return nil, errors.Wrapf(ErrMismatchHashType, "want dir, got %s", e.EntryType())
	}

	return d, nil
}

// AsFile narrows e to *FileEntry, failing with ErrMismatchHashType otherwise.
func AsFile(e Entry) (*FileEntry, error) {
	f, ok := e.(*FileEntry)
	if !ok {
		return nil, errors.Wrapf(ErrMismatchHashType, "want file, got %s", e.EntryType())
	}

	return f, nil
}

// AsSymlink narrows e to *SymlinkEntry, failing with ErrMismatchHashType otherwise.
func AsSymlink(e Entry) (*SymlinkEntry, error) {
	s, ok := e.(*SymlinkEntry)
	if !ok {
		return nil, errors.Wrapf(ErrMismatchHashType, "want symlink, got %s", e.EntryType())
	}

	return s, nil
}

// dirWire/fileWire/symlinkWire are the on-disk shapes of each variant,
// deliberately excluding the id field (spec: the id cannot influence its
// own hash, so it is never part of what gets hashed or serialized).
type dirWire struct {
	Attr     Attributes `json:"attr"`
	Children []FsHash   `json:"children"`
}

type fileWire struct {
	Attr Attributes `json:"attr"`
}

type symlinkWire struct {
	Attr   Attributes `json:"attr"`
	Target string     `json:"target"`
	IsDir  bool       `json:"is_dir"`
}

type entryEnvelope struct {
	Dir     *dirWire     `json:"dir,omitempty"`
	File    *fileWire    `json:"file,omitempty"`
	Symlink *symlinkWire `json:"symlink,omitempty"`
}

// MarshalEntry renders e's canonical, id-less JSON form: the same bytes
// used both to compute e's hash and to persist it as an object.
func MarshalEntry(e Entry) ([]byte, error) {
	var env entryEnvelope

	switch v := e.(type) {
	case *DirEntry:
		env.Dir = &dirWire{Attr: v.attr, Children: v.children}
	case *FileEntry:
		env.File = &fileWire{Attr: v.attr}
	case *SymlinkEntry:
		env.Symlink = &symlinkWire{Attr: v.attr, Target: v.target, IsDir: v.isDir}
	default:
		return nil, errors.Errorf("unknown entry type %T", e)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling entry")
	}

	return data, nil
}

// UnmarshalEntry parses data as one of the three entry variants. The
// returned Entry has no id set; callers that know the id it was read
// under (the object's HashID) should call AssignID.
func UnmarshalEntry(data []byte) (Entry, error) {
	var env entryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decoding entry")
	}

	switch {
	case env.Dir != nil:
		return &DirEntry{attr: env.Dir.Attr, children: env.Dir.Children}, nil
	case env.File != nil:
		return &FileEntry{attr: env.File.Attr}, nil
	case env.Symlink != nil:
		return &SymlinkEntry{attr: env.Symlink.Attr, target: env.Symlink.Target, isDir: env.Symlink.IsDir}, nil
	default:
		return nil, errors.New("entry envelope has no recognized variant")
	}
}

// AssignID sets e's id to id. Used when reinjecting the id an entry was
// loaded under, which is known from its storage location rather than its
// serialized form.
func AssignID(e Entry, id HashID) {
	e.setID(id)
}
