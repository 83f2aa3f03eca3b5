package filesys

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultTableSize is the number of directory-table slots formatted into a
// fresh filesystem. It comfortably fits inside one file's worth of direct
// sectors (64*entrySize bytes, well under MaxFileSize) while leaving room
// for realistic test trees.
const DefaultTableSize = 64

// RootSlot is the permanently-reserved slot holding the "root" directory
// (spec.md §3: "Slot 0 is reserved and permanently holds the root
// directory").
const RootSlot = 0

// Directory holds the whole namespace as one fixed-size table; the
// hierarchy is encoded as a left-child/right-sibling binary tree embedded
// in the flat array (spec.md §3, §9), ported from the original's
// DirectoryEntry/Directory classes (directory.cc) with the same traversal
// shape. The caller is responsible for serializing the whole table in/out
// of the directory file (spec.md §4.3 Persistence) via Bytes/FromBytes;
// Directory itself assumes mutual exclusion is provided by the caller
// (spec.md §5), matching the original's "we assume mutual exclusion is
// provided by the caller" contract.
type Directory struct {
	table []entry
}

// NewDirectory builds a fresh, empty directory of the given size, with slot
// 0 initialized as "root".
func NewDirectory(size int) *Directory {
	d := &Directory{table: make([]entry, size)}
	for i := range d.table {
		d.table[i] = entry{Parent: noLink, LeftChild: noLink, Siblings: noLink}
	}
	d.table[RootSlot].InUse = true
	d.table[RootSlot].Parent = noLink
	d.table[RootSlot].FileType = TypeDirectory
	d.table[RootSlot].setName("root")
	return d
}

// Bytes serializes the whole table as one contiguous byte image, for
// writing into the directory file (spec.md §4.3 Persistence).
func (d *Directory) Bytes() []byte {
	buf := make([]byte, len(d.table)*entrySize)
	for i := range d.table {
		d.table[i].encode(buf[i*entrySize : (i+1)*entrySize])
	}
	return buf
}

// FromBytes replaces the directory's contents with the image in buf, which
// must hold exactly TableSize() entries' worth of bytes.
func (d *Directory) FromBytes(buf []byte) error {
	if len(buf) != len(d.table)*entrySize {
		return errors.Errorf("directory: image has %d bytes, want %d", len(buf), len(d.table)*entrySize)
	}
	for i := range d.table {
		d.table[i].decode(buf[i*entrySize : (i+1)*entrySize])
	}
	return nil
}

func (d *Directory) TableSize() int { return len(d.table) }

// parsedPath is a validated path split into its segments, with the implied
// target type (file vs. directory) recorded from the trailing slash.
type parsedPath struct {
	segments []string // without the leading "root"
	isDir    bool
}

// parsePath implements spec.md §4.3 Path parsing: split on '/', discard the
// leading empty segment, require the first segment to equal "root". A
// trailing '/' denotes a directory target; its absence denotes a file
// target.
func parsePath(path string) (parsedPath, error) {
	if path == "" || path[0] != '/' {
		return parsedPath{}, errors.New("directory: path must start with '/'")
	}
	isDir := strings.HasSuffix(path, "/")
	trimmed := strings.TrimSuffix(path, "/")
	raw := strings.Split(trimmed, "/")
	// raw[0] is "" from the leading '/'.
	if len(raw) < 2 || raw[0] != "" {
		return parsedPath{}, errors.New("directory: malformed path")
	}
	if raw[1] != "root" {
		return parsedPath{}, errors.New("directory: path must start with /root")
	}
	segs := raw[2:]
	return parsedPath{segments: segs, isDir: isDir}, nil
}

// Find looks up path and returns the disk sector number where its file
// header is stored, or -1 if path does not resolve to a file (spec.md
// §4.3). For a directory target it returns -1; use FindIndex if you need
// the slot itself.
func (d *Directory) Find(path string) int {
	idx := d.FindIndex(path)
	if idx == -1 || d.table[idx].FileType != TypeFile {
		return -1
	}
	return int(d.table[idx].Sector)
}

// FindIndex walks the tree per spec.md §4.3: starting at slot 0, for each
// intermediate segment it follows left_child then siblings looking for an
// in-use, directory-typed entry whose name matches; the final segment must
// additionally match the path's implied type. Any miss returns -1.
func (d *Directory) FindIndex(path string) int {
	pp, err := parsePath(path)
	if err != nil {
		return -1
	}
	return d.findIndexParsed(pp)
}

func (d *Directory) findIndexParsed(pp parsedPath) int {
	cur := RootSlot
	if len(pp.segments) == 0 {
		if !pp.isDir {
			return -1 // "/root" with no trailing slash names no file
		}
		return RootSlot
	}
	for i, seg := range pp.segments {
		wantType := TypeDirectory
		if i == len(pp.segments)-1 && !pp.isDir {
			wantType = TypeFile
		}
		child := d.findChild(cur, seg, wantType)
		if child < 0 {
			return -1
		}
		cur = child
	}
	return cur
}

// findChild walks parent's left_child/siblings chain for an in-use entry of
// the given type whose name matches seg under a bounded (F-char) compare.
func (d *Directory) findChild(parent int, seg string, wantType FileType) int {
	child := int(d.table[parent].LeftChild)
	for child != -1 {
		e := &d.table[child]
		if e.InUse && e.FileType == wantType && boundedEqual(e.name(), seg) {
			return child
		}
		child = int(e.Siblings)
	}
	return -1
}

func boundedEqual(a, b string) bool {
	if len(a) > MaxNameLen {
		a = a[:MaxNameLen]
	}
	if len(b) > MaxNameLen {
		b = b[:MaxNameLen]
	}
	return a == b
}

// appendChild threads child onto the end of parent's sibling chain,
// preserving insertion order (spec.md §4.3 "Tree threading discipline").
func (d *Directory) appendChild(parent, child int) {
	if d.table[parent].LeftChild == noLink {
		d.table[parent].LeftChild = int32(child)
		return
	}
	c := int(d.table[parent].LeftChild)
	for d.table[c].Siblings != noLink {
		c = int(d.table[c].Siblings)
	}
	d.table[c].Siblings = int32(child)
}

// unlinkChild splices child out of its parent's sibling chain.
func (d *Directory) unlinkChild(parent, child int) {
	if int(d.table[parent].LeftChild) == child {
		d.table[parent].LeftChild = d.table[child].Siblings
		return
	}
	c := int(d.table[parent].LeftChild)
	for c != -1 && int(d.table[c].Siblings) != child {
		c = int(d.table[c].Siblings)
	}
	if c != -1 {
		d.table[c].Siblings = d.table[child].Siblings
	}
}

func (d *Directory) freeSlot() int {
	for i, e := range d.table {
		if !e.InUse {
			return i
		}
	}
	return -1
}

// Add adds a new file entry at path, pointing at newSector, auto-creating
// any missing intermediate directories (spec.md §4.3). If the leaf cannot
// be created (no free slot), every intermediate directory created during
// this call is unwound — Add is atomic, resolving the open question in
// spec.md §9 as "all or nothing".
func (d *Directory) Add(path string, newSector int) error {
	pp, err := parsePath(path)
	if err != nil {
		return err
	}
	if pp.isDir {
		return errors.New("directory: Add requires a file path (no trailing '/')")
	}
	if len(pp.segments) == 0 {
		return errors.New("directory: cannot add root")
	}
	if d.findIndexParsed(pp) != -1 {
		return errors.Errorf("directory: %s already exists", path)
	}

	cur := RootSlot
	var created []int
	for _, seg := range pp.segments[:len(pp.segments)-1] {
		child := d.findChild(cur, seg, TypeDirectory)
		if child == -1 {
			slot := d.freeSlot()
			if slot == -1 {
				d.rollback(created)
				return errors.New("directory: table full")
			}
			d.table[slot] = entry{
				InUse: true, Parent: int32(cur), LeftChild: noLink, Siblings: noLink,
				FileType: TypeDirectory,
			}
			d.table[slot].setName(seg)
			d.appendChild(cur, slot)
			created = append(created, slot)
			child = slot
		}
		cur = child
	}

	leafName := pp.segments[len(pp.segments)-1]
	slot := d.freeSlot()
	if slot == -1 {
		d.rollback(created)
		return errors.New("directory: table full")
	}
	d.table[slot] = entry{
		InUse: true, Parent: int32(cur), LeftChild: noLink, Siblings: noLink,
		FileType: TypeFile, Sector: int32(newSector),
	}
	d.table[slot].setName(leafName)
	d.appendChild(cur, slot)
	return nil
}

// AddDir creates an empty directory at path (which must end in '/'),
// auto-creating any missing intermediate directories the same way Add does,
// and rolling back every slot this call claimed if the leaf cannot be
// created.
func (d *Directory) AddDir(path string) error {
	pp, err := parsePath(path)
	if err != nil {
		return err
	}
	if !pp.isDir {
		return errors.New("directory: AddDir requires a directory path (trailing '/')")
	}
	if len(pp.segments) == 0 {
		return errors.New("directory: root always exists")
	}
	if d.findIndexParsed(pp) != -1 {
		return errors.Errorf("directory: %s already exists", path)
	}

	cur := RootSlot
	var created []int
	for _, seg := range pp.segments {
		child := d.findChild(cur, seg, TypeDirectory)
		if child == -1 {
			slot := d.freeSlot()
			if slot == -1 {
				d.rollback(created)
				return errors.New("directory: table full")
			}
			d.table[slot] = entry{
				InUse: true, Parent: int32(cur), LeftChild: noLink, Siblings: noLink,
				FileType: TypeDirectory,
			}
			d.table[slot].setName(seg)
			d.appendChild(cur, slot)
			created = append(created, slot)
			child = slot
		}
		cur = child
	}
	return nil
}

// rollback undoes intermediate directory slots created by a failed Add, in
// reverse creation order, unlinking each from its parent's sibling chain
// and marking it free again.
func (d *Directory) rollback(created []int) {
	for i := len(created) - 1; i >= 0; i-- {
		slot := created[i]
		parent := int(d.table[slot].Parent)
		d.unlinkChild(parent, slot)
		d.table[slot] = entry{Parent: noLink, LeftChild: noLink, Siblings: noLink}
	}
}

// Remove removes the file or directory named by path. A file target is
// simply unlinked and freed, and its file-header sector is returned. A
// directory target is forbidden for "/root/"; otherwise its subtree root is
// unlinked, then a breadth-first walk over the embedded tree marks every
// still-reachable in-use slot free — correct specifically because the
// unlink, which also clears the subtree root's own sibling link, has
// severed every link to the rest of the namespace
// (spec.md §4.3) — and the header sector of every *file* found in the
// subtree is returned so the caller (FileSystem.Remove) can deallocate its
// data sectors too; directory slots carry no sector of their own.
func (d *Directory) Remove(path string) (fileSectors []int, isDir bool, err error) {
	pp, perr := parsePath(path)
	if perr != nil {
		return nil, false, perr
	}
	if len(pp.segments) == 0 {
		return nil, false, errors.New("directory: cannot remove root")
	}
	idx := d.findIndexParsed(pp)
	if idx == -1 {
		return nil, false, errors.Errorf("directory: %s not found", path)
	}

	parent := int(d.table[idx].Parent)
	d.unlinkChild(parent, idx)
	d.table[idx].Siblings = noLink

	if !pp.isDir {
		sector := int(d.table[idx].Sector)
		d.table[idx].InUse = false
		return []int{sector}, false, nil
	}

	// Breadth-first walk of the now-severed subtree, freeing every
	// reachable in-use slot.
	queue := []int{idx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if d.table[cur].FileType == TypeFile {
			fileSectors = append(fileSectors, int(d.table[cur].Sector))
		}
		d.table[cur].InUse = false
		left := int(d.table[cur].LeftChild)
		right := int(d.table[cur].Siblings)
		if left != -1 && d.table[left].InUse {
			queue = append(queue, left)
		}
		if right != -1 && d.table[right].InUse {
			queue = append(queue, right)
		}
	}
	return fileSectors, true, nil
}

// Entry is a read-only view of one live directory slot, for List.
type Entry struct {
	Path   string
	Sector int
	IsDir  bool
}

// List enumerates in-use slots in table order, reconstructing each one's
// absolute path by walking parent to root and appending a trailing '/' for
// directories (spec.md §4.3).
func (d *Directory) List() []Entry {
	var out []Entry
	for i, e := range d.table {
		if !e.InUse {
			continue
		}
		path := d.absolutePath(i)
		isDir := e.FileType == TypeDirectory
		if isDir {
			path += "/"
		}
		out = append(out, Entry{Path: path, Sector: int(e.Sector), IsDir: isDir})
	}
	return out
}

// absolutePath walks parent links from slot i up to root, concatenating
// names along the way.
func (d *Directory) absolutePath(i int) string {
	var names []string
	for i != -1 {
		names = append([]string{d.table[i].name()}, names...)
		i = int(d.table[i].Parent)
	}
	return "/" + strings.Join(names, "/")
}
