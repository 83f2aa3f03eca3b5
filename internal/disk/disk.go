// Package disk emulates a single-surface physical disk: a fixed number of
// tracks, each split into the same number of fixed-size sectors. Addressing
// is by flat sector number (track*SectorsPerTrack + sector-within-track),
// matching the geometry documented in the original Nachos machine/disk.h.
//
// Unlike the real Nachos disk, request completion here is synchronous — the
// asynchronous, interrupt-driven variant belongs to the emulated machine,
// which is out of scope (see spec.md §1). SynchDisk (syncdisk.go) still
// serializes access the way the original's interrupt-driven disk did, since
// the file system above it assumes at most one in-flight request.
package disk

import (
	"os"

	"github.com/pkg/errors"
)

// Fixed geometry (spec.md §3): 128-byte sectors, 32 tracks of 32 sectors
// each, for 1024 sectors total.
const (
	SectorSize      = 128
	SectorsPerTrack = 32
	NumTracks       = 32
	NumSectors      = SectorsPerTrack * NumTracks
)

// Disk is a simulated block device backed by a single host file. Sector 0 is
// always readable/writable once the backing file has been formatted to
// NumSectors*SectorSize bytes; Format does that.
type Disk struct {
	path string
	file *os.File

	Reads  uint64
	Writes uint64
}

// Open opens an existing disk image file. Use Format to create a fresh one.
func Open(path string) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open disk image")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat disk image")
	}
	if fi.Size() != int64(NumSectors*SectorSize) {
		f.Close()
		return nil, errors.Errorf("disk image %q has wrong size %d, want %d", path, fi.Size(), NumSectors*SectorSize)
	}
	return &Disk{path: path, file: f}, nil
}

// Format creates a fresh, zeroed disk image file of exactly NumSectors
// sectors and opens it.
func Format(path string) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "create disk image")
	}
	if err := f.Truncate(int64(NumSectors * SectorSize)); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "truncate disk image")
	}
	return &Disk{path: path, file: f}, nil
}

func (d *Disk) Close() error {
	return d.file.Close()
}

// ReadSector reads exactly SectorSize bytes from sector i into buf.
func (d *Disk) ReadSector(i int, buf []byte) error {
	if i < 0 || i >= NumSectors {
		return errors.Errorf("sector %d out of range [0,%d)", i, NumSectors)
	}
	if len(buf) != SectorSize {
		return errors.Errorf("read buffer has length %d, want %d", len(buf), SectorSize)
	}
	n, err := d.file.ReadAt(buf, int64(i)*SectorSize)
	if err != nil {
		return errors.Wrapf(err, "read sector %d", i)
	}
	if n != SectorSize {
		return errors.Errorf("short read on sector %d: got %d bytes", i, n)
	}
	d.Reads++
	return nil
}

// WriteSector writes exactly SectorSize bytes from buf to sector i.
func (d *Disk) WriteSector(i int, buf []byte) error {
	if i < 0 || i >= NumSectors {
		return errors.Errorf("sector %d out of range [0,%d)", i, NumSectors)
	}
	if len(buf) != SectorSize {
		return errors.Errorf("write buffer has length %d, want %d", len(buf), SectorSize)
	}
	n, err := d.file.WriteAt(buf, int64(i)*SectorSize)
	if err != nil {
		return errors.Wrapf(err, "write sector %d", i)
	}
	if n != SectorSize {
		return errors.Errorf("short write on sector %d: wrote %d bytes", i, n)
	}
	d.Writes++
	return nil
}
