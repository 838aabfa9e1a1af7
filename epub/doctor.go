package epub

import (
	"archive/zip"
	"fmt"
	"os"
	"sort"
	"strings"

	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
)

// Finding is a single issue reported by Examine.
type Finding struct {
	Severity Severity
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Severity, f.Message)
}

// Diagnosis is the outcome of a container health check.
type Diagnosis struct {
	Findings []Finding
	// Files lists archive entries in natural order, empty when the
	// archive itself cannot be read.
	Files []string
}

func (d *Diagnosis) warn(format string, args ...any) {
	d.Findings = append(d.Findings, Finding{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnosis) fail(format string, args ...any) {
	d.Findings = append(d.Findings, Finding{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Healthy reports whether the check found no error-severity issues.
// Warnings do not make a book unhealthy.
func (d *Diagnosis) Healthy() bool {
	for _, f := range d.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Examine checks the archive at path for structural problems without
// requiring that the book opens cleanly. I/O problems are reported as
// findings, not returned.
func Examine(name string) *Diagnosis {
	d := &Diagnosis{}

	zc, err := zip.OpenReader(name)
	if err != nil {
		d.fail("%v", describeOpenFailure(name))
		return d
	}
	defer zc.Close()

	if len(zc.File) == 0 {
		d.fail("archive is empty")
		return d
	}

	checkMimetype(d, zc.File)
	checkDataDescriptors(d, zc.File)

	c := &Container{zr: &zc.Reader}
	d.Files = c.Files()
	sort.Sort(natural.StringSlice(d.Files))
	if err := c.init(); err != nil {
		d.fail("%v", err)
		return d
	}

	checkSpine(d, c)
	checkResources(d, c)
	checkNav(d, c)
	checkCover(d, c)
	return d
}

func checkMimetype(d *Diagnosis, files []*zip.File) {
	first := files[0]
	if first.Name != "mimetype" {
		hasIt := false
		for _, f := range files {
			if f.Name == "mimetype" {
				hasIt = true
				break
			}
		}
		if hasIt {
			d.warn("mimetype is not the first archive entry")
		} else {
			d.warn("archive has no mimetype entry")
		}
		return
	}
	if first.Method != zip.Store {
		d.warn("mimetype entry is compressed, strict readers expect it stored")
	}
	rc, err := first.Open()
	if err != nil {
		d.fail("unable to read mimetype entry: %v", err)
		return
	}
	defer rc.Close()
	buf := make([]byte, 64)
	n, _ := rc.Read(buf)
	if got := strings.TrimSpace(string(buf[:n])); got != MimetypeContent {
		d.fail("mimetype entry contains %q instead of %q", got, MimetypeContent)
	}
}

func checkDataDescriptors(d *Diagnosis, files []*zip.File) {
	// bit 3 of the general purpose flags marks a trailing data descriptor
	count := 0
	for _, f := range files {
		if f.Flags&0x8 != 0 {
			count++
		}
	}
	if count > 0 {
		d.warn("%d entries use data descriptors, some readers reject those (FixZip rewrites the archive)", count)
	}
}

func checkSpine(d *Diagnosis, c *Container) {
	for _, idref := range c.dangling {
		d.fail("spine references unknown manifest item %q", idref)
	}
	for _, s := range c.spine {
		if !c.Has(s.Path) {
			d.fail("spine document %s is missing from the archive", s.Path)
		}
	}
}

func checkResources(d *Diagnosis, c *Container) {
	for _, item := range c.Manifest() {
		if item.Href == "" {
			d.warn("manifest item %q has no href", item.ID)
			continue
		}
		// spine documents are covered by checkSpine, missing images or
		// fonts only degrade rendering
		if !c.Has(item.Href) && c.SpineIndexOf(item.Href) < 0 {
			d.warn("manifest resource %s is missing from the archive", item.Href)
		}
	}
}

func checkNav(d *Diagnosis, c *Container) {
	if _, ok := c.findNavDoc(); ok {
		return
	}
	if _, ok := c.findNCX(); ok {
		return
	}
	d.warn("book has no navigation document, table of contents falls back to the spine")
}

func checkCover(d *Diagnosis, c *Container) {
	if _, ok := c.Cover(); !ok {
		d.warn("book declares no cover image")
	}
}

// FixZip rewrites the archive at src into dst, dropping data descriptor
// flags that confuse strict readers. Entry order and compression are
// preserved.
func FixZip(src, dst string) error {

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", dst, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", src, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to copy archive entry (%s): %w", file.Name, err)
		}
	}
	return nil
}
