// Package epub opens packaged books and exposes their publication structure:
// container and package documents, reading order, manifest resources,
// navigation tree and cover image.
package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"epr/common"
	"epr/text"
)

// MimetypeContent is the required content of the "mimetype" archive entry.
const MimetypeContent = "application/epub+zip"

var (
	ErrInvalidArchive  = errors.New("source is not a readable book archive")
	ErrInvalidMimetype = errors.New("archive mimetype does not declare a packaged book")
	ErrDRMProtected    = errors.New("book content is DRM protected")
	ErrNoContainer     = errors.New("archive has no usable META-INF/container.xml")
	ErrNoRootfile      = errors.New("container.xml names no package document")
	ErrInvalidOPF      = errors.New("package document cannot be parsed")
	ErrEmptySpine      = errors.New("package document has an empty spine")
	ErrMissingResource = errors.New("referenced resource is not in the archive")
)

// Metadata holds the Dublin Core fields of the package document. Only the
// first occurrence of single-valued fields is kept, except for the
// identifier where the one named by unique-identifier wins.
type Metadata struct {
	Title       string
	Authors     []string
	Language    string
	Identifier  string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	Modified    time.Time
}

// ManifestItem is a single declared publication resource. Href is already
// resolved to the full archive path.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// HasProperty reports whether the item carries the given space-separated
// property, for example "nav" or "cover-image".
func (mi ManifestItem) HasProperty(prop string) bool {
	for _, p := range mi.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// SpineItem is one content document in reading order. Path is the full
// archive path of the document.
type SpineItem struct {
	ID     string
	Path   string
	Linear bool
}

type spineRef struct {
	idref  string
	linear bool
}

// Container gives access to an opened book archive. It is safe for
// concurrent reads once opened.
type Container struct {
	closer io.Closer
	zr     *zip.Reader

	opfPath string
	baseDir string
	version string
	coverID string
	ncxID   string

	meta     Metadata
	manifest map[string]ManifestItem
	order    []string
	spine    []SpineItem
	spineIdx map[string]int
	dangling []string

	files map[string]*zip.File
}

// Open opens the book archive at path.
func Open(name string) (*Container, error) {
	zc, err := zip.OpenReader(name)
	if err != nil {
		return nil, describeOpenFailure(name)
	}
	c := &Container{closer: zc, zr: &zc.Reader}
	if err := c.init(); err != nil {
		zc.Close()
		return nil, err
	}
	return c, nil
}

// OpenReader opens a book archive from an in-memory or otherwise seekable
// source.
func OpenReader(ra io.ReaderAt, size int64) (*Container, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	c := &Container{zr: zr}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

// describeOpenFailure sniffs the source so a misnamed PDF or mobi file gets
// a more useful message than a generic zip error.
func describeOpenFailure(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer f.Close()

	head := make([]byte, 261)
	n, _ := io.ReadFull(f, head)
	if kind, err := filetype.Match(head[:n]); err == nil && kind != filetype.Unknown &&
		kind.Extension != "zip" && kind.Extension != "epub" {
		return fmt.Errorf("%w: source looks like %s", ErrInvalidArchive, kind.MIME.Value)
	}
	return ErrInvalidArchive
}

// Close releases the underlying archive. Containers opened from a reader
// have nothing to release.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func (c *Container) init() error {
	c.files = make(map[string]*zip.File, len(c.zr.File))
	for _, f := range c.zr.File {
		c.files[f.Name] = f
	}

	// A missing mimetype entry is tolerated here (the doctor flags it), a
	// wrong one is not.
	if data, err := c.readFile("mimetype"); err == nil {
		if strings.TrimSpace(string(data)) != MimetypeContent {
			return ErrInvalidMimetype
		}
	}

	if err := c.checkDRM(); err != nil {
		return err
	}

	opfPath, err := c.parseContainerXML()
	if err != nil {
		return err
	}
	c.opfPath = opfPath
	if c.baseDir = path.Dir(opfPath); c.baseDir == "." {
		c.baseDir = ""
	}

	data, err := c.readFile(opfPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOPF, opfPath)
	}
	if err := c.parseOPF(data); err != nil {
		return err
	}
	if len(c.spine) == 0 {
		return ErrEmptySpine
	}
	return nil
}

func (c *Container) readFile(name string) ([]byte, error) {
	f, ok := c.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingResource, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open archive entry %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (c *Container) parseContainerXML() (string, error) {
	data, err := c.readFile("META-INF/container.xml")
	if err != nil {
		return "", ErrNoContainer
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", ErrNoContainer
	}
	root := doc.Root()
	if root == nil || root.Tag != "container" {
		return "", ErrNoContainer
	}

	// Prefer the rootfile declared as a package document, fall back to the
	// first one listed.
	var fallback string
	for _, rfs := range root.ChildElements() {
		if rfs.Tag != "rootfiles" {
			continue
		}
		for _, rf := range rfs.ChildElements() {
			if rf.Tag != "rootfile" {
				continue
			}
			fp := rf.SelectAttrValue("full-path", "")
			if fp == "" {
				continue
			}
			if fallback == "" {
				fallback = fp
			}
			mt := rf.SelectAttrValue("media-type", "")
			if mt == "" || mt == "application/oebps-package+xml" {
				return fp, nil
			}
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoRootfile
}

func (c *Container) parseOPF(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return ErrInvalidOPF
	}
	root := doc.Root()
	if root == nil || root.Tag != "package" {
		return ErrInvalidOPF
	}
	c.version = root.SelectAttrValue("version", "")
	uniqueID := root.SelectAttrValue("unique-identifier", "")

	c.manifest = make(map[string]ManifestItem)
	c.spineIdx = make(map[string]int)

	var refs []spineRef
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "metadata":
			c.parseMetadata(child, uniqueID)
		case "manifest":
			c.parseManifest(child)
		case "spine":
			c.ncxID = child.SelectAttrValue("toc", "")
			for _, ref := range child.ChildElements() {
				if ref.Tag != "itemref" {
					continue
				}
				idref := ref.SelectAttrValue("idref", "")
				if idref == "" {
					continue
				}
				refs = append(refs, spineRef{
					idref:  idref,
					linear: ref.SelectAttrValue("linear", "yes") != "no",
				})
			}
		}
	}

	// Packaging rules require an identifier but books without one do turn
	// up. Identity still has to exist, even if it only lives for this open.
	if c.meta.Identifier == "" {
		if id, err := uuid.NewV7(); err == nil {
			c.meta.Identifier = id.String()
		}
	}

	// Spine references are resolved after the walk so manifest and spine
	// ordering inside the document does not matter.
	for _, ref := range refs {
		item, ok := c.manifest[ref.idref]
		if !ok {
			c.dangling = append(c.dangling, ref.idref)
			continue
		}
		if _, dup := c.spineIdx[item.Href]; dup {
			continue
		}
		c.spineIdx[item.Href] = len(c.spine)
		c.spine = append(c.spine, SpineItem{ID: ref.idref, Path: item.Href, Linear: ref.linear})
	}
	return nil
}

func (c *Container) parseMetadata(el *etree.Element, uniqueID string) {
	for _, child := range el.ChildElements() {
		// pretty-printed package documents wrap values over several lines,
		// titles and names also show up in decomposed unicode
		val := text.NormalizeText(child.Text())
		switch child.Tag {
		case "title":
			if c.meta.Title == "" {
				c.meta.Title = val
			}
		case "creator":
			if val != "" {
				c.meta.Authors = append(c.meta.Authors, val)
			}
		case "language":
			if c.meta.Language == "" {
				c.meta.Language = val
			}
		case "identifier":
			bookID := common.NormalizeBookID(val)
			if id := child.SelectAttrValue("id", ""); id != "" && id == uniqueID {
				c.meta.Identifier = bookID
			} else if c.meta.Identifier == "" {
				c.meta.Identifier = bookID
			}
		case "publisher":
			if c.meta.Publisher == "" {
				c.meta.Publisher = val
			}
		case "date":
			if c.meta.Date == "" {
				c.meta.Date = val
			}
		case "description":
			if c.meta.Description == "" {
				c.meta.Description = val
			}
		case "subject":
			if val != "" {
				c.meta.Subjects = append(c.meta.Subjects, val)
			}
		case "meta":
			switch {
			case child.SelectAttrValue("property", "") == "dcterms:modified":
				if t, err := time.Parse(time.RFC3339, val); err == nil {
					c.meta.Modified = t
				}
			case child.SelectAttrValue("name", "") == "cover":
				c.coverID = child.SelectAttrValue("content", "")
			}
		}
	}
}

func (c *Container) parseManifest(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if child.Tag != "item" {
			continue
		}
		item := ManifestItem{
			ID:        child.SelectAttrValue("id", ""),
			Href:      c.resolveHref(child.SelectAttrValue("href", "")),
			MediaType: child.SelectAttrValue("media-type", ""),
		}
		if props := child.SelectAttrValue("properties", ""); props != "" {
			item.Properties = strings.Fields(props)
		}
		if item.ID == "" {
			continue
		}
		if _, dup := c.manifest[item.ID]; dup {
			continue
		}
		c.manifest[item.ID] = item
		c.order = append(c.order, item.ID)
	}
}

// resolveHref turns a package-relative href into a full archive path,
// undoing URL escaping on the way.
func (c *Container) resolveHref(href string) string {
	if decoded, err := url.QueryUnescape(href); err == nil {
		href = decoded
	}
	href = strings.TrimPrefix(href, "./")
	if c.baseDir == "" || href == "" {
		return href
	}
	return path.Join(c.baseDir, href)
}

func (c *Container) checkDRM() error {
	// rights.xml is the Adobe ADEPT marker, its presence alone means the
	// content keys live elsewhere.
	if _, ok := c.files["META-INF/rights.xml"]; ok {
		return ErrDRMProtected
	}
	if _, ok := c.files["META-INF/encryption.xml"]; !ok {
		return nil
	}
	data, err := c.readFile("META-INF/encryption.xml")
	if err != nil {
		return ErrDRMProtected
	}
	encrypted, err := hasEncryptedContent(data)
	if err != nil || encrypted {
		return ErrDRMProtected
	}
	return nil
}

// hasEncryptedContent reports whether encryption.xml covers anything beyond
// font obfuscation. Obfuscated fonts are fine, encrypted content documents
// are not.
func hasEncryptedContent(data []byte) (bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return false, err
	}
	root := doc.Root()
	if root == nil {
		return false, errors.New("empty encryption document")
	}
	for _, ed := range root.ChildElements() {
		if ed.Tag != "EncryptedData" {
			continue
		}
		var algorithm, uri string
		for _, child := range ed.ChildElements() {
			switch child.Tag {
			case "EncryptionMethod":
				algorithm = child.SelectAttrValue("Algorithm", "")
			case "CipherData":
				if ref := child.SelectElement("CipherReference"); ref != nil {
					uri = ref.SelectAttrValue("URI", "")
				}
			}
		}
		if isFontObfuscation(algorithm) {
			continue
		}
		if isContentPath(uri) {
			return true, nil
		}
	}
	return false, nil
}

func isFontObfuscation(algorithm string) bool {
	switch algorithm {
	case "http://www.idpf.org/2008/embedding", "http://ns.adobe.com/pdf/enc#RC":
		return true
	}
	return false
}

func isContentPath(uri string) bool {
	switch strings.ToLower(path.Ext(uri)) {
	case ".xhtml", ".html", ".htm", ".xml", ".css":
		return true
	}
	return false
}

// Metadata returns the publication metadata.
func (c *Container) Metadata() Metadata {
	return c.meta
}

// Version returns the package version attribute, for example "3.0".
func (c *Container) Version() string {
	return c.version
}

// OPFPath returns the archive path of the package document.
func (c *Container) OPFPath() string {
	return c.opfPath
}

// Spine returns the reading order of the book.
func (c *Container) Spine() []SpineItem {
	return c.spine
}

// SpineIndexOf returns the position of the content document with the given
// archive path in the reading order, or -1 when it is not part of the spine.
func (c *Container) SpineIndexOf(docPath string) int {
	if idx, ok := c.spineIdx[docPath]; ok {
		return idx
	}
	return -1
}

// Manifest returns all declared resources in document order.
func (c *Container) Manifest() []ManifestItem {
	items := make([]ManifestItem, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.manifest[id])
	}
	return items
}

// Item looks up a manifest item by its identifier.
func (c *Container) Item(id string) (ManifestItem, bool) {
	item, ok := c.manifest[id]
	return item, ok
}

// Files returns the names of all archive entries.
func (c *Container) Files() []string {
	names := make([]string, 0, len(c.zr.File))
	for _, f := range c.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether the archive contains the entry.
func (c *Container) Has(name string) bool {
	_, ok := c.files[name]
	return ok
}

// ReadResource returns the content of the archive entry with the given
// path.
func (c *Container) ReadResource(name string) ([]byte, error) {
	return c.readFile(name)
}

// ReadItem returns the content of a manifest item.
func (c *Container) ReadItem(item ManifestItem) ([]byte, error) {
	return c.readFile(item.Href)
}

// Cover returns the manifest item of the cover image when the package
// declares one. EPUB 3 cover-image property wins over the EPUB 2 cover
// meta, well known item identifiers are tried last.
func (c *Container) Cover() (ManifestItem, bool) {
	for _, id := range c.order {
		if c.manifest[id].HasProperty("cover-image") {
			return c.manifest[id], true
		}
	}
	if c.coverID != "" {
		if item, ok := c.Item(c.coverID); ok {
			return item, true
		}
	}
	for _, id := range []string{"cover-image", "cover"} {
		if item, ok := c.Item(id); ok && strings.HasPrefix(item.MediaType, "image/") {
			return item, true
		}
	}
	return ManifestItem{}, false
}
