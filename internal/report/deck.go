package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/ignite/casedeck/internal/datanorm"
)

// A PPTX file is an OPC package: a zip of XML parts plus media, glued
// together by relationship files. The builder clones the template's first
// slide once per case, swaps the placeholder tokens and the screenshot
// image, and rewrites the package bookkeeping ([Content_Types].xml,
// presentation.xml and the .rels files) so the new slides are reachable.

const (
	relTypeSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeImage  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeNotes  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	slideContent  = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	descriptionSz = `sz="1050"` // 10.5pt, small enough for a full paragraph
)

type relationships struct {
	XMLName xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

type contentTypes struct {
	XMLName   xml.Name     `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type part struct {
	name string
	data []byte
}

// deck holds the unpacked template while slides are grafted in. Part
// order is preserved so the output diffs cleanly against the template.
type deck struct {
	parts []*part
	index map[string]*part
}

var (
	slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	mediaPartRe = regexp.MustCompile(`^ppt/media/image(\d+)\.\w+$`)
	sldIDRe     = regexp.MustCompile(`<p:sldId id="(\d+)"`)
	firstSldRe  = regexp.MustCompile(`<p:sldId[^>]*r:id="([^"]+)"`)
	relIDRe     = regexp.MustCompile(`^rId(\d+)$`)
	picRe       = regexp.MustCompile(`(?s)<p:pic>.*?</p:pic>`)
	picNameRe   = regexp.MustCompile(`name="([^"]*)"`)
	picEmbedRe  = regexp.MustCompile(`r:embed="(rId\d+)"`)
	runSizeRe   = regexp.MustCompile(`sz="\d+"`)
	tokenRe     = regexp.MustCompile(`\{\{[a-zA-Z0-9_]+\}\}`)
)

// BuildDeck fills the template with one slide per artifact and returns
// the finished PPTX bytes. Artifacts must already be in slide order.
func BuildDeck(template []byte, artifacts []Artifact) ([]byte, error) {
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("no cases to render")
	}

	d, err := readPackage(template)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}

	slideName, err := d.firstSlide()
	if err != nil {
		return nil, err
	}
	layout := d.index[slideName]
	if layout == nil {
		return nil, fmt.Errorf("template slide %s missing from package", slideName)
	}
	layoutXML := string(layout.data)

	layoutRels := d.index[relsNameFor(slideName)]
	if layoutRels == nil {
		return nil, fmt.Errorf("template slide %s has no relationships part", slideName)
	}
	var baseRels relationships
	if err := xml.Unmarshal(layoutRels.data, &baseRels); err != nil {
		return nil, fmt.Errorf("parsing slide relationships: %w", err)
	}

	embedID, hasPic := pickScreenshotEmbed(layoutXML)
	nextSlide := d.maxNumber(slidePartRe) + 1
	nextImage := d.maxNumber(mediaPartRe) + 1

	for i, a := range artifacts {
		filled := fillSlide(layoutXML, a)

		rels := cloneRels(baseRels)
		if hasPic && a.Image != nil {
			mediaName := fmt.Sprintf("ppt/media/image%d.png", nextImage)
			nextImage++
			d.add(mediaName, a.Image)
			retarget(&rels, embedID, "../media/"+path.Base(mediaName))
		}
		relsData, err := marshalXML(&rels)
		if err != nil {
			return nil, fmt.Errorf("rendering slide relationships: %w", err)
		}

		if i == 0 {
			layout.data = []byte(filled)
			d.set(relsNameFor(slideName), relsData)
			continue
		}

		newName := fmt.Sprintf("ppt/slides/slide%d.xml", nextSlide)
		nextSlide++
		d.add(newName, []byte(filled))
		d.add(relsNameFor(newName), relsData)
		if err := d.registerSlide(newName); err != nil {
			return nil, err
		}
	}

	if err := d.ensurePNGDefault(); err != nil {
		return nil, err
	}
	return d.write()
}

func readPackage(data []byte) (*deck, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	d := &deck{index: make(map[string]*part)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		p := &part{name: f.Name, data: content}
		d.parts = append(d.parts, p)
		d.index[f.Name] = p
	}
	return d, nil
}

func (d *deck) write() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range d.parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *deck) add(name string, data []byte) {
	p := &part{name: name, data: data}
	d.parts = append(d.parts, p)
	d.index[name] = p
}

func (d *deck) set(name string, data []byte) {
	if p := d.index[name]; p != nil {
		p.data = data
		return
	}
	d.add(name, data)
}

// firstSlide resolves the first entry of the presentation's slide list
// through the relationship table. That slide is the per-case layout.
func (d *deck) firstSlide() (string, error) {
	pres := d.index["ppt/presentation.xml"]
	if pres == nil {
		return "", fmt.Errorf("template has no presentation part")
	}
	m := firstSldRe.FindSubmatch(pres.data)
	if m == nil {
		return "", fmt.Errorf("template has no slides")
	}
	relID := string(m[1])

	relsPart := d.index["ppt/_rels/presentation.xml.rels"]
	if relsPart == nil {
		return "", fmt.Errorf("template has no presentation relationships")
	}
	var rels relationships
	if err := xml.Unmarshal(relsPart.data, &rels); err != nil {
		return "", fmt.Errorf("parsing presentation relationships: %w", err)
	}
	for _, r := range rels.Rels {
		if r.ID == relID {
			return "ppt/" + r.Target, nil
		}
	}
	return "", fmt.Errorf("slide relationship %s not found", relID)
}

// registerSlide wires a new slide part into the package bookkeeping.
func (d *deck) registerSlide(name string) error {
	ct := d.index["[Content_Types].xml"]
	if ct == nil {
		return fmt.Errorf("template has no content types part")
	}
	var types contentTypes
	if err := xml.Unmarshal(ct.data, &types); err != nil {
		return fmt.Errorf("parsing content types: %w", err)
	}
	types.Overrides = append(types.Overrides, ctOverride{
		PartName:    "/" + name,
		ContentType: slideContent,
	})
	data, err := marshalXML(&types)
	if err != nil {
		return fmt.Errorf("rendering content types: %w", err)
	}
	ct.data = data

	relsPart := d.index["ppt/_rels/presentation.xml.rels"]
	var rels relationships
	if err := xml.Unmarshal(relsPart.data, &rels); err != nil {
		return fmt.Errorf("parsing presentation relationships: %w", err)
	}
	relID := fmt.Sprintf("rId%d", maxRelID(rels)+1)
	rels.Rels = append(rels.Rels, relationship{
		ID:     relID,
		Type:   relTypeSlide,
		Target: strings.TrimPrefix(name, "ppt/"),
	})
	data, err = marshalXML(&rels)
	if err != nil {
		return fmt.Errorf("rendering presentation relationships: %w", err)
	}
	relsPart.data = data

	pres := d.index["ppt/presentation.xml"]
	presXML := string(pres.data)
	slideID := maxSlideID(presXML) + 1
	entry := fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, slideID, relID)
	if !strings.Contains(presXML, "</p:sldIdLst>") {
		return fmt.Errorf("presentation has no slide id list")
	}
	pres.data = []byte(strings.Replace(presXML, "</p:sldIdLst>", entry+"</p:sldIdLst>", 1))
	return nil
}

func (d *deck) ensurePNGDefault() error {
	ct := d.index["[Content_Types].xml"]
	if ct == nil {
		return fmt.Errorf("template has no content types part")
	}
	if strings.Contains(string(ct.data), `Extension="png"`) {
		return nil
	}
	var types contentTypes
	if err := xml.Unmarshal(ct.data, &types); err != nil {
		return fmt.Errorf("parsing content types: %w", err)
	}
	types.Defaults = append(types.Defaults, ctDefault{Extension: "png", ContentType: "image/png"})
	data, err := marshalXML(&types)
	if err != nil {
		return fmt.Errorf("rendering content types: %w", err)
	}
	ct.data = data
	return nil
}

func (d *deck) maxNumber(re *regexp.Regexp) int {
	max := 0
	for _, p := range d.parts {
		if m := re.FindStringSubmatch(p.name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	}
	return max
}

func maxSlideID(presXML string) int {
	max := 255 // slide ids start at 256 per the format
	for _, m := range sldIDRe.FindAllStringSubmatch(presXML, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max
}

func maxRelID(rels relationships) int {
	max := 0
	for _, r := range rels.Rels {
		if m := relIDRe.FindStringSubmatch(r.ID); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	}
	return max
}

func relsNameFor(slideName string) string {
	return path.Dir(slideName) + "/_rels/" + path.Base(slideName) + ".rels"
}

func cloneRels(base relationships) relationships {
	out := relationships{}
	for _, r := range base.Rels {
		// Notes parts belong to exactly one slide; clones drop them.
		if r.Type == relTypeNotes {
			continue
		}
		out.Rels = append(out.Rels, r)
	}
	return out
}

func retarget(rels *relationships, relID, target string) {
	for i := range rels.Rels {
		if rels.Rels[i].ID == relID {
			rels.Rels[i].Target = target
			return
		}
	}
}

// pickScreenshotEmbed finds the picture that holds the screenshot. A
// picture named "screenshot" (however cased) wins; otherwise the first
// picture on the slide is assumed to be it.
func pickScreenshotEmbed(slideXML string) (string, bool) {
	first := ""
	for _, pic := range picRe.FindAllString(slideXML, -1) {
		embed := picEmbedRe.FindStringSubmatch(pic)
		if embed == nil {
			continue
		}
		if first == "" {
			first = embed[1]
		}
		if name := picNameRe.FindStringSubmatch(pic); name != nil {
			if strings.Contains(strings.ToLower(name[1]), "screenshot") {
				return embed[1], true
			}
		}
	}
	return first, first != ""
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// fillSlide substitutes the layout's {{token}} placeholders with the
// case's values. Tokens must sit inside a single text run; the deck
// template is authored that way.
func fillSlide(layoutXML string, a Artifact) string {
	filled := forceDescriptionSize(layoutXML)

	pairs := tokenPairs(a)
	oldnew := make([]string, 0, len(pairs)*2)
	for token, value := range pairs {
		oldnew = append(oldnew, "{{"+token+"}}", xmlEscaper.Replace(value))
	}
	filled = strings.NewReplacer(oldnew...).Replace(filled)

	// Tokens the layout has but the case does not are blanked rather
	// than shipped to the customer.
	return tokenRe.ReplaceAllString(filled, "")
}

func tokenPairs(a Artifact) map[string]string {
	c := a.Case
	pairs := map[string]string{
		"account_name":  c.DisplayName,
		"display_name":  c.DisplayName,
		"domain":        c.Domain,
		"url":           c.Domain,
		"industry":      c.Industry,
		"country":       c.Country,
		"country_codes": strings.Join(CountryCodes(c.Country), ", "),
		"region":        Region(c.Country),
		"description":   a.Description,
		"sample_count":  strconv.Itoa(c.SampleCount),
		"embed_status":  embedStatus(c.Language, a.HasEmbed),
	}
	for _, m := range datanorm.AllMetrics {
		token := strings.ToLower(string(m))
		if v, ok := c.Metrics[m]; ok {
			pairs[token] = formatSlideMetric(m, v)
		} else {
			pairs[token] = "-"
		}
	}
	return pairs
}

func embedStatus(lang Language, hasEmbed bool) string {
	if lang == LangEnglish {
		if hasEmbed {
			return "Yes"
		}
		return "No"
	}
	if hasEmbed {
		return "あり"
	}
	return "なし"
}

// formatSlideMetric renders counts as plain numbers and rates as
// percentages, which is how the deck reads them.
func formatSlideMetric(m datanorm.Metric, v float64) string {
	if kind, ok := m.Kind(); ok && kind == datanorm.KindRate {
		s := strconv.FormatFloat(v*100, 'f', 2, 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
		return s + "%"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// forceDescriptionSize pins the description run to 10.5pt so long text
// keeps fitting the box regardless of the template's own size.
func forceDescriptionSize(slideXML string) string {
	idx := strings.Index(slideXML, "{{description}}")
	if idx < 0 {
		return slideXML
	}
	runStart := strings.LastIndex(slideXML[:idx], "<a:r>")
	if runStart < 0 {
		return slideXML
	}

	segment := slideXML[runStart:idx]
	if strings.Contains(segment, "</a:r>") {
		// Token is not inside a run; leave the layout alone.
		return slideXML
	}
	rprOff := strings.Index(segment, "<a:rPr")
	if rprOff < 0 {
		return slideXML[:runStart] + `<a:r><a:rPr lang="en-US" ` + descriptionSz + `/>` +
			slideXML[runStart+len("<a:r>"):]
	}

	abs := runStart + rprOff
	end := strings.Index(slideXML[abs:], ">")
	if end < 0 {
		return slideXML
	}
	tag := slideXML[abs : abs+end+1]
	if runSizeRe.MatchString(tag) {
		tag = runSizeRe.ReplaceAllString(tag, descriptionSz)
	} else {
		tag = strings.Replace(tag, "<a:rPr", "<a:rPr "+descriptionSz, 1)
	}
	return slideXML[:abs] + tag + slideXML[abs+end+1:]
}

func marshalXML(v interface{}) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}
